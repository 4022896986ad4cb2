package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tickethub/internal/status"
)

// Money is an immutable amount in a single ISO-4217 currency. There is no
// conversion here; mixing currencies is always an error.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney validates and builds a Money value. The currency must be a
// three-letter uppercase ISO-4217 code and the amount must not be negative.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("money: invalid currency code %q", currency)
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return Money{}, fmt.Errorf("money: invalid currency code %q", currency)
		}
	}
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("money: negative amount %s", amount)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MustMoney is a convenience constructor for code paths where the inputs are
// static, e.g. tests and fixtures.
func MustMoney(amount string, currency string) Money {
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", status.ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Mul scales the amount by a unit count.
func (m Money) Mul(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

// Equal requires both the currency and the amount to match.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}

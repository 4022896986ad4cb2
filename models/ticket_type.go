package models

import (
	"fmt"
	"time"

	"tickethub/internal/status"
)

// TicketType owns the available/sold counters for one (event, ticket class)
// pair. It is the single serialization point for overselling prevention:
// stores must apply Reserve/Release/Resize atomically per row.
type TicketType struct {
	ID                string    `json:"id"`
	EventID           string    `json:"event_id"`
	Type              string    `json:"type"` // e.g. standard, vip; open set per deployment
	Description       string    `json:"description"`
	Price             Money     `json:"price"`
	AvailableQuantity int       `json:"available_quantity"`
	SoldQuantity      int       `json:"sold_quantity"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewTicketType builds a fresh inventory row with all units available.
func NewTicketType(eventID, typ, description string, price Money, totalQuantity int) (*TicketType, error) {
	if eventID == "" || typ == "" {
		return nil, fmt.Errorf("ticket type: event id and type are required")
	}
	if totalQuantity < 0 {
		return nil, fmt.Errorf("ticket type: total quantity must not be negative")
	}
	return &TicketType{
		EventID:           eventID,
		Type:              typ,
		Description:       description,
		Price:             price,
		AvailableQuantity: totalQuantity,
		SoldQuantity:      0,
		CreatedAt:         time.Now(),
	}, nil
}

// Total is conserved across every reserve/release; it only changes on an
// explicit resize.
func (t *TicketType) Total() int {
	return t.AvailableQuantity + t.SoldQuantity
}

// ApplyReserve moves quantity units from available to sold, or fails with
// ErrInsufficientInventory leaving the counters untouched.
func (t *TicketType) ApplyReserve(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("ticket type %s: reserve quantity must be positive, got %d", t.ID, quantity)
	}
	if t.AvailableQuantity < quantity {
		return fmt.Errorf("%w: ticket type %s has %d available, want %d",
			status.ErrInsufficientInventory, t.ID, t.AvailableQuantity, quantity)
	}
	t.AvailableQuantity -= quantity
	t.SoldQuantity += quantity
	return nil
}

// ApplyRelease is the inverse of ApplyReserve. Releasing more than was sold
// means bookkeeping upstream is broken and is reported as a consistency
// violation, never clamped.
func (t *TicketType) ApplyRelease(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("ticket type %s: release quantity must be positive, got %d", t.ID, quantity)
	}
	if t.SoldQuantity < quantity {
		return fmt.Errorf("%w: ticket type %s has %d sold, release of %d requested",
			status.ErrInventoryMismatch, t.ID, t.SoldQuantity, quantity)
	}
	t.SoldQuantity -= quantity
	t.AvailableQuantity += quantity
	return nil
}

// ApplyResize adjusts the available counter by the delta against the current
// total. The new total can never undercut what is already sold.
func (t *TicketType) ApplyResize(newTotal int) error {
	if newTotal < t.SoldQuantity {
		return fmt.Errorf("%w: ticket type %s sold %d, new total %d",
			status.ErrInvalidResize, t.ID, t.SoldQuantity, newTotal)
	}
	t.AvailableQuantity = newTotal - t.SoldQuantity
	return nil
}

package models

import (
	"fmt"
	"time"

	"tickethub/internal/status"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order groups the tickets of one checkout for one buyer. It is the unit the
// payment provider settles against; its status is only ever driven by the
// webhook reconciler or the cancellation path.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	TicketIDs []string    `json:"ticket_ids"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewPendingOrder(userID string, ticketIDs []string) (*Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("order: user id is required")
	}
	if len(ticketIDs) == 0 {
		return nil, fmt.Errorf("order: at least one ticket is required")
	}
	ids := make([]string, len(ticketIDs))
	copy(ids, ticketIDs)
	return &Order{
		UserID:    userID,
		TicketIDs: ids,
		Status:    OrderPending,
		CreatedAt: time.Now(),
	}, nil
}

// Complete is idempotent on an already completed order so that webhook
// replays are harmless. Completing a cancelled order is a hard error.
func (o *Order) Complete() error {
	switch o.Status {
	case OrderCompleted:
		return nil
	case OrderPending:
		o.Status = OrderCompleted
		return nil
	default:
		return fmt.Errorf("%w: order %s is %s, cannot complete", status.ErrInvalidTransition, o.ID, o.Status)
	}
}

// Cancel is idempotent on an already cancelled order. A completed sale can
// never be unwound by this path; that would need a refund workflow.
func (o *Order) Cancel() error {
	switch o.Status {
	case OrderCancelled:
		return nil
	case OrderPending:
		o.Status = OrderCancelled
		return nil
	default:
		return fmt.Errorf("%w: order %s is %s, cannot cancel", status.ErrInvalidTransition, o.ID, o.Status)
	}
}

func (o *Order) Terminal() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

package models

import (
	"fmt"
	"time"

	"tickethub/internal/status"
)

type TicketStatus string

const (
	TicketPendingPayment TicketStatus = "pending_payment"
	TicketActive         TicketStatus = "active"
	TicketUsed           TicketStatus = "used"
	TicketPaymentFailed  TicketStatus = "payment_failed"
	TicketCancelled      TicketStatus = "cancelled"
)

// Ticket is one issuable unit. The price is snapshotted at issuance time so
// later price changes on the ticket type never alter an issued ticket.
type Ticket struct {
	ID           string       `json:"id"`
	EventID      string       `json:"event_id"`
	UserID       string       `json:"user_id"`
	AttendeeName string       `json:"attendee_name"`
	TicketTypeID string       `json:"ticket_type_id"`
	Price        Money        `json:"price"`
	Status       TicketStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewPendingTicket creates a ticket in pending_payment. Inventory must
// already have been reserved by the caller; a failed reservation never
// leaves orphan tickets because tickets are only created afterwards.
func NewPendingTicket(eventID, userID, attendeeName, ticketTypeID string, price Money) (*Ticket, error) {
	if userID == "" {
		return nil, fmt.Errorf("ticket: user id is required")
	}
	if attendeeName == "" {
		return nil, fmt.Errorf("ticket: attendee name is required")
	}
	if ticketTypeID == "" {
		return nil, fmt.Errorf("ticket: ticket type id is required")
	}
	return &Ticket{
		EventID:      eventID,
		UserID:       userID,
		AttendeeName: attendeeName,
		TicketTypeID: ticketTypeID,
		Price:        price,
		Status:       TicketPendingPayment,
		CreatedAt:    time.Now(),
	}, nil
}

// MarkActive confirms payment: pending_payment -> active.
func (t *Ticket) MarkActive() error {
	if t.Status != TicketPendingPayment {
		return fmt.Errorf("%w: ticket %s is %s, cannot activate", status.ErrInvalidTransition, t.ID, t.Status)
	}
	t.Status = TicketActive
	return nil
}

// MarkPaymentFailed records an expired or failed checkout:
// pending_payment -> payment_failed.
func (t *Ticket) MarkPaymentFailed() error {
	if t.Status != TicketPendingPayment {
		return fmt.Errorf("%w: ticket %s is %s, cannot fail payment", status.ErrInvalidTransition, t.ID, t.Status)
	}
	t.Status = TicketPaymentFailed
	return nil
}

// MarkUsed records event-staff check-in: active -> used.
func (t *Ticket) MarkUsed() error {
	if t.Status != TicketActive {
		return fmt.Errorf("%w: ticket %s is %s, cannot check in", status.ErrInvalidTransition, t.ID, t.Status)
	}
	t.Status = TicketUsed
	return nil
}

// Cancel is the administrative override used by the ticket type deletion
// cascade. It accepts active, pending and even used tickets, but not ones
// already settled as failed or cancelled.
func (t *Ticket) Cancel() error {
	switch t.Status {
	case TicketActive, TicketPendingPayment, TicketUsed:
		t.Status = TicketCancelled
		return nil
	default:
		return fmt.Errorf("%w: ticket %s is %s, cannot cancel", status.ErrInvalidTransition, t.ID, t.Status)
	}
}

// Terminal reports whether no further regular transition is possible.
func (t *Ticket) Terminal() bool {
	switch t.Status {
	case TicketUsed, TicketCancelled, TicketPaymentFailed:
		return true
	}
	return false
}

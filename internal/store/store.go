package store

import (
	"context"

	"tickethub/internal/payment"
	"tickethub/models"
)

// TicketTypeStore persists inventory rows. Reserve, Release and Resize must
// be linearizable with respect to each other on the same row; different rows
// need no coordination.
type TicketTypeStore interface {
	// Create fails with status.ErrDuplicateTicketType when the event already
	// has a ticket type of the same class.
	Create(ctx context.Context, tt *models.TicketType) error
	Get(ctx context.Context, id string) (*models.TicketType, error)
	Update(ctx context.Context, tt *models.TicketType) error

	// Reserve atomically moves quantity units from available to sold, or
	// fails with status.ErrInsufficientInventory without mutating anything.
	Reserve(ctx context.Context, id string, quantity int) error

	// Release is the inverse of Reserve. A release that would push a counter
	// negative fails with status.ErrInventoryMismatch.
	Release(ctx context.Context, id string, quantity int) error

	// Resize sets a new total, adjusting the available counter by the delta.
	Resize(ctx context.Context, id string, newTotal int) error

	Delete(ctx context.Context, id string) error
}

type TicketStore interface {
	Create(ctx context.Context, t *models.Ticket) error
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Update(ctx context.Context, t *models.Ticket) error
	Delete(ctx context.Context, id string) error
	ListByTicketType(ctx context.Context, ticketTypeID string) ([]*models.Ticket, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id string) error
}

// SessionStore caches provider checkout sessions so the status endpoint does
// not have to round-trip to the provider. Entries expire with the session.
type SessionStore interface {
	Put(ctx context.Context, s *payment.Session) error
	Get(ctx context.Context, id string) (*payment.Session, error)
	Delete(ctx context.Context, id string) error
}

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tickethub/internal/payment"
	"tickethub/internal/status"
	"tickethub/models"
	"tickethub/utils"
)

// MemoryStore is a mutex-guarded in-memory implementation of every store
// interface. It backs the test suite and the development mode that runs
// without a database. The single mutex per store makes counter updates
// trivially linearizable.
type MemoryStore struct {
	mu       sync.Mutex
	types    map[string]*models.TicketType
	tickets  map[string]*models.Ticket
	orders   map[string]*models.Order
	sessions map[string]*payment.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		types:    make(map[string]*models.TicketType),
		tickets:  make(map[string]*models.Ticket),
		orders:   make(map[string]*models.Order),
		sessions: make(map[string]*payment.Session),
	}
}

func newID(prefix string) string {
	code, err := utils.GenerateCode(8)
	if err != nil {
		panic(fmt.Sprintf("id generation failed: %v", err))
	}
	return prefix + "_" + code
}

func copyTicketType(tt *models.TicketType) *models.TicketType {
	cp := *tt
	return &cp
}

func copyTicket(t *models.Ticket) *models.Ticket {
	cp := *t
	return &cp
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.TicketIDs = append([]string(nil), o.TicketIDs...)
	return &cp
}

// TicketTypes returns the inventory view of the store.
func (s *MemoryStore) TicketTypes() TicketTypeStore { return (*memoryTicketTypes)(s) }

// Tickets returns the ticket view of the store.
func (s *MemoryStore) Tickets() TicketStore { return (*memoryTickets)(s) }

// Orders returns the order view of the store.
func (s *MemoryStore) Orders() OrderStore { return (*memoryOrders)(s) }

// Sessions returns the checkout session view of the store.
func (s *MemoryStore) Sessions() SessionStore { return (*memorySessions)(s) }

// --- TicketTypeStore ---

type memoryTicketTypes MemoryStore

func (s *memoryTicketTypes) Create(ctx context.Context, tt *models.TicketType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.types {
		if existing.EventID == tt.EventID && existing.Type == tt.Type {
			return fmt.Errorf("%w: event %s already has type %s",
				status.ErrDuplicateTicketType, tt.EventID, tt.Type)
		}
	}

	if tt.ID == "" {
		tt.ID = newID("tt")
	}
	s.types[tt.ID] = copyTicketType(tt)
	return nil
}

func (s *memoryTicketTypes) Get(ctx context.Context, id string) (*models.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tt, ok := s.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	return copyTicketType(tt), nil
}

func (s *memoryTicketTypes) Update(ctx context.Context, tt *models.TicketType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[tt.ID]; !ok {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, tt.ID)
	}
	s.types[tt.ID] = copyTicketType(tt)
	return nil
}

func (s *memoryTicketTypes) Reserve(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tt, ok := s.types[id]
	if !ok {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	return tt.ApplyReserve(quantity)
}

func (s *memoryTicketTypes) Release(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tt, ok := s.types[id]
	if !ok {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	return tt.ApplyRelease(quantity)
}

func (s *memoryTicketTypes) Resize(ctx context.Context, id string, newTotal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tt, ok := s.types[id]
	if !ok {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	return tt.ApplyResize(newTotal)
}

func (s *memoryTicketTypes) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[id]; !ok {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	delete(s.types, id)
	return nil
}

// --- TicketStore ---

type memoryTickets MemoryStore

func (s *memoryTickets) Create(ctx context.Context, t *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = newID("tkt")
	}
	s.tickets[t.ID] = copyTicket(t)
	return nil
}

func (s *memoryTickets) Get(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: ticket %s", status.ErrNotFound, id)
	}
	return copyTicket(t), nil
}

func (s *memoryTickets) Update(ctx context.Context, t *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[t.ID]; !ok {
		return fmt.Errorf("%w: ticket %s", status.ErrNotFound, t.ID)
	}
	s.tickets[t.ID] = copyTicket(t)
	return nil
}

func (s *memoryTickets) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tickets, id)
	return nil
}

func (s *memoryTickets) ListByTicketType(ctx context.Context, ticketTypeID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Ticket
	for _, t := range s.tickets {
		if t.TicketTypeID == ticketTypeID {
			result = append(result, copyTicket(t))
		}
	}
	return result, nil
}

// --- OrderStore ---

type memoryOrders MemoryStore

func (s *memoryOrders) Create(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = newID("ord")
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *memoryOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", status.ErrNotFound, id)
	}
	return copyOrder(o), nil
}

func (s *memoryOrders) Update(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; !ok {
		return fmt.Errorf("%w: order %s", status.ErrNotFound, o.ID)
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *memoryOrders) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orders, id)
	return nil
}

// --- SessionStore ---

type memorySessions MemoryStore

func (s *memorySessions) Put(ctx context.Context, sess *payment.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *memorySessions) Get(ctx context.Context, id string) (*payment.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || (!sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(time.Now()) && sess.Status == payment.SessionOpen) {
		return nil, fmt.Errorf("%w: checkout session %s", status.ErrNotFound, id)
	}
	cp := *sess
	return &cp, nil
}

func (s *memorySessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tickethub/internal/notify"
	"tickethub/internal/payment"
	"tickethub/internal/status"
	"tickethub/internal/store"
	"tickethub/models"
	"tickethub/monitoring"
	"tickethub/utils"
)

// CheckoutService coordinates inventory reservation, ticket and order
// creation, and the provider session as one logical operation. There is no
// cross-aggregate transaction; failures are unwound with compensating
// actions in reverse order of acquisition.
type CheckoutService struct {
	types    store.TicketTypeStore
	tickets  store.TicketStore
	orders   store.OrderStore
	sessions store.SessionStore
	provider payment.Provider
	breaker  *utils.CircuitBreaker
	notifier notify.Notifier
	monitor  *monitoring.Monitor
}

func NewCheckoutService(
	types store.TicketTypeStore,
	tickets store.TicketStore,
	orders store.OrderStore,
	sessions store.SessionStore,
	provider payment.Provider,
	notifier notify.Notifier,
	monitor *monitoring.Monitor,
) *CheckoutService {
	return &CheckoutService{
		types:    types,
		tickets:  tickets,
		orders:   orders,
		sessions: sessions,
		provider: provider,
		breaker:  utils.NewCircuitBreaker("payment-provider"),
		notifier: notifier,
		monitor:  monitor,
	}
}

// reservation is one granted inventory hold, remembered for rollback.
type reservation struct {
	ticketType *models.TicketType
	count      int
}

func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID string, items []models.CheckoutItem, successURL, cancelURL string) (*models.CheckoutResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("checkout: user id is required")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("checkout: items list is empty")
	}
	for i, it := range items {
		if it.TicketTypeID == "" || it.AttendeeName == "" {
			return nil, fmt.Errorf("checkout: item %d is missing ticket type or attendee name", i)
		}
	}

	// Step 1: group items per ticket type and reserve each group. A failed
	// reservation releases every hold already granted in this call.
	reservations, err := s.reserveAll(ctx, items)
	if err != nil {
		s.trackCheckout("create", "insufficient_inventory")
		return nil, err
	}

	// Step 2: issue pending tickets with the price snapshotted at
	// reservation time.
	byType := make(map[string]*models.TicketType, len(reservations))
	for _, r := range reservations {
		byType[r.ticketType.ID] = r.ticketType
	}

	var ticketIDs []string
	var created []*models.Ticket
	for _, it := range items {
		tt := byType[it.TicketTypeID]
		ticket, err := models.NewPendingTicket(tt.EventID, userID, it.AttendeeName, tt.ID, tt.Price)
		if err == nil {
			err = s.tickets.Create(ctx, ticket)
		}
		if err != nil {
			s.rollback(ctx, nil, created, reservations)
			s.trackCheckout("create", "error")
			return nil, fmt.Errorf("checkout: issue ticket: %w", err)
		}
		created = append(created, ticket)
		ticketIDs = append(ticketIDs, ticket.ID)
	}

	// Step 3: the pending order grouping this checkout's tickets.
	order, err := models.NewPendingOrder(userID, ticketIDs)
	if err == nil {
		err = s.orders.Create(ctx, order)
	}
	if err != nil {
		s.rollback(ctx, nil, created, reservations)
		s.trackCheckout("create", "error")
		return nil, fmt.Errorf("checkout: create order: %w", err)
	}

	// Step 4: ask the provider for a session bound to the order. An
	// unreachable provider rolls back everything from steps 1-3.
	sess, err := s.createProviderSession(ctx, order, created, successURL, cancelURL)
	if err != nil {
		s.rollback(ctx, order, created, reservations)
		s.trackCheckout("create", "provider_error")
		return nil, fmt.Errorf("checkout: %w: %v", status.ErrProviderUnavailable, err)
	}

	// Cache the session for the status endpoint; losing the cache only
	// costs a provider round-trip later.
	if err := s.sessions.Put(ctx, sess); err != nil {
		slog.Warn("failed to cache checkout session", "session_id", sess.ID, "error", err)
	}

	slog.Info("checkout session created",
		"session_id", sess.ID,
		"order_id", order.ID,
		"user_id", userID,
		"tickets", len(ticketIDs),
	)
	s.trackCheckout("create", "success")

	return &models.CheckoutResult{
		SessionID:   sess.ID,
		RedirectURL: sess.RedirectURL,
		OrderID:     order.ID,
	}, nil
}

func (s *CheckoutService) reserveAll(ctx context.Context, items []models.CheckoutItem) ([]reservation, error) {
	counts := make(map[string]int)
	var typeOrder []string
	for _, it := range items {
		if counts[it.TicketTypeID] == 0 {
			typeOrder = append(typeOrder, it.TicketTypeID)
		}
		counts[it.TicketTypeID]++
	}

	var granted []reservation
	for _, id := range typeOrder {
		tt, err := s.types.Get(ctx, id)
		if err == nil {
			err = s.types.Reserve(ctx, id, counts[id])
		}
		if err != nil {
			s.releaseReservations(ctx, granted)
			if errors.Is(err, status.ErrInsufficientInventory) {
				return nil, fmt.Errorf("ticket type %q: %w", tt.Type, err)
			}
			return nil, err
		}
		granted = append(granted, reservation{ticketType: tt, count: counts[id]})

		// gauge from a fresh read; the pre-reserve snapshot can be stale
		// under concurrent reservations
		if s.monitor != nil {
			if fresh, err := s.types.Get(ctx, id); err == nil {
				s.trackInventory(fresh.ID, fresh.AvailableQuantity)
			}
		}
	}
	return granted, nil
}

func (s *CheckoutService) createProviderSession(ctx context.Context, order *models.Order, tickets []*models.Ticket, successURL, cancelURL string) (*payment.Session, error) {
	req := &payment.CreateSessionRequest{
		OrderID:    order.ID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
	for _, t := range tickets {
		req.Items = append(req.Items, payment.SessionItem{
			TicketTypeID: t.TicketTypeID,
			UnitPrice:    t.Price,
		})
	}

	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.provider.CreateCheckoutSession(ctx, req)
	})
	s.trackProvider("create_session", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.(*payment.Session), nil
}

// rollback unwinds a partially built checkout in reverse order of
// acquisition: order, then tickets, then inventory. Compensation failures
// are logged, never surfaced; the original error is what the caller sees.
func (s *CheckoutService) rollback(ctx context.Context, order *models.Order, tickets []*models.Ticket, reservations []reservation) {
	if order != nil {
		if err := s.orders.Delete(ctx, order.ID); err != nil {
			slog.Error("checkout rollback: delete order", "order_id", order.ID, "error", err)
		}
	}
	for i := len(tickets) - 1; i >= 0; i-- {
		if err := s.tickets.Delete(ctx, tickets[i].ID); err != nil {
			slog.Error("checkout rollback: delete ticket", "ticket_id", tickets[i].ID, "error", err)
		}
	}
	s.releaseReservations(ctx, reservations)
}

func (s *CheckoutService) releaseReservations(ctx context.Context, reservations []reservation) {
	for i := len(reservations) - 1; i >= 0; i-- {
		r := reservations[i]
		if err := s.types.Release(ctx, r.ticketType.ID, r.count); err != nil {
			slog.Error("checkout rollback: release inventory",
				"ticket_type_id", r.ticketType.ID,
				"count", r.count,
				"error", err,
			)
		}
	}
}

// CancelCheckoutSession is the user-initiated unwind. A completed sale is
// never undone; anything else gets the same treatment as a provider expiry
// notification. The provider is asked for the session's current status
// before anything is unwound: the cache can still say open after the buyer
// has paid, and acting on that stale read would tear down a settled sale.
// Errors are logged rather than surfaced so the caller can always be
// redirected away from the payment page.
func (s *CheckoutService) CancelCheckoutSession(ctx context.Context, sessionID string) {
	sess, err := s.lookupSessionAtProvider(ctx, sessionID)
	if err != nil {
		slog.Error("cancel checkout: session lookup failed", "session_id", sessionID, "error", err)
		s.trackCheckout("cancel", "error")
		return
	}

	if sess.Status == payment.SessionComplete {
		slog.Info("cancel checkout: session already complete, nothing to unwind", "session_id", sessionID)
		s.trackCheckout("cancel", "already_complete")
		return
	}

	if err := expirePendingOrder(ctx, s.orders, s.tickets, s.types, s.notifier, sess.OrderID); err != nil {
		slog.Error("cancel checkout: unwind failed", "session_id", sessionID, "order_id", sess.OrderID, "error", err)
		s.trackCheckout("cancel", "error")
		return
	}

	sess.Status = payment.SessionExpired
	if err := s.sessions.Put(ctx, sess); err != nil {
		slog.Warn("cancel checkout: failed to update cached session", "session_id", sessionID, "error", err)
	}

	slog.Info("checkout session cancelled", "session_id", sessionID, "order_id", sess.OrderID)
	s.trackCheckout("cancel", "success")
}

// GetSession resolves a session from the cache, falling back to the
// provider when the cache entry is gone.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	return s.lookupSession(ctx, sessionID)
}

// lookupSession is cache-first and serves the read-only status endpoint,
// where a slightly stale answer only costs the buyer one more poll.
func (s *CheckoutService) lookupSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		return sess, nil
	}
	return s.fetchSession(ctx, sessionID)
}

// lookupSessionAtProvider is provider-first and serves the cancel path. The
// cache is only trusted when the provider cannot be reached, and then only
// because the unwind itself refuses to touch a completed order.
func (s *CheckoutService) lookupSessionAtProvider(ctx context.Context, sessionID string) (*payment.Session, error) {
	sess, err := s.fetchSession(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	slog.Warn("provider session lookup failed, falling back to cache",
		"session_id", sessionID, "error", err)
	return s.sessions.Get(ctx, sessionID)
}

func (s *CheckoutService) fetchSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.provider.GetCheckoutSession(ctx, sessionID)
	})
	s.trackProvider("get_session", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.(*payment.Session), nil
}

func (s *CheckoutService) trackCheckout(operation, result string) {
	if s.monitor != nil {
		s.monitor.TrackCheckoutOperation(operation, result)
	}
}

func (s *CheckoutService) trackInventory(ticketTypeID string, available int) {
	if s.monitor != nil {
		s.monitor.TrackInventory(ticketTypeID, available)
	}
}

func (s *CheckoutService) trackProvider(call string, d time.Duration) {
	if s.monitor != nil {
		s.monitor.TrackProviderRequest(call, d)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"tickethub/internal/notify"
	"tickethub/internal/payment"
	"tickethub/internal/store"
	"tickethub/models"
	"tickethub/monitoring"
)

// WebhookService reconciles asynchronous provider notifications against
// order, ticket and inventory state. Delivery is at-least-once and
// unordered, so every handler is idempotent, keyed on the order's current
// status rather than on any message sequence.
type WebhookService struct {
	orders   store.OrderStore
	tickets  store.TicketStore
	types    store.TicketTypeStore
	sessions store.SessionStore
	notifier notify.Notifier
	monitor  *monitoring.Monitor
}

func NewWebhookService(
	orders store.OrderStore,
	tickets store.TicketStore,
	types store.TicketTypeStore,
	sessions store.SessionStore,
	notifier notify.Notifier,
	monitor *monitoring.Monitor,
) *WebhookService {
	return &WebhookService{
		orders:   orders,
		tickets:  tickets,
		types:    types,
		sessions: sessions,
		notifier: notifier,
		monitor:  monitor,
	}
}

// HandleEvent routes one verified provider event. Unknown event types are
// acknowledged without action, before any order lookup, so new provider
// events never bounce no matter what their payload carries.
func (s *WebhookService) HandleEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventSessionCompleted, payment.EventSessionExpired:
	default:
		slog.Debug("ignoring webhook event", "type", event.Type, "session_id", event.SessionID)
		s.trackWebhook(event.Type, "ignored")
		return nil
	}

	orderID, err := s.resolveOrderID(ctx, event)
	if err != nil {
		s.trackWebhook(event.Type, "unresolved")
		return err
	}

	if event.Type == payment.EventSessionCompleted {
		if err = s.completeOrder(ctx, orderID); err == nil {
			s.syncSessionStatus(ctx, event.SessionID, payment.SessionComplete)
		}
	} else {
		err = s.expireOrder(ctx, event.SessionID, orderID)
	}

	if err != nil {
		s.trackWebhook(event.Type, "error")
		return err
	}
	s.trackWebhook(event.Type, "ok")
	return nil
}

// resolveOrderID prefers the order id embedded in the event and falls back
// to the cached session when the provider omitted it.
func (s *WebhookService) resolveOrderID(ctx context.Context, event *payment.Event) (string, error) {
	if event.OrderID != "" {
		return event.OrderID, nil
	}
	sess, err := s.sessions.Get(ctx, event.SessionID)
	if err != nil {
		return "", fmt.Errorf("webhook %s: no order id and no cached session %s: %w",
			event.Type, event.SessionID, err)
	}
	return sess.OrderID, nil
}

// completeOrder confirms a paid checkout: the order completes and its
// tickets activate. Inventory is untouched, the units moved to sold at
// reservation time and completion confirms that allocation.
func (s *WebhookService) completeOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	switch order.Status {
	case models.OrderCompleted:
		slog.Info("duplicate completion event, order already completed", "order_id", orderID)
		return nil
	case models.OrderCancelled:
		// the provider should never settle a session whose order was
		// already unwound
		slog.Error("completion event for cancelled order, ignoring", "order_id", orderID)
		return nil
	}

	if err := order.Complete(); err != nil {
		return err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return err
	}

	for _, ticketID := range order.TicketIDs {
		ticket, err := s.tickets.Get(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status == models.TicketActive {
			continue
		}
		if err := ticket.MarkActive(); err != nil {
			return err
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
	}

	slog.Info("order completed", "order_id", orderID, "tickets", len(order.TicketIDs))
	s.notifyOrder(ctx, order)
	return nil
}

func (s *WebhookService) expireOrder(ctx context.Context, sessionID, orderID string) error {
	if err := expirePendingOrder(ctx, s.orders, s.tickets, s.types, s.notifier, orderID); err != nil {
		return err
	}

	s.syncSessionStatus(ctx, sessionID, payment.SessionExpired)
	return nil
}

// syncSessionStatus keeps the cached session in step with what the provider
// reported, so the status endpoint and the cancel path see fresh state.
func (s *WebhookService) syncSessionStatus(ctx context.Context, sessionID string, st payment.SessionStatus) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil || sess.Status == st {
		return
	}
	sess.Status = st
	if err := s.sessions.Put(ctx, sess); err != nil {
		slog.Warn("failed to update cached session", "session_id", sessionID, "error", err)
	}
}

func (s *WebhookService) notifyOrder(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyOrderUpdate(ctx, order.UserID, notify.OrderUpdate{
		OrderID: order.ID,
		Status:  string(order.Status),
	})
	if err != nil {
		slog.Warn("failed to notify order update", "order_id", order.ID, "error", err)
	}
}

func (s *WebhookService) trackWebhook(eventType, outcome string) {
	if s.monitor != nil {
		s.monitor.TrackWebhookEvent(eventType, outcome)
	}
}

// expirePendingOrder unwinds an unpaid checkout: the order cancels, its
// tickets fail, and the reserved units return to inventory. It is shared by
// the provider expiry notification and the user-initiated cancel, and is
// idempotent on the order's status: already cancelled is a no-op, already
// completed is a logged anomaly that must not corrupt a settled sale.
func expirePendingOrder(
	ctx context.Context,
	orders store.OrderStore,
	tickets store.TicketStore,
	types store.TicketTypeStore,
	notifier notify.Notifier,
	orderID string,
) error {
	order, err := orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	switch order.Status {
	case models.OrderCancelled:
		slog.Info("duplicate expiry event, order already cancelled", "order_id", orderID)
		return nil
	case models.OrderCompleted:
		slog.Error("expiry event for completed order, ignoring", "order_id", orderID)
		return nil
	}

	if err := order.Cancel(); err != nil {
		return err
	}
	if err := orders.Update(ctx, order); err != nil {
		return err
	}

	releaseCounts := make(map[string]int)
	for _, ticketID := range order.TicketIDs {
		ticket, err := tickets.Get(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != models.TicketPendingPayment {
			continue
		}
		if err := ticket.MarkPaymentFailed(); err != nil {
			return err
		}
		if err := tickets.Update(ctx, ticket); err != nil {
			return err
		}
		releaseCounts[ticket.TicketTypeID]++
	}

	for ticketTypeID, count := range releaseCounts {
		if err := types.Release(ctx, ticketTypeID, count); err != nil {
			// a failed release is a bookkeeping violation, not something
			// to clamp and continue from
			slog.Error("inventory release failed during order expiry",
				"order_id", orderID,
				"ticket_type_id", ticketTypeID,
				"count", count,
				"error", err,
			)
			return err
		}
	}

	slog.Info("order expired", "order_id", orderID, "tickets_failed", len(order.TicketIDs))

	if notifier != nil {
		err := notifier.NotifyOrderUpdate(ctx, order.UserID, notify.OrderUpdate{
			OrderID: order.ID,
			Status:  string(order.Status),
		})
		if err != nil {
			slog.Warn("failed to notify order update", "order_id", order.ID, "error", err)
		}
	}
	return nil
}

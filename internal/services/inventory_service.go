package services

import (
	"context"
	"fmt"
	"log/slog"

	"tickethub/internal/store"
	"tickethub/models"
	"tickethub/monitoring"
)

// InventoryService owns the admin side of ticket type inventory: defining
// ticket classes, resizing them and removing them with a cascading cancel of
// their tickets. Buyer-side reservation goes through CheckoutService.
type InventoryService struct {
	types   store.TicketTypeStore
	tickets store.TicketStore
	monitor *monitoring.Monitor
}

func NewInventoryService(types store.TicketTypeStore, tickets store.TicketStore, monitor *monitoring.Monitor) *InventoryService {
	return &InventoryService{
		types:   types,
		tickets: tickets,
		monitor: monitor,
	}
}

func (s *InventoryService) CreateTicketType(ctx context.Context, eventID, class, description string, price models.Money, totalQuantity int) (*models.TicketType, error) {
	tt, err := models.NewTicketType(eventID, class, description, price, totalQuantity)
	if err != nil {
		return nil, err
	}

	if err := s.types.Create(ctx, tt); err != nil {
		return nil, err
	}

	slog.Info("ticket type created",
		"ticket_type_id", tt.ID,
		"event_id", eventID,
		"type", class,
		"total", totalQuantity,
	)
	s.trackInventory(tt)
	return tt, nil
}

func (s *InventoryService) GetTicketType(ctx context.Context, id string) (*models.TicketType, error) {
	return s.types.Get(ctx, id)
}

func (s *InventoryService) ResizeTicketType(ctx context.Context, id string, newTotal int) (*models.TicketType, error) {
	if err := s.types.Resize(ctx, id, newTotal); err != nil {
		return nil, err
	}

	tt, err := s.types.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("ticket type resized",
		"ticket_type_id", id,
		"total", newTotal,
		"available", tt.AvailableQuantity,
	)
	s.trackInventory(tt)
	return tt, nil
}

// DeleteTicketType removes a ticket class and cancels every non-terminal
// ticket referencing it. Cancelled buyers keep their ticket records for
// auditability; only the inventory row disappears.
func (s *InventoryService) DeleteTicketType(ctx context.Context, id string) error {
	tickets, err := s.tickets.ListByTicketType(ctx, id)
	if err != nil {
		return fmt.Errorf("delete ticket type %s: %w", id, err)
	}

	for _, t := range tickets {
		if t.Terminal() {
			continue
		}
		if err := t.Cancel(); err != nil {
			return fmt.Errorf("delete ticket type %s: %w", id, err)
		}
		if err := s.tickets.Update(ctx, t); err != nil {
			return fmt.Errorf("delete ticket type %s: %w", id, err)
		}
		slog.Info("ticket cancelled by ticket type deletion",
			"ticket_id", t.ID,
			"ticket_type_id", id,
		)
	}

	return s.types.Delete(ctx, id)
}

// CheckInTicket records event-staff check-in at the gate.
func (s *InventoryService) CheckInTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	t, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := t.MarkUsed(); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}

	slog.Info("ticket checked in", "ticket_id", ticketID, "event_id", t.EventID)
	return t, nil
}

func (s *InventoryService) trackInventory(tt *models.TicketType) {
	if s.monitor != nil {
		s.monitor.TrackInventory(tt.ID, tt.AvailableQuantity)
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/status"
	"tickethub/models"
)

// RecordStore persists the aggregates as PocketBase collections. Counter
// updates go through raw conditional UPDATEs so reserve/release/resize are
// serialized by the database row, never read-then-written in two steps.
type RecordStore struct {
	app core.App
}

func NewRecordStore(app core.App) *RecordStore {
	return &RecordStore{app: app}
}

func (s *RecordStore) TicketTypes() TicketTypeStore { return &ticketTypeRecords{app: s.app} }
func (s *RecordStore) Tickets() TicketStore         { return &ticketRecords{app: s.app} }
func (s *RecordStore) Orders() OrderStore           { return &orderRecords{app: s.app} }

// --- ticket types ---

type ticketTypeRecords struct {
	app core.App
}

func (s *ticketTypeRecords) Create(ctx context.Context, tt *models.TicketType) error {
	existing, err := s.app.FindFirstRecordByFilter(
		"ticket_types",
		"event_id = {:eventId} && type = {:type}",
		dbx.Params{"eventId": tt.EventID, "type": tt.Type},
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("ticket type lookup: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: event %s already has type %s",
			status.ErrDuplicateTicketType, tt.EventID, tt.Type)
	}

	collection, err := s.app.FindCollectionByNameOrId("ticket_types")
	if err != nil {
		return fmt.Errorf("ticket_types collection: %w", err)
	}

	record := core.NewRecord(collection)
	applyTicketType(record, tt)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save ticket type: %w", err)
	}
	tt.ID = record.Id
	return nil
}

func (s *ticketTypeRecords) Get(ctx context.Context, id string) (*models.TicketType, error) {
	record, err := s.app.FindRecordById("ticket_types", id)
	if err != nil {
		return nil, fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	return recordToTicketType(record)
}

func (s *ticketTypeRecords) Update(ctx context.Context, tt *models.TicketType) error {
	record, err := s.app.FindRecordById("ticket_types", tt.ID)
	if err != nil {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, tt.ID)
	}
	applyTicketType(record, tt)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save ticket type: %w", err)
	}
	return nil
}

// Reserve performs the conditional decrement in one statement; the WHERE
// clause is what makes overselling impossible under concurrency.
func (s *ticketTypeRecords) Reserve(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("ticket type %s: reserve quantity must be positive, got %d", id, quantity)
	}

	res, err := s.app.DB().NewQuery(`
		UPDATE ticket_types
		SET available_quantity = available_quantity - {:q},
		    sold_quantity = sold_quantity + {:q}
		WHERE id = {:id} AND available_quantity >= {:q}
	`).Bind(dbx.Params{"q": quantity, "id": id}).Execute()
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: ticket type %s, want %d", status.ErrInsufficientInventory, id, quantity)
	}
	return nil
}

func (s *ticketTypeRecords) Release(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("ticket type %s: release quantity must be positive, got %d", id, quantity)
	}

	res, err := s.app.DB().NewQuery(`
		UPDATE ticket_types
		SET available_quantity = available_quantity + {:q},
		    sold_quantity = sold_quantity - {:q}
		WHERE id = {:id} AND sold_quantity >= {:q}
	`).Bind(dbx.Params{"q": quantity, "id": id}).Execute()
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: ticket type %s, release of %d requested", status.ErrInventoryMismatch, id, quantity)
	}
	return nil
}

func (s *ticketTypeRecords) Resize(ctx context.Context, id string, newTotal int) error {
	if newTotal < 0 {
		return fmt.Errorf("%w: ticket type %s, new total %d", status.ErrInvalidResize, id, newTotal)
	}

	res, err := s.app.DB().NewQuery(`
		UPDATE ticket_types
		SET available_quantity = {:total} - sold_quantity
		WHERE id = {:id} AND sold_quantity <= {:total}
	`).Bind(dbx.Params{"total": newTotal, "id": id}).Execute()
	if err != nil {
		return fmt.Errorf("resize: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: ticket type %s, new total %d", status.ErrInvalidResize, id, newTotal)
	}
	return nil
}

func (s *ticketTypeRecords) Delete(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("ticket_types", id)
	if err != nil {
		return fmt.Errorf("%w: ticket type %s", status.ErrNotFound, id)
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete ticket type: %w", err)
	}
	return nil
}

func applyTicketType(record *core.Record, tt *models.TicketType) {
	record.Set("event_id", tt.EventID)
	record.Set("type", tt.Type)
	record.Set("description", tt.Description)
	record.Set("price_amount", tt.Price.Amount.String())
	record.Set("price_currency", tt.Price.Currency)
	record.Set("available_quantity", tt.AvailableQuantity)
	record.Set("sold_quantity", tt.SoldQuantity)
}

func recordToTicketType(record *core.Record) (*models.TicketType, error) {
	price, err := recordPrice(record)
	if err != nil {
		return nil, fmt.Errorf("ticket type %s: %w", record.Id, err)
	}
	return &models.TicketType{
		ID:                record.Id,
		EventID:           record.GetString("event_id"),
		Type:              record.GetString("type"),
		Description:       record.GetString("description"),
		Price:             price,
		AvailableQuantity: record.GetInt("available_quantity"),
		SoldQuantity:      record.GetInt("sold_quantity"),
		CreatedAt:         record.GetDateTime("created").Time(),
	}, nil
}

func recordPrice(record *core.Record) (models.Money, error) {
	amount, err := decimal.NewFromString(record.GetString("price_amount"))
	if err != nil {
		return models.Money{}, fmt.Errorf("parse price: %w", err)
	}
	return models.NewMoney(amount, record.GetString("price_currency"))
}

// --- tickets ---

type ticketRecords struct {
	app core.App
}

func (s *ticketRecords) Create(ctx context.Context, t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return fmt.Errorf("tickets collection: %w", err)
	}

	record := core.NewRecord(collection)
	applyTicket(record, t)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	t.ID = record.Id
	return nil
}

func (s *ticketRecords) Get(ctx context.Context, id string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		return nil, fmt.Errorf("%w: ticket %s", status.ErrNotFound, id)
	}
	return recordToTicket(record)
}

func (s *ticketRecords) Update(ctx context.Context, t *models.Ticket) error {
	record, err := s.app.FindRecordById("tickets", t.ID)
	if err != nil {
		return fmt.Errorf("%w: ticket %s", status.ErrNotFound, t.ID)
	}
	applyTicket(record, t)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	return nil
}

func (s *ticketRecords) Delete(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		return nil // already gone, deletion is idempotent
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	return nil
}

func (s *ticketRecords) ListByTicketType(ctx context.Context, ticketTypeID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"ticket_type_id = {:ticketTypeId}",
		"-created",
		0,
		0,
		dbx.Params{"ticketTypeId": ticketTypeID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	tickets := make([]*models.Ticket, 0, len(records))
	for _, record := range records {
		t, err := recordToTicket(record)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func applyTicket(record *core.Record, t *models.Ticket) {
	record.Set("event_id", t.EventID)
	record.Set("user_id", t.UserID)
	record.Set("attendee_name", t.AttendeeName)
	record.Set("ticket_type_id", t.TicketTypeID)
	record.Set("price_amount", t.Price.Amount.String())
	record.Set("price_currency", t.Price.Currency)
	record.Set("status", string(t.Status))
}

func recordToTicket(record *core.Record) (*models.Ticket, error) {
	price, err := recordPrice(record)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", record.Id, err)
	}
	return &models.Ticket{
		ID:           record.Id,
		EventID:      record.GetString("event_id"),
		UserID:       record.GetString("user_id"),
		AttendeeName: record.GetString("attendee_name"),
		TicketTypeID: record.GetString("ticket_type_id"),
		Price:        price,
		Status:       models.TicketStatus(record.GetString("status")),
		CreatedAt:    record.GetDateTime("created").Time(),
	}, nil
}

// --- orders ---

type orderRecords struct {
	app core.App
}

func (s *orderRecords) Create(ctx context.Context, o *models.Order) error {
	collection, err := s.app.FindCollectionByNameOrId("orders")
	if err != nil {
		return fmt.Errorf("orders collection: %w", err)
	}

	record := core.NewRecord(collection)
	applyOrder(record, o)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	o.ID = record.Id
	return nil
}

func (s *orderRecords) Get(ctx context.Context, id string) (*models.Order, error) {
	record, err := s.app.FindRecordById("orders", id)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s", status.ErrNotFound, id)
	}
	return recordToOrder(record), nil
}

func (s *orderRecords) Update(ctx context.Context, o *models.Order) error {
	record, err := s.app.FindRecordById("orders", o.ID)
	if err != nil {
		return fmt.Errorf("%w: order %s", status.ErrNotFound, o.ID)
	}
	applyOrder(record, o)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (s *orderRecords) Delete(ctx context.Context, id string) error {
	record, err := s.app.FindRecordById("orders", id)
	if err != nil {
		return nil
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func applyOrder(record *core.Record, o *models.Order) {
	record.Set("user_id", o.UserID)
	record.Set("ticket_ids", o.TicketIDs)
	record.Set("status", string(o.Status))
}

func recordToOrder(record *core.Record) *models.Order {
	return &models.Order{
		ID:        record.Id,
		UserID:    record.GetString("user_id"),
		TicketIDs: record.GetStringSlice("ticket_ids"),
		Status:    models.OrderStatus(record.GetString("status")),
		CreatedAt: record.GetDateTime("created").Time(),
	}
}

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/internal/status"
	"tickethub/models"
)

func newGATicketType(t *testing.T, total int) *models.TicketType {
	t.Helper()
	tt, err := models.NewTicketType("event-1", "general_admission", "GA entry",
		models.MustMoney("50", "USD"), total)
	require.NoError(t, err)
	return tt
}

func TestMemoryTicketTypes_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	types := NewMemoryStore().TicketTypes()

	require.NoError(t, types.Create(ctx, newGATicketType(t, 100)))

	err := types.Create(ctx, newGATicketType(t, 50))
	assert.ErrorIs(t, err, status.ErrDuplicateTicketType)

	// same class on another event is fine
	other, err := models.NewTicketType("event-2", "general_admission", "",
		models.MustMoney("50", "USD"), 10)
	require.NoError(t, err)
	assert.NoError(t, types.Create(ctx, other))
}

func TestMemoryTicketTypes_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	types := NewMemoryStore().TicketTypes()

	tt := newGATicketType(t, 100)
	require.NoError(t, types.Create(ctx, tt))

	require.NoError(t, types.Reserve(ctx, tt.ID, 2))

	got, err := types.Get(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 98, got.AvailableQuantity)
	assert.Equal(t, 2, got.SoldQuantity)

	require.NoError(t, types.Release(ctx, tt.ID, 2))

	got, err = types.Get(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.AvailableQuantity)
	assert.Equal(t, 0, got.SoldQuantity)
}

func TestMemoryTicketTypes_ReserveInsufficient(t *testing.T) {
	ctx := context.Background()
	types := NewMemoryStore().TicketTypes()

	tt := newGATicketType(t, 3)
	require.NoError(t, types.Create(ctx, tt))

	err := types.Reserve(ctx, tt.ID, 4)
	assert.ErrorIs(t, err, status.ErrInsufficientInventory)

	// failed reserve must not touch the counters
	got, err := types.Get(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableQuantity)
	assert.Equal(t, 0, got.SoldQuantity)
}

func TestMemoryTicketTypes_ReleaseMismatch(t *testing.T) {
	ctx := context.Background()
	types := NewMemoryStore().TicketTypes()

	tt := newGATicketType(t, 10)
	require.NoError(t, types.Create(ctx, tt))
	require.NoError(t, types.Reserve(ctx, tt.ID, 1))

	err := types.Release(ctx, tt.ID, 2)
	assert.ErrorIs(t, err, status.ErrInventoryMismatch)
}

func TestMemoryTicketTypes_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	types := NewMemoryStore().TicketTypes()

	tt := newGATicketType(t, 1)
	require.NoError(t, types.Create(ctx, tt))

	const buyers = 50

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- types.Reserve(ctx, tt.ID, 1)
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			assert.ErrorIs(t, err, status.ErrInsufficientInventory)
			insufficient++
		}
	}

	assert.Equal(t, 1, ok, "exactly one buyer wins the last unit")
	assert.Equal(t, buyers-1, insufficient)

	got, err := types.Get(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableQuantity)
	assert.Equal(t, 1, got.SoldQuantity)
}

func TestMemoryTicketTypes_Resize(t *testing.T) {
	ctx := context.Background()
	types := NewMemoryStore().TicketTypes()

	tt := newGATicketType(t, 100)
	require.NoError(t, types.Create(ctx, tt))
	require.NoError(t, types.Reserve(ctx, tt.ID, 40))

	require.NoError(t, types.Resize(ctx, tt.ID, 60))

	got, err := types.Get(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.AvailableQuantity)
	assert.Equal(t, 40, got.SoldQuantity)

	// shrinking below sold is rejected
	err = types.Resize(ctx, tt.ID, 39)
	assert.ErrorIs(t, err, status.ErrInvalidResize)
}

func TestMemoryTickets_CRUD(t *testing.T) {
	ctx := context.Background()
	tickets := NewMemoryStore().Tickets()

	ticket, err := models.NewPendingTicket("event-1", "user-1", "Ada Lovelace",
		"tt-1", models.MustMoney("50", "USD"))
	require.NoError(t, err)

	require.NoError(t, tickets.Create(ctx, ticket))
	require.NotEmpty(t, ticket.ID)

	got, err := tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketPendingPayment, got.Status)
	assert.Equal(t, "Ada Lovelace", got.AttendeeName)

	require.NoError(t, got.MarkActive())
	require.NoError(t, tickets.Update(ctx, got))

	got, err = tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketActive, got.Status)

	byType, err := tickets.ListByTicketType(ctx, "tt-1")
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	require.NoError(t, tickets.Delete(ctx, ticket.ID))
	_, err = tickets.Get(ctx, ticket.ID)
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestMemoryOrders_CRUD(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryStore().Orders()

	order, err := models.NewPendingOrder("user-1", []string{"tkt-1", "tkt-2"})
	require.NoError(t, err)

	require.NoError(t, orders.Create(ctx, order))
	require.NotEmpty(t, order.ID)

	got, err := orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)
	assert.Equal(t, []string{"tkt-1", "tkt-2"}, got.TicketIDs)

	require.NoError(t, got.Complete())
	require.NoError(t, orders.Update(ctx, got))

	got, err = orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)
}

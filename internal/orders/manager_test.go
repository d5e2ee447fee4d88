package orders

import (
	"context"
	"testing"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestManager(fixedNow time.Time) (*Manager, *MemoryStore) {
	price, _ := decimal.NewFromString("99.99")
	store := NewMemoryStore(
		[]db.Product{{ID: 1, Name: "widget", Price: price, Stock: 95}},
		[]db.Hold{
			{ID: 10, ProductID: 1, Quantity: 5, Status: db.HoldActive, ExpiresAt: fixedNow.Add(time.Minute)},
			{ID: 11, ProductID: 1, Quantity: 5, Status: db.HoldExpired, ExpiresAt: fixedNow.Add(-time.Minute)},
			{ID: 12, ProductID: 1, Quantity: 5, Status: db.HoldActive, ExpiresAt: fixedNow.Add(-time.Second)},
			{ID: 13, ProductID: 1, Quantity: 5, Status: db.HoldActive, ExpiresAt: fixedNow},
		},
	)
	m := NewManager(store, NoopInvalidator{}, zerolog.Nop())
	m.WithClock(func() time.Time { return fixedNow })
	return m, store
}

func TestCreateOrderFromHold_Success(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, store := newTestManager(fixedNow)

	order, err := m.CreateOrderFromHold(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, db.OrderPending, order.Status)
	require.Equal(t, "499.95", order.TotalPrice.StringFixed(2))

	hold, ok := store.Hold(10)
	require.True(t, ok)
	require.Equal(t, db.HoldUsed, hold.Status)
}

func TestCreateOrderFromHold_RejectsNonActiveHold(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newTestManager(fixedNow)

	_, err := m.CreateOrderFromHold(context.Background(), 11)
	require.Error(t, err)
	var notActive *apperr.HoldNotActive
	require.ErrorAs(t, err, &notActive)
}

func TestCreateOrderFromHold_RejectsExpiredButStillActiveHold(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newTestManager(fixedNow)

	_, err := m.CreateOrderFromHold(context.Background(), 12)
	require.ErrorIs(t, err, apperr.ErrHoldExpired)
}

func TestCreateOrderFromHold_ExpiryAtNowCountsAsExpired(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newTestManager(fixedNow)

	_, err := m.CreateOrderFromHold(context.Background(), 13)
	require.ErrorIs(t, err, apperr.ErrHoldExpired)
}

func TestCreateOrderFromHold_UnknownHold(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newTestManager(fixedNow)

	_, err := m.CreateOrderFromHold(context.Background(), 99)
	require.ErrorIs(t, err, apperr.ErrHoldNotFound)
}

func TestCreateOrderFromHold_SecondAttemptFails(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newTestManager(fixedNow)

	_, err := m.CreateOrderFromHold(context.Background(), 10)
	require.NoError(t, err)

	_, err = m.CreateOrderFromHold(context.Background(), 10)
	require.Error(t, err)
	require.ErrorIs(t, err, apperr.ErrHoldAlreadyUsed)
}

func TestCancelOrder_ReturnsStockOnce(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, store := newTestManager(fixedNow)

	order, err := m.CreateOrderFromHold(context.Background(), 10)
	require.NoError(t, err)

	product, _ := store.Product(1)
	stockAfterHoldConsumed := product.Stock

	cancelled, err := m.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, cancelled)

	product, _ = store.Product(1)
	require.Equal(t, stockAfterHoldConsumed+order.Quantity, product.Stock)

	cancelled, err = m.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.False(t, cancelled, "cancelling a non-pending order is a no-op")

	product2, _ := store.Product(1)
	require.Equal(t, product.Stock, product2.Stock)
}

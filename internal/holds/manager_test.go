package holds

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestManager(stock int) (*Manager, *MemoryStore) {
	store := NewMemoryStore(db.Product{
		ID:    1,
		Name:  "widget",
		Price: decimal.NewFromInt(10),
		Stock: stock,
	})
	m := NewManager(store, NoopInvalidator{}, 2*time.Minute, zerolog.Nop())
	return m, store
}

func TestCreateHold_DecrementsStockAndSetsExpiry(t *testing.T) {
	m, store := newTestManager(10)
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.WithClock(func() time.Time { return fixedNow })

	hold, err := m.CreateHold(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, db.HoldActive, hold.Status)
	require.Equal(t, fixedNow.Add(2*time.Minute), hold.ExpiresAt)

	product, ok := store.Product(1)
	require.True(t, ok)
	require.Equal(t, 7, product.Stock)
}

func TestCreateHold_InsufficientStock(t *testing.T) {
	m, _ := newTestManager(2)

	_, err := m.CreateHold(context.Background(), 1, 3)
	require.Error(t, err)

	var insufficient *apperr.InsufficientStock
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 2, insufficient.Available)
}

func TestCreateHold_NoOversellUnderConcurrency(t *testing.T) {
	m, store := newTestManager(10)

	const attempts = 5
	const quantity = 3

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.CreateHold(context.Background(), 1, quantity)
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	require.Equal(t, 3, succeeded, "exactly floor(10/3)=3 holds should succeed")

	product, ok := store.Product(1)
	require.True(t, ok)
	require.GreaterOrEqual(t, product.Stock, 0)
	require.Equal(t, 1, product.Stock)
}

func TestCreateHold_ExactStockLeavesZeroThenRejects(t *testing.T) {
	m, store := newTestManager(5)

	_, err := m.CreateHold(context.Background(), 1, 5)
	require.NoError(t, err)

	product, ok := store.Product(1)
	require.True(t, ok)
	require.Equal(t, 0, product.Stock)

	_, err = m.CreateHold(context.Background(), 1, 1)
	var insufficient *apperr.InsufficientStock
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 0, insufficient.Available)
	require.Equal(t, "Insufficient stock. Available: 0", err.Error())
}

func TestCreateHold_UnknownProduct(t *testing.T) {
	m, _ := newTestManager(5)

	_, err := m.CreateHold(context.Background(), 42, 1)
	require.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestReleaseExpiredHold_ReturnsStockOnce(t *testing.T) {
	m, store := newTestManager(10)
	hold, err := m.CreateHold(context.Background(), 1, 4)
	require.NoError(t, err)

	released, err := m.ReleaseExpiredHold(context.Background(), hold.ID)
	require.NoError(t, err)
	require.True(t, released)

	product, ok := store.Product(1)
	require.True(t, ok)
	require.Equal(t, 10, product.Stock)

	// Idempotent: releasing an already-expired hold is a no-op.
	released, err = m.ReleaseExpiredHold(context.Background(), hold.ID)
	require.NoError(t, err)
	require.False(t, released)

	product, ok = store.Product(1)
	require.True(t, ok)
	require.Equal(t, 10, product.Stock)
}

func TestReleaseExpiredHold_NoopOnUsedHold(t *testing.T) {
	m, store := newTestManager(10)
	hold, err := m.CreateHold(context.Background(), 1, 4)
	require.NoError(t, err)

	err = store.WithTx(context.Background(), func(ctx context.Context, tx StoreTx) error {
		return tx.SetHoldStatus(ctx, hold.ID, db.HoldUsed)
	})
	require.NoError(t, err)

	released, err := m.ReleaseExpiredHold(context.Background(), hold.ID)
	require.NoError(t, err)
	require.False(t, released)

	product, ok := store.Product(1)
	require.True(t, ok)
	require.Equal(t, 6, product.Stock)
}

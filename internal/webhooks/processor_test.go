package webhooks

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(fixedNow time.Time) (*Processor, *MemoryStore) {
	store := NewMemoryStore(
		[]db.Product{{ID: 1, Name: "widget", Price: decimal.NewFromInt(10), Stock: 90}},
		[]db.Order{{ID: 100, HoldID: 10, ProductID: 1, Quantity: 5, TotalPrice: decimal.NewFromInt(50), Status: db.OrderPending}},
	)
	p := NewProcessor(store, NoopInvalidator{}, zerolog.Nop())
	p.WithClock(func() time.Time { return fixedNow })
	return p, store
}

func TestProcess_Success(t *testing.T) {
	p, store := newTestProcessor(time.Now())
	key := uuid.New().String()

	result, err := p.Process(context.Background(), key, 100, StatusSuccess, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.False(t, result.AlreadyProcessed)
	require.Equal(t, "Payment successful, order marked as paid", result.Message)

	order, ok := store.Order(100)
	require.True(t, ok)
	require.Equal(t, db.OrderPaid, order.Status)
	require.NotNil(t, order.PaidAt)
	require.Equal(t, 1, store.LogCount())
}

func TestProcess_FailureCancelsOrderAndReturnsStock(t *testing.T) {
	p, store := newTestProcessor(time.Now())
	key := uuid.New().String()

	result, err := p.Process(context.Background(), key, 100, StatusFailure, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Equal(t, "Payment failed, order cancelled and stock returned", result.Message)

	order, _ := store.Order(100)
	require.Equal(t, db.OrderCancelled, order.Status)

	product, _ := store.Product(1)
	require.Equal(t, 95, product.Stock)
}

func TestProcess_IdempotentReplay(t *testing.T) {
	p, store := newTestProcessor(time.Now())
	key := uuid.New().String()

	_, err := p.Process(context.Background(), key, 100, StatusSuccess, json.RawMessage(`{}`))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		result, err := p.Process(context.Background(), key, 100, StatusSuccess, json.RawMessage(`{}`))
		require.NoError(t, err)
		require.True(t, result.AlreadyProcessed)
	}

	require.Equal(t, 1, store.LogCount())
	order, _ := store.Order(100)
	require.Equal(t, db.OrderPaid, order.Status)
}

func TestProcess_ConcurrentDeliveriesOfSameKeyCommitExactlyOnce(t *testing.T) {
	p, store := newTestProcessor(time.Now())
	key := uuid.New().String()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Process(context.Background(), key, 100, StatusSuccess, json.RawMessage(`{}`))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, store.LogCount())
	order, _ := store.Order(100)
	require.Equal(t, db.OrderPaid, order.Status)
}

func TestProcess_OrderNotFound_CommitsLogWithNullOrderID(t *testing.T) {
	p, store := newTestProcessor(time.Now())
	key := uuid.New().String()

	result, err := p.Process(context.Background(), key, 999, StatusSuccess, json.RawMessage(`{}`))
	require.ErrorIs(t, err, apperr.ErrOrderNotFound)
	require.Equal(t, "Order not found - webhook may have arrived early", result.Message)
	require.Equal(t, 1, store.LogCount())

	log, ok, _ := store.LookupByKey(context.Background(), key)
	require.True(t, ok)
	require.Nil(t, log.OrderID)

	// A later retry of the same key is suppressed by the pre-check.
	result, err = p.Process(context.Background(), key, 999, StatusSuccess, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.True(t, result.AlreadyProcessed)
	require.Equal(t, 1, store.LogCount())
}

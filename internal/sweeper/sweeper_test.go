package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flashsale/checkout/internal/db"
	"github.com/flashsale/checkout/internal/holds"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	ids []int64
	err error
}

func (f *fakeScanner) ExpiredHoldIDs(ctx context.Context, before time.Time) ([]int64, error) {
	return f.ids, f.err
}

type fakeReleaser struct {
	released map[int64]bool
	failOn   map[int64]bool
	calls    []int64
}

func (f *fakeReleaser) ReleaseExpiredHold(ctx context.Context, holdID int64) (bool, error) {
	f.calls = append(f.calls, holdID)
	if f.failOn[holdID] {
		return false, errors.New("boom")
	}
	return f.released[holdID], nil
}

func TestTick_AttemptsAllScannedHoldsAndCountsReleases(t *testing.T) {
	scanner := &fakeScanner{ids: []int64{1, 2, 3}}
	releaser := &fakeReleaser{released: map[int64]bool{1: true, 2: true, 3: false}}

	s := New(scanner, releaser, time.Second, zerolog.Nop())
	released, err := s.Tick(context.Background())

	require.NoError(t, err)
	require.Equal(t, 2, released)
	require.Equal(t, []int64{1, 2, 3}, releaser.calls)
}

func TestTick_ContinuesPastPerHoldError(t *testing.T) {
	scanner := &fakeScanner{ids: []int64{1, 2, 3}}
	releaser := &fakeReleaser{
		released: map[int64]bool{1: true, 3: true},
		failOn:   map[int64]bool{2: true},
	}

	s := New(scanner, releaser, time.Second, zerolog.Nop())
	released, err := s.Tick(context.Background())

	require.NoError(t, err, "a per-hold failure must not abort the tick")
	require.Equal(t, 2, released)
	require.Equal(t, []int64{1, 2, 3}, releaser.calls, "the tick must still attempt hold 3 after hold 2 failed")
}

// End to end against the real hold manager: an overdue active hold is
// expired and its stock returned on the first tick, and later ticks that
// rescan the same hold are no-ops.
func TestTick_ReleasesOverdueHoldThroughManager(t *testing.T) {
	store := holds.NewMemoryStore(db.Product{ID: 1, Name: "widget", Price: decimal.NewFromInt(10), Stock: 10})
	manager := holds.NewManager(store, holds.NoopInvalidator{}, 2*time.Minute, zerolog.Nop())
	// Create the hold ten minutes in the past so its expiry has already passed.
	manager.WithClock(func() time.Time { return time.Now().Add(-10 * time.Minute) })

	hold, err := manager.CreateHold(context.Background(), 1, 4)
	require.NoError(t, err)

	scanner := &fakeScanner{ids: []int64{hold.ID}}
	s := New(scanner, manager, time.Second, zerolog.Nop())

	released, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, released)

	got, ok := store.Hold(hold.ID)
	require.True(t, ok)
	require.Equal(t, db.HoldExpired, got.Status)

	product, ok := store.Product(1)
	require.True(t, ok)
	require.Equal(t, 10, product.Stock)

	released, err = s.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, released, "a second tick over the same hold must not return stock twice")
}

func TestTick_NoExpiredHoldsIsANoop(t *testing.T) {
	scanner := &fakeScanner{ids: nil}
	releaser := &fakeReleaser{}

	s := New(scanner, releaser, time.Second, zerolog.Nop())
	released, err := s.Tick(context.Background())

	require.NoError(t, err)
	require.Equal(t, 0, released)
	require.Empty(t, releaser.calls)
}

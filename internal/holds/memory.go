package holds

import (
	"context"
	"sync"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
)

// MemoryStore is a pure-Go Store used only by tests. Instead of faking
// pgx's Row/Rows interfaces it holds one store-wide sync.Mutex for the
// whole of each transaction — coarser than Postgres's per-row locks, but
// it serializes every transaction, which is enough to drive the
// concurrency invariant tests in manager_test.go without a database.
type MemoryStore struct {
	mu       sync.Mutex
	products map[int64]*db.Product
	holds    map[int64]*db.Hold
	nextHold int64
}

func NewMemoryStore(products ...db.Product) *MemoryStore {
	s := &MemoryStore{
		products: make(map[int64]*db.Product),
		holds:    make(map[int64]*db.Hold),
	}
	for _, p := range products {
		cp := p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	return fn(ctx, tx)
}

// Hold returns a snapshot of a hold by id, for test assertions.
func (s *MemoryStore) Hold(id int64) (db.Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return db.Hold{}, false
	}
	return *h, true
}

// Product returns a snapshot of a product by id, for test assertions.
func (s *MemoryStore) Product(id int64) (db.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return db.Product{}, false
	}
	return *p, true
}

type memoryTx struct {
	store *MemoryStore
}

func (t *memoryTx) LockProduct(ctx context.Context, productID int64) (db.Product, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return db.Product{}, apperr.ErrProductNotFound
	}
	return *p, nil
}

func (t *memoryTx) SetProductStock(ctx context.Context, productID int64, stock int) error {
	p, ok := t.store.products[productID]
	if !ok {
		return apperr.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

func (t *memoryTx) InsertHold(ctx context.Context, h db.Hold) (db.Hold, error) {
	t.store.nextHold++
	h.ID = t.store.nextHold
	cp := h
	t.store.holds[h.ID] = &cp
	return cp, nil
}

func (t *memoryTx) LockHold(ctx context.Context, holdID int64) (db.Hold, error) {
	h, ok := t.store.holds[holdID]
	if !ok {
		return db.Hold{}, apperr.ErrHoldNotFound
	}
	return *h, nil
}

func (t *memoryTx) SetHoldStatus(ctx context.Context, holdID int64, status db.HoldStatus) error {
	h, ok := t.store.holds[holdID]
	if !ok {
		return apperr.ErrHoldNotFound
	}
	h.Status = status
	return nil
}

// NoopInvalidator satisfies Invalidator without touching a cache.
type NoopInvalidator struct{}

func (NoopInvalidator) Forget(ctx context.Context, productID int64) error { return nil }

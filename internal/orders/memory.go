package orders

import (
	"context"
	"sync"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
)

// MemoryStore is a pure-Go Store used only by tests, sharing holds'
// approach of one global mutex for the lifetime of a transaction rather
// than faking pgx row types.
type MemoryStore struct {
	mu        sync.Mutex
	products  map[int64]*db.Product
	holds     map[int64]*db.Hold
	orders    map[int64]*db.Order
	byHoldID  map[int64]int64
	nextOrder int64
}

func NewMemoryStore(products []db.Product, holds []db.Hold) *MemoryStore {
	s := &MemoryStore{
		products: make(map[int64]*db.Product),
		holds:    make(map[int64]*db.Hold),
		orders:   make(map[int64]*db.Order),
		byHoldID: make(map[int64]int64),
	}
	for _, p := range products {
		cp := p
		s.products[p.ID] = &cp
	}
	for _, h := range holds {
		cp := h
		s.holds[h.ID] = &cp
	}
	return s
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &memoryTx{store: s})
}

func (s *MemoryStore) Order(id int64) (db.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return db.Order{}, false
	}
	return *o, true
}

func (s *MemoryStore) Hold(id int64) (db.Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return db.Hold{}, false
	}
	return *h, true
}

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

func (t *memoryTx) InsertOrder(ctx context.Context, o db.Order) (db.Order, error) {
	if _, exists := t.store.byHoldID[o.HoldID]; exists {
		return db.Order{}, apperr.ErrHoldAlreadyUsed
	}
	t.store.nextOrder++
	o.ID = t.store.nextOrder
	cp := o
	t.store.orders[o.ID] = &cp
	t.store.byHoldID[o.HoldID] = o.ID
	return cp, nil
}

func (t *memoryTx) LockOrder(ctx context.Context, orderID int64) (db.Order, error) {
	o, ok := t.store.orders[orderID]
	if !ok {
		return db.Order{}, apperr.ErrOrderNotFound
	}
	return *o, nil
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

func (t *memoryTx) SetOrderStatus(ctx context.Context, orderID int64, status db.OrderStatus, paidAt *time.Time) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return apperr.ErrOrderNotFound
	}
	o.Status = status
	o.PaidAt = paidAt
	return nil
}

// NoopInvalidator satisfies Invalidator without touching a cache.
type NoopInvalidator struct{}

func (NoopInvalidator) Forget(ctx context.Context, productID int64) error { return nil }

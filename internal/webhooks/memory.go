package webhooks

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
	mu       sync.Mutex
	products map[int64]*db.Product
	orders   map[int64]*db.Order
	logs     map[string]*db.WebhookLog
	nextLog  int64
}

func NewMemoryStore(products []db.Product, orders []db.Order) *MemoryStore {
	s := &MemoryStore{
		products: make(map[int64]*db.Product),
		orders:   make(map[int64]*db.Order),
		logs:     make(map[string]*db.WebhookLog),
	}
	for _, p := range products {
		cp := p
		s.products[p.ID] = &cp
	}
	for _, o := range orders {
		cp := o
		s.orders[o.ID] = &cp
	}
	return s
}

func (s *MemoryStore) LookupByKey(ctx context.Context, key string) (db.WebhookLog, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[key]
	if !ok {
		return db.WebhookLog{}, false, nil
	}
	return *l, true, nil
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

func (s *MemoryStore) Product(id int64) (db.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return db.Product{}, false
	}
	return *p, true
}

func (s *MemoryStore) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

type memoryTx struct {
	store *MemoryStore
}

func (t *memoryTx) InsertWebhookLog(ctx context.Context, w db.WebhookLog) (db.WebhookLog, error) {
	if _, exists := t.store.logs[w.IdempotencyKey]; exists {
		return db.WebhookLog{}, apperr.ErrWebhookAlreadyProcessed
	}
	t.store.nextLog++
	w.ID = t.store.nextLog
	cp := w
	t.store.logs[w.IdempotencyKey] = &cp
	return cp, nil
}

func (t *memoryTx) GetOrder(ctx context.Context, orderID int64) (db.Order, bool, error) {
	o, ok := t.store.orders[orderID]
	if !ok {
		return db.Order{}, false, nil
	}
	return *o, true, nil
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

package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boutique/internal/domain"
)

// MemoryStore объединённое in-memory хранилище: каталог, пользователи, заказы
type MemoryStore struct {
	mu         sync.RWMutex
	products   []domain.Product
	prodIdx    map[string]int
	categories []domain.Category
	usersByID  map[string]domain.User
	userIdx    map[string]string // lowercased email -> id
	ordersByID map[string]domain.Order
	orderSeq   []string // insertion order
}

func NewMemoryStore(products []domain.Product, categories []domain.Category) *MemoryStore {
	m := &MemoryStore{
		products:   make([]domain.Product, len(products)),
		prodIdx:    make(map[string]int, len(products)),
		categories: make([]domain.Category, len(categories)),
		usersByID:  make(map[string]domain.User),
		userIdx:    make(map[string]string),
		ordersByID: make(map[string]domain.Order),
	}
	copy(m.products, products)
	copy(m.categories, categories)
	for i, p := range m.products {
		m.prodIdx[p.ID] = i
	}
	return m
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ CatalogRepository = (*MemoryStore)(nil)

// CatalogRepository implementation
func (m *MemoryStore) List(ctx context.Context) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	i, ok := m.prodIdx[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := m.products[i]
	return &cp, nil
}

func (m *MemoryStore) UpdateStock(ctx context.Context, id string, stock int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	i, ok := m.prodIdx[id]
	if !ok {
		return ErrNotFound
	}
	m.products[i].Stock = stock
	return nil
}

func (m *MemoryStore) Categories(ctx context.Context) ([]domain.Category, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *MemoryStore) PriceBounds(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	if len(m.products) == 0 {
		return decimal.Zero, decimal.Zero, nil
	}
	min := m.products[0].Price
	max := m.products[0].Price
	for _, p := range m.products[1:] {
		if p.Price.LessThan(min) {
			min = p.Price
		}
		if p.Price.GreaterThan(max) {
			max = p.Price
		}
	}
	return min, max, nil
}

// UserRepository implementation on wrapper type
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	key := strings.ToLower(u.Email)
	if _, exists := mu.store.userIdx[key]; exists {
		return ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	mu.store.usersByID[u.ID] = *u
	mu.store.userIdx[key] = u.ID
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	id, ok := mu.store.userIdx[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := mu.store.usersByID[id]
	return &cp, nil
}

func (mu *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.usersByID[u.ID]; !ok {
		return ErrNotFound
	}
	mu.store.usersByID[u.ID] = *u
	return nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	mo.store.ordersByID[o.ID] = *o
	mo.store.orderSeq = append(mo.store.orderSeq, o.ID)
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (mo *MemoryOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, id := range mo.store.orderSeq {
		if o := mo.store.ordersByID[id]; o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	mo.store.ordersByID[o.ID] = *o
	return nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}

// MemoryKV key-value хранилище без персистентности (тесты и дефолт)
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

var _ KVStore = (*MemoryKV)(nil)

func (kv *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (kv *MemoryKV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

func (kv *MemoryKV) Delete(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

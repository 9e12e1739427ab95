package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"boutique/internal/domain"
)

// ErrNotFound возвращается, когда сущность или ключ не найдены
var ErrNotFound = errors.New("not found")

// ErrConflict возвращается при нарушении уникальности (email уже занят)
var ErrConflict = errors.New("already exists")

// CatalogRepository доступ к каталогу. Список товаров фиксируется при
// запуске; List возвращает товары в исходном порядке каталога.
// Изменяется только остаток (UpdateStock).
type CatalogRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateStock(ctx context.Context, id string, stock int64) error
	Categories(ctx context.Context) ([]domain.Category, error)
	PriceBounds(ctx context.Context) (min, max decimal.Decimal, err error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
}

// KVStore key-value хранилище для корзины и избранного.
// Get возвращает ErrNotFound для отсутствующего ключа.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

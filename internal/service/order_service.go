package service

import (
	"context"
	"errors"

	"boutique/internal/domain"
	"boutique/internal/repository"
)

// OrderService оформление заказов поверх корзины: снимок позиций,
// атомарное списание остатков, очистка корзины
type OrderService struct {
	catalog repository.CatalogRepository
	orders  repository.OrderRepository
	cart    *CartService
	tx      repository.TxManager
}

func NewOrderService(catalog repository.CatalogRepository, orders repository.OrderRepository, cart *CartService, tx repository.TxManager) *OrderService {
	return &OrderService{catalog: catalog, orders: orders, cart: cart, tx: tx}
}

var (
	ErrNotEnoughStock = errors.New("not enough stock")
	ErrInvalidState   = errors.New("invalid state")
)

func validAddress(a domain.Address) bool {
	return a.Name != "" && a.Street != "" && a.City != "" && a.ZipCode != "" && a.Country != ""
}

// Checkout снимает текущую корзину пользователя в заказ. Позиции
// фиксируются по эффективной цене, итоги совпадают со сводкой корзины.
// Остатки проверяются и списываются атомарно; при успехе корзина очищается.
func (s *OrderService) Checkout(ctx context.Context, userID string, addr domain.Address, paymentMethod string) (*domain.Order, error) {
	if userID == "" || paymentMethod == "" || !validAddress(addr) {
		return nil, ErrInvalidInput
	}
	sum, err := s.cart.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sum.Items) == 0 {
		return nil, ErrInvalidInput
	}

	lines := make([]domain.OrderLine, 0, len(sum.Items))
	// одинаковый товар в разных вариантах списывается одним числом
	need := make(map[string]int64)
	for _, it := range sum.Items {
		lines = append(lines, domain.OrderLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
		need[it.Product.ID] += it.Quantity
	}

	var created *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// load and check stock, then apply to avoid partial state
		stocks := make(map[string]int64, len(need))
		for id, n := range need {
			p, err := s.catalog.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if p.Stock < n {
				return ErrNotEnoughStock
			}
			stocks[id] = p.Stock - n
		}
		for id, stock := range stocks {
			if err := s.catalog.UpdateStock(ctx, id, stock); err != nil {
				return err
			}
		}

		o := domain.Order{
			UserID:          userID,
			Items:           lines,
			Subtotal:        sum.Subtotal,
			Shipping:        sum.Shipping,
			Tax:             sum.Tax,
			Total:           sum.Total,
			Status:          domain.OrderStatusPending,
			ShippingAddress: addr,
			PaymentMethod:   paymentMethod,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.cart.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return created, nil
}

// Get возвращает заказ пользователя; чужой заказ неотличим от отсутствующего
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" || orderID == "" {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

// List возвращает заказы пользователя в порядке создания
func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.ListByUser(ctx, userID)
}

// Cancel отменяет pending/processing заказ и возвращает остатки на склад
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" || orderID == "" {
		return nil, ErrInvalidInput
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return repository.ErrNotFound
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusProcessing {
			return ErrInvalidState
		}
		// return stock
		restore := make(map[string]int64)
		for _, it := range o.Items {
			restore[it.ProductID] += it.Quantity
		}
		for id, n := range restore {
			p, err := s.catalog.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if err := s.catalog.UpdateStock(ctx, id, p.Stock+n); err != nil {
				return err
			}
		}
		o.Status = domain.OrderStatusCancelled
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

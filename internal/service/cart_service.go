package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"boutique/internal/domain"
	"boutique/internal/repository"
)

// CheckoutPolicy пороги доставки и налога. Прокидывается через конфиг,
// дефолты соответствуют историческому поведению витрины.
type CheckoutPolicy struct {
	FreeShippingOver decimal.Decimal
	FlatShipping     decimal.Decimal
	TaxRate          decimal.Decimal
}

func DefaultCheckoutPolicy() CheckoutPolicy {
	return CheckoutPolicy{
		FreeShippingOver: decimal.NewFromInt(100),
		FlatShipping:     decimal.NewFromInt(10),
		TaxRate:          decimal.RequireFromString("0.1"),
	}
}

// CartItemView позиция корзины вместе с товаром и эффективной ценой
type CartItemView struct {
	Product   domain.Product  `json:"product"`
	Quantity  int64           `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSummary итоги корзины. Суммы не округляются — округление до центов
// остаётся на стороне представления.
type CartSummary struct {
	Items    []CartItemView  `json:"items"`
	Count    int64           `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CartService корзина. Позиции держатся в памяти по владельцу
// (id пользователя либо гостевой сессии) и после каждой мутации
// синхронно пишутся в KV-хранилище под ключом cart_{owner}.
// Позиция хранит ссылку на товар каталога, не копию: цена считается
// по текущему состоянию каталога.
type CartService struct {
	mu      sync.Mutex
	catalog repository.CatalogRepository
	store   repository.KVStore
	policy  CheckoutPolicy
	log     *slog.Logger
	carts   map[string][]domain.CartLine
	loaded  map[string]bool
}

func NewCartService(catalog repository.CatalogRepository, store repository.KVStore, policy CheckoutPolicy, log *slog.Logger) *CartService {
	return &CartService{
		catalog: catalog,
		store:   store,
		policy:  policy,
		log:     log,
		carts:   make(map[string][]domain.CartLine),
		loaded:  make(map[string]bool),
	}
}

func cartKey(owner string) string { return "cart_" + owner }

// load подтягивает сохранённую корзину при первом обращении владельца.
// Повреждённое значение отбрасывается: корзина стартует пустой.
func (s *CartService) load(ctx context.Context, owner string) {
	if s.loaded[owner] {
		return
	}
	s.loaded[owner] = true
	raw, err := s.store.Get(ctx, cartKey(owner))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("cart load failed, starting empty", "owner", owner, "err", err)
		}
		return
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.log.Warn("cart state corrupt, starting empty", "owner", owner, "err", err)
		return
	}
	kept := lines[:0]
	for _, ln := range lines {
		if ln.Quantity < 1 {
			continue
		}
		// позиции с исчезнувшим товаром отбрасываются
		if _, err := s.catalog.GetByID(ctx, ln.ProductID); err != nil {
			continue
		}
		kept = append(kept, ln)
	}
	s.carts[owner] = kept
}

// persist write-through; ошибка записи не фатальна
func (s *CartService) persist(ctx context.Context, owner string) {
	raw, err := json.Marshal(s.carts[owner])
	if err != nil {
		s.log.Warn("cart marshal failed", "owner", owner, "err", err)
		return
	}
	if err := s.store.Set(ctx, cartKey(owner), string(raw)); err != nil {
		s.log.Warn("cart persist failed", "owner", owner, "err", err)
	}
}

// Add добавляет товар. Существующая позиция с тем же ключом
// (productID, size, color) инкрементируется, новая встаёт в конец.
// Остаток при добавлении не проверяется.
func (s *CartService) Add(ctx context.Context, owner, productID string, quantity int64, size, color string) error {
	if owner == "" || productID == "" {
		return ErrInvalidInput
	}
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx, owner)
	lines := s.carts[owner]
	for i, ln := range lines {
		if ln.ProductID == productID && ln.Size == size && ln.Color == color {
			lines[i].Quantity += quantity
			s.persist(ctx, owner)
			return nil
		}
	}
	s.carts[owner] = append(lines, domain.CartLine{
		ProductID: productID,
		Size:      size,
		Color:     color,
		Quantity:  quantity,
	})
	s.persist(ctx, owner)
	return nil
}

// UpdateQuantity устанавливает количество на всех позициях с данным
// productID; количество <= 0 означает удаление.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, productID string, quantity int64) error {
	if owner == "" || productID == "" {
		return ErrInvalidInput
	}
	if quantity <= 0 {
		return s.Remove(ctx, owner, productID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx, owner)
	for i, ln := range s.carts[owner] {
		if ln.ProductID == productID {
			s.carts[owner][i].Quantity = quantity
		}
	}
	s.persist(ctx, owner)
	return nil
}

// Remove удаляет все позиции с данным productID, независимо от размера и
// цвета.
func (s *CartService) Remove(ctx context.Context, owner, productID string) error {
	if owner == "" || productID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx, owner)
	lines := s.carts[owner]
	kept := lines[:0]
	for _, ln := range lines {
		if ln.ProductID != productID {
			kept = append(kept, ln)
		}
	}
	s.carts[owner] = kept
	s.persist(ctx, owner)
	return nil
}

// Clear опустошает корзину
func (s *CartService) Clear(ctx context.Context, owner string) error {
	if owner == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded[owner] = true
	s.carts[owner] = nil
	s.persist(ctx, owner)
	return nil
}

// Summary собирает позиции с товарами и считает итоги:
// subtotal по эффективным ценам, доставка по порогу, налог по ставке.
func (s *CartService) Summary(ctx context.Context, owner string) (*CartSummary, error) {
	if owner == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx, owner)

	sum := &CartSummary{
		Items:    make([]CartItemView, 0, len(s.carts[owner])),
		Subtotal: decimal.Zero,
	}
	for _, ln := range s.carts[owner] {
		p, err := s.catalog.GetByID(ctx, ln.ProductID)
		if err != nil {
			continue
		}
		unit := p.EffectivePrice()
		lineTotal := unit.Mul(decimal.NewFromInt(ln.Quantity))
		sum.Items = append(sum.Items, CartItemView{
			Product:   *p,
			Quantity:  ln.Quantity,
			Size:      ln.Size,
			Color:     ln.Color,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
		sum.Count += ln.Quantity
		sum.Subtotal = sum.Subtotal.Add(lineTotal)
	}
	if sum.Subtotal.GreaterThan(s.policy.FreeShippingOver) {
		sum.Shipping = decimal.Zero
	} else {
		sum.Shipping = s.policy.FlatShipping
	}
	sum.Tax = sum.Subtotal.Mul(s.policy.TaxRate)
	sum.Total = sum.Subtotal.Add(sum.Shipping).Add(sum.Tax)
	return sum, nil
}

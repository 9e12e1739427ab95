package service

import (
	"context"
	"log/slog"
	"testing"

	"boutique/internal/domain"
	"boutique/internal/repository"
)

func setupOrders(t *testing.T) (*CartService, *OrderService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore([]domain.Product{
		{ID: "p1", Name: "Tee", Price: dec(t, "10"), Stock: 5, Sizes: []string{"S", "M"}},
		{ID: "p2", Name: "Shirt", Price: dec(t, "20"), Discount: 10, Stock: 2},
	}, nil)
	kv := repository.NewMemoryKV()
	cart := NewCartService(store, kv, DefaultCheckoutPolicy(), slog.Default())
	orders := NewOrderService(store, repository.NewMemoryOrders(store), cart, repository.NewMemoryTx(store))
	return cart, orders, store
}

var testAddr = domain.Address{
	Name:    "Jane Doe",
	Street:  "1 Main St",
	City:    "Springfield",
	ZipCode: "12345",
	Country: "US",
}

func TestCheckoutAndCancel(t *testing.T) {
	ctx := context.Background()
	cart, orders, store := setupOrders(t)

	_ = cart.Add(ctx, "u1", "p1", 3, "M", "")
	_ = cart.Add(ctx, "u1", "p2", 2, "", "")

	o, err := orders.Checkout(ctx, "u1", testAddr, "card")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.Status != domain.OrderStatusPending {
		t.Fatalf("status: want pending, got %s", o.Status)
	}
	// subtotal = 3*10 + 2*18 = 66; shipping 10; tax 6.6; total 82.6
	if !o.Subtotal.Equal(dec(t, "66")) {
		t.Fatalf("subtotal: want 66, got %s", o.Subtotal)
	}
	if !o.Shipping.Equal(dec(t, "10")) || !o.Tax.Equal(dec(t, "6.6")) || !o.Total.Equal(dec(t, "82.6")) {
		t.Fatalf("totals: %s %s %s", o.Shipping, o.Tax, o.Total)
	}

	// stocks decreased
	p1, _ := store.GetByID(ctx, "p1")
	p2, _ := store.GetByID(ctx, "p2")
	if p1.Stock != 2 || p2.Stock != 0 {
		t.Fatalf("stock not decreased: %d %d", p1.Stock, p2.Stock)
	}

	// cart cleared
	sum, _ := cart.Summary(ctx, "u1")
	if len(sum.Items) != 0 {
		t.Fatalf("cart must be cleared after checkout")
	}

	// cancel restores stock
	o2, err := orders.Cancel(ctx, "u1", o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o2.Status != domain.OrderStatusCancelled {
		t.Fatalf("status: want cancelled, got %s", o2.Status)
	}
	p1, _ = store.GetByID(ctx, "p1")
	p2, _ = store.GetByID(ctx, "p2")
	if p1.Stock != 5 || p2.Stock != 2 {
		t.Fatalf("stock not restored: %d %d", p1.Stock, p2.Stock)
	}

	// повторная отмена невозможна
	if _, err := orders.Cancel(ctx, "u1", o.ID); err != ErrInvalidState {
		t.Fatalf("double cancel: want ErrInvalidState, got %v", err)
	}
}

func TestCheckout_NotEnoughStock(t *testing.T) {
	ctx := context.Background()
	cart, orders, store := setupOrders(t)

	_ = cart.Add(ctx, "u1", "p2", 3, "", "") // stock 2
	if _, err := orders.Checkout(ctx, "u1", testAddr, "card"); err != ErrNotEnoughStock {
		t.Fatalf("want ErrNotEnoughStock, got %v", err)
	}
	// ничего не списано, корзина не тронута
	p2, _ := store.GetByID(ctx, "p2")
	if p2.Stock != 2 {
		t.Fatalf("stock must be unchanged, got %d", p2.Stock)
	}
	sum, _ := cart.Summary(ctx, "u1")
	if len(sum.Items) != 1 {
		t.Fatalf("cart must be kept on failed checkout")
	}
}

func TestCheckout_VariantsShareStock(t *testing.T) {
	ctx := context.Background()
	cart, orders, _ := setupOrders(t)

	// два варианта одного товара списываются суммарно: 3+3 > 5
	_ = cart.Add(ctx, "u1", "p1", 3, "S", "")
	_ = cart.Add(ctx, "u1", "p1", 3, "M", "")
	if _, err := orders.Checkout(ctx, "u1", testAddr, "card"); err != ErrNotEnoughStock {
		t.Fatalf("want ErrNotEnoughStock, got %v", err)
	}
}

func TestCheckout_EmptyCartOrBadInput(t *testing.T) {
	ctx := context.Background()
	cart, orders, _ := setupOrders(t)

	if _, err := orders.Checkout(ctx, "u1", testAddr, "card"); err != ErrInvalidInput {
		t.Fatalf("empty cart: want ErrInvalidInput, got %v", err)
	}
	_ = cart.Add(ctx, "u1", "p1", 1, "", "")
	if _, err := orders.Checkout(ctx, "u1", domain.Address{}, "card"); err != ErrInvalidInput {
		t.Fatalf("empty address: want ErrInvalidInput, got %v", err)
	}
	if _, err := orders.Checkout(ctx, "u1", testAddr, ""); err != ErrInvalidInput {
		t.Fatalf("empty payment: want ErrInvalidInput, got %v", err)
	}
}

func TestOrders_Ownership(t *testing.T) {
	ctx := context.Background()
	cart, orders, _ := setupOrders(t)

	_ = cart.Add(ctx, "u1", "p1", 1, "", "")
	o, err := orders.Checkout(ctx, "u1", testAddr, "card")
	if err != nil {
		t.Fatal(err)
	}

	// чужой заказ неотличим от отсутствующего
	if _, err := orders.Get(ctx, "u2", o.ID); err != repository.ErrNotFound {
		t.Fatalf("foreign get: want ErrNotFound, got %v", err)
	}
	if _, err := orders.Cancel(ctx, "u2", o.ID); err != repository.ErrNotFound {
		t.Fatalf("foreign cancel: want ErrNotFound, got %v", err)
	}

	list, err := orders.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	list2, _ := orders.List(ctx, "u2")
	if len(list2) != 0 {
		t.Fatalf("u2 must have no orders")
	}
}

func TestOrderLines_SnapshotEffectivePrice(t *testing.T) {
	ctx := context.Background()
	cart, orders, _ := setupOrders(t)

	_ = cart.Add(ctx, "u1", "p2", 1, "", "") // 20 со скидкой 10% -> 18
	o, err := orders.Checkout(ctx, "u1", testAddr, "card")
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) != 1 || !o.Items[0].UnitPrice.Equal(dec(t, "18")) {
		t.Fatalf("unit price snapshot: %+v", o.Items)
	}
}

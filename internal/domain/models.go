package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар каталога. Атрибуты неизменяемы в рамках сессии,
// кроме Stock — он корректируется при оформлении и отмене заказов.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images,omitempty"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags,omitempty"`
	Stock       int64           `json:"stock"`
	Discount    int             `json:"discount,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
	Featured    bool            `json:"featured,omitempty"`
	New         bool            `json:"new,omitempty"`
	BestSeller  bool            `json:"bestSeller,omitempty"`
}

// EffectivePrice цена с учётом активной процентной скидки
func (p Product) EffectivePrice() decimal.Decimal {
	if p.Discount <= 0 {
		return p.Price
	}
	factor := decimal.NewFromInt(100 - int64(p.Discount)).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor)
}

func (p Product) HasSizes() bool  { return len(p.Sizes) > 0 }
func (p Product) HasColors() bool { return len(p.Colors) > 0 }

// Category категория каталога
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Slug        string `json:"slug"`
}

// User учётная запись покупателя
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash []byte `json:"-"`
}

// CartLine позиция корзины. Ключ — (ProductID, Size, Color),
// Quantity всегда >= 1: обнуление количества означает удаление позиции.
type CartLine struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderLine снимок позиции на момент оформления. UnitPrice — эффективная
// цена (со скидкой), зафиксированная при создании заказа.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Address адрес доставки
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

// Order сущность заказа
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderLine     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

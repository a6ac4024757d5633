package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

// IsTerminal reports whether no further transition is accepted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   string          `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"` // Price at the time of order
}

// Subtotal is UnitPrice multiplied by Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order.
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string          `json:"user_id" gorm:"type:varchar(64);index;not null"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(16);index;not null"`
	PaymentMethod  string          `json:"payment_method,omitempty" gorm:"type:varchar(32)"`
	GatewayOrderID *int64          `json:"gateway_order_id,omitempty" gorm:"index"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ItemsTotal recomputes the sum of all item subtotals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

package types

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is immutable once created except for status transitions. Line
// items snapshot the unit price at the moment of purchase.
type Order struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID   `gorm:"type:uuid;index;not null" json:"user_id"`
	User       *User       `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;references:ID" json:"items"`
	TotalCents int64       `gorm:"not null;column:total_cents" json:"total_cents"`
	Status     OrderStatus `gorm:"not null;default:pending;column:status" json:"status"`
	CreatedAt  time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string {
	return "order"
}

type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Product        *Product  `gorm:"foreignKey:ProductID;references:ID" json:"-"`
	Quantity       int       `gorm:"not null;column:quantity" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null;column:unit_price_cents" json:"unit_price_cents"`
}

func (OrderItem) TableName() string {
	return "order_item"
}

func (oi *OrderItem) TotalCents() int64 {
	return oi.UnitPriceCents * int64(oi.Quantity)
}

// NewOrderFromCart builds an order whose line items mirror the given cart
// items, snapshotting the current unit price of each product.
func NewOrderFromCart(userID uuid.UUID, items []CartItem, priceByProduct map[uuid.UUID]int64) *Order {
	orderID := uuid.New()
	order := &Order{
		ID:     orderID,
		UserID: userID,
		Status: OrderStatusPending,
	}
	for _, it := range items {
		line := OrderItem{
			ID:             uuid.New(),
			OrderID:        orderID,
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: priceByProduct[it.ProductID],
		}
		order.Items = append(order.Items, line)
		order.TotalCents += line.TotalCents()
	}
	return order
}

func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPending {
		return &InvalidTransitionError{From: o.Status, To: OrderStatusPaid}
	}
	o.Status = OrderStatusPaid
	return nil
}

func (o *Order) MarkShipped() error {
	if o.Status != OrderStatusPaid {
		return &InvalidTransitionError{From: o.Status, To: OrderStatusShipped}
	}
	o.Status = OrderStatusShipped
	return nil
}

func (o *Order) MarkDelivered() error {
	if o.Status != OrderStatusShipped {
		return &InvalidTransitionError{From: o.Status, To: OrderStatusDelivered}
	}
	o.Status = OrderStatusDelivered
	return nil
}

// Cancel is allowed until the order ships. A cancelled order cannot be
// cancelled again; its units were already returned to stock.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusPending && o.Status != OrderStatusPaid {
		return &InvalidTransitionError{From: o.Status, To: OrderStatusCancelled}
	}
	o.Status = OrderStatusCancelled
	return nil
}

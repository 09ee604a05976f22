package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPending is the status of every order placed by checkout.
const OrderPending = "pending"

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   string          `json:"-" gorm:"type:varchar(36);index"`
	ProductID string          `json:"productId" gorm:"type:varchar(36)"`
	Size      string          `json:"size" gorm:"type:varchar(16)"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"` // Price at the time of purchase
}

// Order is a completed checkout, shown to the buyer as a purchase.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string          `json:"userId" gorm:"type:varchar(36);index"`
	Items       []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2)"`
	Status      string          `json:"status" gorm:"type:varchar(16)"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

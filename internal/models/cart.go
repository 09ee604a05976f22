package models

import "time"

// CartItem is one line of a user's cart.
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"-" gorm:"type:varchar(36);uniqueIndex:ux_cart_line"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);uniqueIndex:ux_cart_line"`
	Size      string    `json:"size" gorm:"type:varchar(16);uniqueIndex:ux_cart_line"`
	Quantity  int       `json:"quantity"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `json:"createdAt"`
}

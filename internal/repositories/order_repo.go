package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for purchase data access.
type OrderRepository interface {
	ListByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	// PlaceOrder empties the buyer's cart, takes each item's quantity out of
	// stock and stores the order, all or nothing. ErrCartChanged is returned
	// when the cart no longer holds one line per item.
	PlaceOrder(order *models.Order) error
}

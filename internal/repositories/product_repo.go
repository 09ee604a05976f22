package repositories

import (
	"time"

	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	// ListOnSale returns a seller's products whose sell-by date is not before day.
	ListOnSale(sellerID string, day time.Time) ([]models.Product, error)
}

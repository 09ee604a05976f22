package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// ListByUser returns the user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID returns an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// PlaceOrder runs the checkout in a single transaction. order.Items must hold
// one item per cart line; the cart rows are claimed first so that a second
// checkout of the same cart fails with ErrCartChanged instead of ordering twice.
func (r *GORMOrderRepository) PlaceOrder(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to clear cart for user %s: %w", order.UserID, res.Error)
		}
		if res.RowsAffected != int64(len(order.Items)) {
			return fmt.Errorf("user %s: %d cart lines, %d ordered: %w", order.UserID, res.RowsAffected, len(order.Items), ErrCartChanged)
		}

		for _, item := range order.Items {
			res := tx.Model(&models.ProductSize{}).
				Where("product_id = ? AND size = ? AND stock >= ?", item.ProductID, item.Size, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock for product %s: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s size %q: %w", item.ProductID, item.Size, ErrInsufficientStock)
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

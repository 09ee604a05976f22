package repositories

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func (r *GORMProductRepository) withChildren() *gorm.DB {
	return r.db.
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

// GetAll retrieves all products, newest first.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.withChildren().Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product with its sizes and images.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.withChildren().First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create stores a product together with its sizes and images.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// ListOnSale returns the seller's products still within their sell-by date.
func (r *GORMProductRepository) ListOnSale(sellerID string, day time.Time) ([]models.Product, error) {
	var products []models.Product
	err := r.withChildren().
		Where("seller_id = ? AND sell_by_date >= ?", sellerID, day).
		Order("register_date DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products on sale for seller %s: %w", sellerID, err)
	}
	return products, nil
}

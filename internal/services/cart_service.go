package services

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService manages the buyer's cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the user's cart lines.
func (s *CartService) GetCart(userID string) ([]models.CartItem, error) {
	return s.cartRepo.ListByUser(userID)
}

// AddItem puts quantity units of a product size in the user's cart. The size
// must exist and hold enough stock at the time of adding.
func (s *CartService) AddItem(userID, productID, size string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	stock, ok := product.StockFor(size)
	if !ok {
		return fmt.Errorf("%w: %q for product %s", ErrUnknownSize, size, productID)
	}
	if stock < quantity {
		return fmt.Errorf("%w: requested %d, available %d", repositories.ErrInsufficientStock, quantity, stock)
	}
	return s.cartRepo.AddItem(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
	})
}

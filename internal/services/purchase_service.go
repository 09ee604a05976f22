package services

import (
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseService turns carts into orders and lists past purchases.
type PurchaseService struct {
	orderRepo   repositories.OrderRepository
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
	logger      *zap.Logger
}

// NewPurchaseService creates a new PurchaseService. events and logger may be nil.
func NewPurchaseService(orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, events EventPublisher, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		events:      events,
		logger:      logger,
	}
}

// ListPurchases returns the user's orders.
func (s *PurchaseService) ListPurchases(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

// Checkout buys everything in the user's cart at current prices.
func (s *PurchaseService) Checkout(userID string) (*models.Order, error) {
	lines, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s in cart: %w", line.ProductID, err)
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Status:      models.OrderPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.orderRepo.PlaceOrder(order); err != nil {
		return nil, err
	}

	if s.events != nil {
		event := map[string]interface{}{
			"orderId": order.ID,
			"userId":  order.UserID,
			"status":  order.Status,
			"total":   order.TotalAmount.String(),
		}
		if err := s.events.PublishJSON(rabbitmq.PurchaseCreated, event); err != nil {
			s.logger.Warn("failed to publish purchase event", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return order, nil
}

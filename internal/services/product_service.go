package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/images"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/storage"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo    repositories.ProductRepository
	storage storage.Storage
	events  EventPublisher
	logger  *zap.Logger
	now     func() time.Time
}

// NewProductService creates a new ProductService. events and logger may be nil.
func NewProductService(repo repositories.ProductRepository, store storage.Storage, events EventPublisher, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		repo:    repo,
		storage: store,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CurrentSales lists the seller's products whose sell-by date has not passed.
func (s *ProductService) CurrentSales(sellerID string) ([]models.Product, error) {
	y, m, d := s.now().UTC().Date()
	return s.repo.ListOnSale(sellerID, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// RegisterProduct checks a submitted draft against the same rules the form
// applies, stores its images and saves the product. sellerID may be empty.
func (s *ProductService) RegisterProduct(ctx context.Context, sellerID string, p catalog.Payload) (*models.Product, error) {
	draft, err := catalog.FromPayload(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}
	if problems := draft.Problems(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: missing or invalid %s", ErrInvalidProduct, strings.Join(problems, ", "))
	}
	price, err := decimal.NewFromString(strings.TrimSpace(draft.Price))
	if err != nil {
		return nil, fmt.Errorf("%w: price: %w", ErrInvalidProduct, err)
	}

	decoded := make([][]byte, 0, len(p.Images))
	mediaTypes := make([]string, 0, len(p.Images))
	for i, img := range draft.Images() {
		data, mediaType, err := images.Decode(img)
		if err != nil {
			return nil, fmt.Errorf("%w: image %d: %w", ErrInvalidProduct, i, err)
		}
		decoded = append(decoded, data)
		mediaTypes = append(mediaTypes, mediaType)
	}

	product := &models.Product{
		SellerID:     sellerID,
		Name:         draft.Name,
		Description:  draft.Description,
		Gender:       string(draft.Gender),
		Category:     string(draft.Category()),
		Price:        price,
		RegisterDate: draft.RegisterDate,
		SellByDate:   draft.SellByDate,
	}
	for _, e := range draft.Sizes().Entries() {
		product.Sizes = append(product.Sizes, models.ProductSize{Size: e.Size, Stock: e.Stock})
	}

	for i, data := range decoded {
		res, err := s.storage.Put(ctx, bytes.NewReader(data), storage.PutInput{ContentType: mediaTypes[i], Size: int64(len(data))})
		if err != nil {
			s.discardImages(ctx, product.Images)
			return nil, fmt.Errorf("failed to store image %d: %w", i, err)
		}
		product.Images = append(product.Images, models.ProductImage{Position: i, Key: res.Key, URL: res.URL})
	}

	if err := s.repo.Create(product); err != nil {
		s.discardImages(ctx, product.Images)
		return nil, err
	}

	s.publish(rabbitmq.ProductRegistered, map[string]interface{}{
		"productId": product.ID,
		"sellerId":  product.SellerID,
		"category":  product.Category,
		"price":     product.Price.String(),
	})
	s.logger.Info("product registered", zap.String("product_id", product.ID), zap.String("seller_id", sellerID))
	return product, nil
}

func (s *ProductService) discardImages(ctx context.Context, imgs []models.ProductImage) {
	for _, img := range imgs {
		if err := s.storage.Delete(ctx, img.Key); err != nil {
			s.logger.Warn("failed to remove stored image", zap.String("key", img.Key), zap.Error(err))
		}
	}
}

func (s *ProductService) publish(routingKey string, event map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(routingKey, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

package services_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/images"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/pkg/rabbitmq"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(4, 4, color.White), imaging.PNG))
	u, err := images.DataURL(buf.Bytes())
	require.NoError(t, err)
	return u
}

func shoePayload(t *testing.T) catalog.Payload {
	return catalog.Payload{
		Images:       []string{pngDataURL(t), pngDataURL(t)},
		Name:         "Runner",
		Description:  "Lightweight trainer",
		Gender:       catalog.GenderMan,
		Category:     catalog.CategoryShoes,
		Sizes:        []catalog.SizeStock{{Size: "260", Stock: 3}, {Size: "265", Stock: 1}},
		Price:        "89000",
		RegisterDate: "2024-04-01",
		SellByDate:   "2024-05-01",
	}
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10)},
		{ID: "2", Name: "Product B", Price: decimal.NewFromInt(20)},
	}
	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()
	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil)

	expectedProduct := &models.Product{ID: "1", Name: "Product A"}
	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CurrentSales(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil)

	today := time.Date(time.Now().UTC().Year(), time.Now().UTC().Month(), time.Now().UTC().Day(), 0, 0, 0, 0, time.UTC)
	mockRepo.On("ListOnSale", "seller-1", mock.MatchedBy(func(day time.Time) bool {
		// Guard against the test straddling midnight.
		return day.Equal(today) || day.Equal(today.AddDate(0, 0, 1))
	})).Return([]models.Product{{ID: "p-1"}}, nil).Once()

	products, err := service.CurrentSales("seller-1")
	require.NoError(t, err)
	assert.Len(t, products, 1)
	mockRepo.AssertExpectations(t)
}

func TestProductService_RegisterProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	store := new(MockStorage)
	events := new(MockPublisher)
	service := services.NewProductService(mockRepo, store, events, nil)

	store.On("Put", mock.MatchedBy(func(in storage.PutInput) bool { return in.ContentType == "image/png" && in.Size > 0 })).
		Return(storage.PutResult{Key: "a.png", URL: "/uploads/a.png"}, nil).Once()
	store.On("Put", mock.Anything).Return(storage.PutResult{Key: "b.png", URL: "/uploads/b.png"}, nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = "p-1"
	}).Return(nil).Once()
	events.On("PublishJSON", rabbitmq.ProductRegistered, mock.Anything).Return(errors.New("broker down")).Once()

	product, err := service.RegisterProduct(context.Background(), "seller-1", shoePayload(t))
	require.NoError(t, err, "a failed publish does not fail registration")

	assert.Equal(t, "p-1", product.ID)
	assert.Equal(t, "seller-1", product.SellerID)
	assert.Equal(t, "shoes", product.Category)
	assert.True(t, decimal.NewFromInt(89000).Equal(product.Price))
	assert.Equal(t, []models.ProductSize{{Size: "260", Stock: 3}, {Size: "265", Stock: 1}}, product.Sizes)
	require.Len(t, product.Images, 2)
	assert.Equal(t, models.ProductImage{Position: 0, Key: "a.png", URL: "/uploads/a.png"}, product.Images[0])
	assert.Equal(t, 1, product.Images[1].Position)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), product.SellByDate.UTC())

	mockRepo.AssertExpectations(t)
	store.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_RegisterProduct_Rejects(t *testing.T) {
	cases := map[string]func(p *catalog.Payload){
		"duplicate size":     func(p *catalog.Payload) { p.Sizes[1].Size = "260" },
		"too many entries":   func(p *catalog.Payload) { p.Category = catalog.CategoryCap; p.Sizes = make([]catalog.SizeStock, 4) },
		"zero stock":         func(p *catalog.Payload) { p.Sizes[0].Stock = 0 },
		"non-positive price": func(p *catalog.Payload) { p.Price = "0" },
		"unknown gender":     func(p *catalog.Payload) { p.Gender = "other" },
		"size on a bag":      func(p *catalog.Payload) { p.Category = catalog.CategoryBag; p.Sizes = p.Sizes[:1] },
		"not a data URL":     func(p *catalog.Payload) { p.Images = []string{"https://example.com/a.png"} },
		"html as an image": func(p *catalog.Payload) {
			p.Images = []string{"data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte("<html><script></script></html>"))}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			store := new(MockStorage)
			service := services.NewProductService(mockRepo, store, nil, nil)

			p := shoePayload(t)
			mutate(&p)
			_, err := service.RegisterProduct(context.Background(), "", p)
			assert.ErrorIs(t, err, services.ErrInvalidProduct)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything)
			store.AssertNotCalled(t, "Put", mock.Anything)
		})
	}
}

func TestProductService_RegisterProduct_CleansUpImages(t *testing.T) {
	mockRepo := new(MockProductRepository)
	store := new(MockStorage)
	service := services.NewProductService(mockRepo, store, nil, nil)

	// Second upload fails: the first must be removed.
	store.On("Put", mock.Anything).Return(storage.PutResult{Key: "a.png"}, nil).Once()
	store.On("Put", mock.Anything).Return(storage.PutResult{}, errors.New("disk full")).Once()
	store.On("Delete", "a.png").Return(nil).Once()

	_, err := service.RegisterProduct(context.Background(), "", shoePayload(t))
	assert.ErrorContains(t, err, "disk full")
	store.AssertExpectations(t)

	// Database failure removes everything stored.
	store.On("Put", mock.Anything).Return(storage.PutResult{Key: "c.png"}, nil).Once()
	store.On("Put", mock.Anything).Return(storage.PutResult{Key: "d.png"}, nil).Once()
	store.On("Delete", "c.png").Return(nil).Once()
	store.On("Delete", "d.png").Return(errors.New("gone already")).Once()
	mockRepo.On("Create", mock.Anything).Return(errors.New("database error")).Once()

	_, err = service.RegisterProduct(context.Background(), "", shoePayload(t))
	assert.ErrorContains(t, err, "database error")
	store.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

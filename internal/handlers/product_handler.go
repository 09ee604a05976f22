package handlers

import (
	"errors"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler serves the catalogue and product registration.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the product routes. Registration runs behind
// optionalAuth: no login is required, and a seller token, when sent, ties the
// product to its seller.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, optionalAuth fiber.Handler) {
	router.Get("/products", h.HandleGetProducts)
	router.Get("/product/:id", h.HandleGetProductByID)
	router.Post("/product/add", optionalAuth, h.HandleAddProduct)
}

// HandleGetProducts lists every product.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		h.logger.Error("error getting products", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID returns one product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product with ID " + id + " not found",
			})
		}
		h.logger.Error("error getting product", zap.String("product_id", id), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleAddProduct registers a product from the registration form payload.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	var payload catalog.Payload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, err)
	}
	if err := h.validate.Struct(payload); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.RegisterProduct(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		if errors.Is(err, services.ErrInvalidProduct) {
			return fail(c, fiber.StatusBadRequest, "Invalid product", err)
		}
		h.logger.Error("error registering product", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not register product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{service: service, validate: validator.New(), logger: logger}
}

// RegisterRoutes registers the cart routes behind auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/cart", auth, h.HandleGetCart)
	router.Post("/cart", auth, h.HandleAddToCart)
}

// AddToCartRequest is the body of POST /api/cart.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// HandleGetCart returns the caller's cart lines.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	items, err := h.service.GetCart(userID)
	if err != nil {
		h.logger.Error("error getting cart", zap.String("user_id", userID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve cart", err)
	}
	return c.JSON(items)
}

// HandleAddToCart adds a product size to the caller's cart.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	userID := middleware.UserID(c)
	err := h.service.AddItem(userID, req.ProductID, req.Size, req.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Product not found", err)
	case errors.Is(err, services.ErrUnknownSize), errors.Is(err, services.ErrInvalidQuantity):
		return fail(c, fiber.StatusBadRequest, "Could not add to cart", err)
	case errors.Is(err, repositories.ErrInsufficientStock):
		return fail(c, fiber.StatusConflict, "Not enough stock", err)
	default:
		h.logger.Error("error adding to cart", zap.String("user_id", userID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not add to cart", err)
	}

	return h.HandleGetCart(c.Status(fiber.StatusCreated))
}

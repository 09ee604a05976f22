package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PurchaseHandler handles checkout and purchase history.
type PurchaseHandler struct {
	service *services.PurchaseService
	logger  *zap.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(service *services.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{service: service, logger: logger}
}

// RegisterRoutes registers the purchase routes behind auth.
func (h *PurchaseHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/purchase", auth, h.HandleGetPurchases)
	router.Post("/purchase", auth, h.HandleCheckout)
}

// HandleGetPurchases lists the caller's orders.
func (h *PurchaseHandler) HandleGetPurchases(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	orders, err := h.service.ListPurchases(userID)
	if err != nil {
		h.logger.Error("error getting purchases", zap.String("user_id", userID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve purchases", err)
	}
	return c.JSON(orders)
}

// HandleCheckout buys the caller's cart.
func (h *PurchaseHandler) HandleCheckout(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	order, err := h.service.Checkout(userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return fail(c, fiber.StatusBadRequest, "Nothing to purchase", err)
		case errors.Is(err, repositories.ErrInsufficientStock), errors.Is(err, repositories.ErrCartChanged):
			return fail(c, fiber.StatusConflict, "Not enough stock", err)
		case errors.Is(err, repositories.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "Product no longer available", err)
		}
		h.logger.Error("error during checkout", zap.String("user_id", userID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not complete purchase", err)
	}
	h.logger.Info("purchase completed", zap.String("order_id", order.ID), zap.String("user_id", userID))
	return c.Status(fiber.StatusCreated).JSON(order)
}

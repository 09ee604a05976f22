package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SaleHandler lists what the logged-in seller currently has on sale.
type SaleHandler struct {
	service *services.ProductService
	logger  *zap.Logger
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(service *services.ProductService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{service: service, logger: logger}
}

// RegisterRoutes registers the sale routes behind auth.
func (h *SaleHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/sale/current", auth, h.HandleCurrent)
}

// HandleCurrent returns the seller's products that have not passed their
// sell-by date.
func (h *SaleHandler) HandleCurrent(c *fiber.Ctx) error {
	sellerID := middleware.UserID(c)
	products, err := h.service.CurrentSales(sellerID)
	if err != nil {
		h.logger.Error("error listing current sales", zap.String("seller_id", sellerID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve current sales", err)
	}
	return c.JSON(products)
}

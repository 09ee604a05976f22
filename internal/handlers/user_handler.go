package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler serves the caller's profile.
type UserHandler struct {
	authService *services.AuthService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{authService: authService, logger: logger}
}

// RegisterRoutes registers the user routes behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/user/me", auth, h.HandleMe)
}

// HandleMe returns the logged-in user.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	user, err := h.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found", err)
		}
		h.logger.Error("error getting user", zap.String("user_id", userID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"medremind/internal/models"
	"medremind/internal/services"
	"medremind/pkg/auth"
)

// AuthHandler handles registration and login HTTP requests
type AuthHandler struct {
	userService *services.UserService
	jwtAuth     *auth.JWTAuth
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService *services.UserService, jwtAuth *auth.JWTAuth) *AuthHandler {
	return &AuthHandler{userService: userService, jwtAuth: jwtAuth}
}

// Register creates a new account and issues tokens
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	user, err := h.userService.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create account",
		})
	}

	return h.respondWithTokens(c, user)
}

// Login verifies credentials and issues tokens
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.userService.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	return h.respondWithTokens(c, user)
}

// Refresh exchanges a valid refresh token for a new token pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Refresh token required",
		})
	}

	tokenUser, err := h.jwtAuth.VerifyToken(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired refresh token",
		})
	}

	user, err := h.userService.GetByID(c.Context(), tokenUser.ID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Account no longer exists",
		})
	}

	return h.respondWithTokens(c, user)
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	user, err := h.userService.GetByID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(user)
}

func (h *AuthHandler) respondWithTokens(c *fiber.Ctx, user *models.User) error {
	access, refresh, err := h.jwtAuth.GenerateTokens(user.ID, user.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue tokens",
		})
	}

	return c.JSON(models.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
	})
}

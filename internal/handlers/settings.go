package handlers

import (
	"github.com/gofiber/fiber/v2"

	"medremind/internal/models"
	"medremind/internal/services"
)

// SettingsHandler handles user settings HTTP requests
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetMealTimes returns the user's meal-time profile
// GET /api/settings/mealtimes
func (h *SettingsHandler) GetMealTimes(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	profile, err := h.settings.GetMealTimes(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load meal times",
		})
	}
	return c.JSON(profile)
}

// SetMealTimes replaces the user's meal-time profile
// PUT /api/settings/mealtimes
func (h *SettingsHandler) SetMealTimes(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var profile models.MealTimeProfile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := profile.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.settings.SetMealTimes(c.Context(), userID, profile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save meal times",
		})
	}
	return c.JSON(profile)
}

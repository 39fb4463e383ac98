package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"medremind/internal/models"
	"medremind/internal/services"
)

// SubscriptionHandler handles subscription and payment HTTP requests
type SubscriptionHandler struct {
	payments *services.PaymentService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(payments *services.PaymentService) *SubscriptionHandler {
	return &SubscriptionHandler{payments: payments}
}

// Plans lists the available subscription plans
// GET /api/subscription/plans
func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": models.AvailablePlans})
}

// Get returns the authenticated user's subscription state
// GET /api/subscription
func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	sub, err := h.payments.GetSubscription(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load subscription",
		})
	}

	tier := sub.EffectiveTier()
	return c.JSON(fiber.Map{
		"subscription": sub,
		"tier":         tier,
		"limits":       models.GetTierLimits(tier),
	})
}

// Checkout creates a payment checkout session for a plan upgrade
// POST /api/subscription/checkout
func (h *SubscriptionHandler) Checkout(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	userEmail, _ := c.Locals("user_email").(string)

	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "plan_id is required",
		})
	}

	checkout, err := h.payments.CreateCheckoutSession(c.Context(), userID, userEmail, req.PlanID)
	if err != nil {
		log.Printf("❌ [SUBSCRIPTION] Checkout creation failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to create checkout session",
		})
	}
	return c.JSON(checkout)
}

// Webhook receives payment provider events. Unauthenticated; trust comes from
// signature verification.
// POST /api/webhooks/dodo
func (h *SubscriptionHandler) Webhook(c *fiber.Ctx) error {
	payload := c.Body()
	if len(payload) == 0 {
		log.Printf("❌ [WEBHOOK] Missing payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing payload",
		})
	}

	// Convert Fiber headers to http.Header for SDK
	headers := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	event, err := h.payments.VerifyAndParseWebhook(payload, headers)
	if err != nil {
		log.Printf("❌ [WEBHOOK] Verification failed: %v", err)
		if strings.Contains(err.Error(), "parse") || strings.Contains(err.Error(), "invalid character") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Malformed payload",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid signature",
		})
	}

	if err := h.payments.HandleWebhookEvent(c.Context(), event); err != nil {
		log.Printf("❌ [WEBHOOK] Failed to apply event %s: %v", event.Type, err)
		// 500 makes the provider retry the delivery.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process event",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}

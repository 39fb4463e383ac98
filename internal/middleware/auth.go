package middleware

import (
	"github.com/gofiber/fiber/v2"

	"medremind/pkg/auth"
)

// Auth returns a middleware that verifies the Bearer token and stores the
// authenticated user id and email in the request locals.
func Auth(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ExtractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		user, err := jwtAuth.VerifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		return c.Next()
	}
}

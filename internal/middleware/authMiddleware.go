package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/auth"
)

func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := c.Cookies("jwt")
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	userID, err := auth.GetUserID(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("userID", userID)

	return c.Next()
}

// AdminMiddleware guards back-office routes and the payment webhook
// with a shared token. The payment processor is configured to send it
// as X-Admin-Token on webhook deliveries.
func AdminMiddleware(c *fiber.Ctx) error {
	if config.AdminToken == "" || c.Get("X-Admin-Token") != config.AdminToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	return c.Next()
}

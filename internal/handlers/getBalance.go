package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/storage"
)

type BalanceResponse struct {
	Pending  float64 `json:"pending"`
	Paid     float64 `json:"paid"`
	Lifetime float64 `json:"lifetime"`
}

func GetBalanceHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		userID := c.Locals("userID").(uuid.UUID)

		affiliate, err := storage.GetAffiliateByUser(ctx, userID)
		if err != nil {
			logger.Log.Error("Error getting affiliate balance", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if affiliate.ID == uuid.Nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not an affiliate",
			})
		}

		return c.Status(fiber.StatusOK).JSON(BalanceResponse{
			Pending:  affiliate.PendingEarnings,
			Paid:     affiliate.PaidEarnings,
			Lifetime: affiliate.LifetimeEarnings,
		})
	}
}

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

type CommissionResponse struct {
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func GetCommissionsHandler(c *fiber.Ctx) error {
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
			logger.Log.Error("Error getting affiliate", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if affiliate.ID == uuid.Nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not an affiliate",
			})
		}

		commissions, err := storage.GetAffiliateCommissions(ctx, affiliate.ID)
		if err != nil {
			logger.Log.Error("Error getting commissions", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if len(commissions) == 0 {
			return c.SendStatus(fiber.StatusNoContent)
		}

		var response []CommissionResponse
		for _, entry := range commissions {
			response = append(response, CommissionResponse{
				Amount:    entry.Amount,
				Status:    entry.Status,
				CreatedAt: entry.CreatedAt,
			})
		}

		return c.Status(fiber.StatusOK).JSON(response)
	}
}

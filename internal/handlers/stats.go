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

type StatsResponse struct {
	Clicks             int     `json:"clicks"`
	Signups            int     `json:"signups"`
	Conversions        int     `json:"conversions"`
	PendingCommissions float64 `json:"pending_commissions"`
	PaidCommissions    float64 `json:"paid_commissions"`
}

func GetStatsHandler(c *fiber.Ctx) error {
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

		stats, err := storage.GetAffiliateStats(ctx, affiliate.ID)
		if err != nil {
			logger.Log.Error("Error getting affiliate stats", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.Status(fiber.StatusOK).JSON(StatsResponse{
			Clicks:             stats.Clicks,
			Signups:            stats.Signups,
			Conversions:        stats.Conversions,
			PendingCommissions: stats.PendingCommissions,
			PaidCommissions:    stats.PaidCommissions,
		})
	}
}

package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/internal/commission"
	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/models"
	"github.com/creatorly/affiliates/internal/referral"
	"github.com/creatorly/affiliates/internal/storage"
)

// PaymentWebhookHandler turns a successful payment into a commission.
// The processor delivers events at least once, so every outcome that
// means "nothing to do" (payer not referred, affiliate not approved,
// payment key already recorded) answers 200 to stop redelivery. Only
// storage failures answer 500, which makes the processor retry.
func PaymentWebhookHandler(c *fiber.Ctx) error {
	var event commission.PaymentEvent
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		if err := c.BodyParser(&event); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if err := event.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		payerID, err := uuid.Parse(event.UserID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid user id",
			})
		}

		record, err := storage.GetLatestAttributableReferral(ctx, payerID)
		if err != nil {
			logger.Log.Error("Error looking up referral", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if record.ID == uuid.Nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "No affiliate to credit",
			})
		}

		// First payment converts the referral; later payments find it
		// already converted and the conditional update is a no-op.
		if referral.CanAdvance(record.Status, models.ReferralConverted) {
			if err := storage.BindConversion(ctx, record.ID); err != nil {
				logger.Log.Error("Error binding conversion", zap.Error(err))
				return c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		affiliate, err := storage.GetAffiliateByID(ctx, record.AffiliateID)
		if err != nil {
			logger.Log.Error("Error getting affiliate", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if affiliate.Status != models.AffiliateApproved {
			logger.Log.Info("Skipping commission for unapproved affiliate",
				zap.String("affiliateID", affiliate.ID.String()))
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "No affiliate to credit",
			})
		}

		share := commission.Share(event.Amount)

		credited, err := storage.RecordCommission(ctx, affiliate.ID, event.PaymentKey, share)
		if err != nil {
			logger.Log.Error("Error recording commission", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if !credited {
			logger.Log.Info("Duplicate payment event ignored",
				zap.String("paymentKey", event.PaymentKey))
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "Payment already processed",
			})
		}

		logger.Log.Info("Commission recorded",
			zap.String("affiliateID", affiliate.ID.String()),
			zap.String("paymentKey", event.PaymentKey),
			zap.Float64("amount", share))

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Commission recorded",
		})
	}
}

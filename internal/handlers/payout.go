package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/models"
	"github.com/creatorly/affiliates/internal/notifier"
	"github.com/creatorly/affiliates/internal/payout"
	"github.com/creatorly/affiliates/internal/storage"
)

type PayoutRequest struct {
	Amount float64 `json:"amount"`
}

type PayoutResponse struct {
	ID          uuid.UUID  `json:"id"`
	Amount      float64    `json:"amount"`
	Destination string     `json:"destination"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// RequestPayoutHandler creates a withdrawal request for the affiliate's
// pending earnings. No money moves here: the pending to paid transfer
// happens when the payout is later completed by back office.
func RequestPayoutHandler(c *fiber.Ctx) error {
	var request PayoutRequest
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

		if err := c.BodyParser(&request); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if request.Amount < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Amount must not be negative",
			})
		}

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

		amount, err := payout.ValidateRequest(request.Amount, affiliate.PendingEarnings, affiliate.Status)
		if err != nil {
			switch {
			case errors.Is(err, payout.ErrNotApproved):
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Affiliate is not approved",
				})
			case errors.Is(err, payout.ErrBelowMinimum):
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": "Amount is below the minimum payout",
				})
			default:
				return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
					"error": "Insufficient funds",
				})
			}
		}

		payoutID := uuid.New()
		err = storage.CreatePayout(ctx, payoutID, affiliate.ID, amount, affiliate.PayoutEmail)
		if err != nil {
			logger.Log.Error("Error creating payout", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		notifier.PayoutRequested(affiliate.PayoutEmail, amount)

		logger.Log.Info("Payout requested",
			zap.String("affiliateID", affiliate.ID.String()),
			zap.Float64("amount", amount))

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":     payoutID,
			"amount": amount,
			"status": models.PayoutRequested,
		})
	}
}

func GetPayoutsHandler(c *fiber.Ctx) error {
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

		payouts, err := storage.GetAffiliatePayouts(ctx, affiliate.ID)
		if err != nil {
			logger.Log.Error("Error getting payouts", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if len(payouts) == 0 {
			return c.SendStatus(fiber.StatusNoContent)
		}

		var response []PayoutResponse
		for _, entry := range payouts {
			item := PayoutResponse{
				ID:          entry.ID,
				Amount:      entry.Amount,
				Destination: entry.Destination,
				Status:      entry.Status,
				RequestedAt: entry.RequestedAt,
			}
			if entry.ProcessedAt.Valid {
				processedAt := entry.ProcessedAt.Time
				item.ProcessedAt = &processedAt
			}
			response = append(response, item)
		}

		return c.Status(fiber.StatusOK).JSON(response)
	}
}

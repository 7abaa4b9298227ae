package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/storage"
)

// CompletePayoutHandler is the back-office action that settles a
// payout: the request flips to paid and the amount moves from pending
// to paid earnings in one transaction.
func CompletePayoutHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		payoutID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid payout id",
			})
		}

		err = storage.CompletePayout(ctx, payoutID)
		if err != nil {
			if errors.Is(err, storage.ErrPayoutNotPending) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Payout is not pending",
				})
			}
			if errors.Is(err, storage.ErrInsufficientPending) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Pending earnings below payout amount",
				})
			}
			logger.Log.Error("Error completing payout", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		logger.Log.Info("Payout completed", zap.String("payoutID", payoutID.String()))

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Payout completed",
		})
	}
}

func RejectPayoutHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		payoutID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid payout id",
			})
		}

		err = storage.RejectPayout(ctx, payoutID)
		if err != nil {
			if errors.Is(err, storage.ErrPayoutNotPending) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Payout is not pending",
				})
			}
			logger.Log.Error("Error rejecting payout", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		logger.Log.Info("Payout rejected", zap.String("payoutID", payoutID.String()))

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Payout rejected",
		})
	}
}

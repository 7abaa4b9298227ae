package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/affiliate"
	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/models"
	"github.com/creatorly/affiliates/internal/storage"
)

type CreateAffiliateRequest struct {
	PayoutEmail string `json:"payout_email" validate:"required"`
}

type AffiliateResponse struct {
	Code         string    `json:"code"`
	ReferralLink string    `json:"referral_link"`
	Status       string    `json:"status"`
	PayoutEmail  string    `json:"payout_email"`
	CreatedAt    time.Time `json:"created_at"`
}

func referralLink(code string) string {
	return fmt.Sprintf("%s?ref=%s", config.SiteBaseURL, code)
}

// CreateAffiliateHandler enrolls the current user into the affiliate
// program. Affiliates are auto-approved on enrollment.
func CreateAffiliateHandler(c *fiber.Ctx) error {
	var request CreateAffiliateRequest
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

		if err := affiliate.ValidatePayoutEmail(request.PayoutEmail); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid payout email",
			})
		}

		code, err := affiliate.NewCode(func(code string) (bool, error) {
			return storage.AffiliateCodeTaken(ctx, code)
		})
		if err != nil {
			logger.Log.Error("Error generating affiliate code", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		record := models.Affiliate{
			ID:          uuid.New(),
			UserID:      userID,
			Code:        code,
			Status:      models.AffiliateApproved,
			PayoutEmail: request.PayoutEmail,
			CreatedAt:   time.Now(),
		}

		err = storage.CreateAffiliate(ctx, record)
		if err != nil {
			if errors.Is(err, storage.ErrAffiliateExists) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Affiliate account already exists",
				})
			}
			logger.Log.Error("Error creating affiliate", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		logger.Log.Info("Affiliate created",
			zap.String("userID", userID.String()), zap.String("code", code))

		return c.Status(fiber.StatusCreated).JSON(AffiliateResponse{
			Code:         record.Code,
			ReferralLink: referralLink(record.Code),
			Status:       record.Status,
			PayoutEmail:  record.PayoutEmail,
			CreatedAt:    record.CreatedAt,
		})
	}
}

func GetAffiliateHandler(c *fiber.Ctx) error {
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

		record, err := storage.GetAffiliateByUser(ctx, userID)
		if err != nil {
			logger.Log.Error("Error getting affiliate", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if record.ID == uuid.Nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not an affiliate",
			})
		}

		return c.Status(fiber.StatusOK).JSON(AffiliateResponse{
			Code:         record.Code,
			ReferralLink: referralLink(record.Code),
			Status:       record.Status,
			PayoutEmail:  record.PayoutEmail,
			CreatedAt:    record.CreatedAt,
		})
	}
}

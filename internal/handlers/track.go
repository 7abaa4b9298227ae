package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/models"
	"github.com/creatorly/affiliates/internal/referral"
	"github.com/creatorly/affiliates/internal/storage"
)

// TrackClickHandler serves /r/:code referral links. Every qualifying
// visit creates a fresh referral row and rewrites the attribution
// cookie, so the newest click wins at signup. The visitor always ends
// up on the site: an unknown or suspended code just redirects without
// setting anything.
func TrackClickHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Redirect(config.SiteBaseURL, fiber.StatusFound)
	default:
		code := c.Params("code")

		affiliate, err := storage.GetAffiliateByCode(ctx, code)
		if err != nil {
			logger.Log.Error("Error looking up affiliate code", zap.Error(err))
			return c.Redirect(config.SiteBaseURL, fiber.StatusFound)
		}

		if affiliate.ID == uuid.Nil || affiliate.Status != models.AffiliateApproved {
			logger.Log.Info("Click on invalid affiliate code", zap.String("code", code))
			return c.Redirect(config.SiteBaseURL, fiber.StatusFound)
		}

		referralID := uuid.New()
		if err := storage.CreateReferral(ctx, referralID, affiliate.ID); err != nil {
			return c.Redirect(config.SiteBaseURL, fiber.StatusFound)
		}

		token, err := referral.IssueToken(affiliate.Code, referralID)
		if err != nil {
			logger.Log.Error("Error issuing attribution token", zap.Error(err))
			return c.Redirect(config.SiteBaseURL, fiber.StatusFound)
		}

		c.Cookie(&fiber.Cookie{
			Name:     referral.CookieName,
			Value:    token,
			Expires:  time.Now().Add(referral.AttributionWindow),
			HTTPOnly: true,
		})

		logger.Log.Info("Referral click tracked",
			zap.String("code", code), zap.String("referralID", referralID.String()))

		return c.Redirect(config.SiteBaseURL, fiber.StatusFound)
	}
}

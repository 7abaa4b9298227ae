package payout

import (
	"errors"

	"github.com/creatorly/affiliates/internal/models"
)

// Minimum is the smallest pending balance an affiliate can withdraw.
const Minimum = 50.00

var (
	ErrNotApproved       = errors.New("affiliate is not approved")
	ErrBelowMinimum      = errors.New("amount is below the minimum payout")
	ErrInsufficientFunds = errors.New("amount exceeds pending earnings")
)

// ValidateRequest checks a withdrawal request against the affiliate's
// status and pending balance and returns the amount to withdraw. A
// zero amount means "everything pending".
func ValidateRequest(amount float64, pending float64, status string) (float64, error) {
	if status != models.AffiliateApproved {
		return 0, ErrNotApproved
	}

	if amount == 0 {
		amount = pending
	}

	if amount < Minimum {
		return 0, ErrBelowMinimum
	}
	if amount > pending {
		return 0, ErrInsufficientFunds
	}

	return amount, nil
}

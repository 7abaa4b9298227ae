package referral

import (
	"errors"

	"github.com/creatorly/affiliates/internal/models"
)

var ErrInvalidTransition = errors.New("invalid referral state transition")

var stateOrder = map[string]int{
	models.ReferralClicked:   0,
	models.ReferralSignedUp:  1,
	models.ReferralConverted: 2,
}

// CanAdvance reports whether a referral may move from one status to the
// next. Only single forward steps are legal; skipping signed_up or
// moving backward is not.
func CanAdvance(from, to string) bool {
	fromRank, ok := stateOrder[from]
	if !ok {
		return false
	}
	toRank, ok := stateOrder[to]
	if !ok {
		return false
	}

	return toRank == fromRank+1
}

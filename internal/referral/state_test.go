package referral

import (
	"testing"

	"github.com/creatorly/affiliates/internal/models"
)

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"clicked to signed_up", models.ReferralClicked, models.ReferralSignedUp, true},
		{"signed_up to converted", models.ReferralSignedUp, models.ReferralConverted, true},
		{"skip to converted", models.ReferralClicked, models.ReferralConverted, false},
		{"backward to signed_up", models.ReferralConverted, models.ReferralSignedUp, false},
		{"backward to clicked", models.ReferralSignedUp, models.ReferralClicked, false},
		{"converted is terminal", models.ReferralConverted, models.ReferralConverted, false},
		{"same state", models.ReferralClicked, models.ReferralClicked, false},
		{"unknown from", "deleted", models.ReferralSignedUp, false},
		{"unknown to", models.ReferralClicked, "deleted", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAdvance(tc.from, tc.to); got != tc.want {
				t.Errorf("CanAdvance(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

package commission

import (
	"errors"
	"math"
	"strings"
)

// Rate is the affiliate's share of every attributed payment.
const Rate = 0.25

var (
	ErrEmptyPaymentKey = errors.New("payment key is empty")
	ErrInvalidAmount   = errors.New("gross amount must be greater than 0")
)

// PaymentEvent is the payload delivered by the payment processor's
// webhook for a successful checkout or recurring invoice. PaymentKey
// must be the processor's payment id, which is globally unique across
// both event types; anything reused between payments (customer id,
// subscription id) would silently suppress later commissions.
type PaymentEvent struct {
	UserID     string  `json:"user_id"`
	Amount     float64 `json:"amount"`
	PaymentKey string  `json:"payment_key"`
}

func (e PaymentEvent) Validate() error {
	if strings.TrimSpace(e.PaymentKey) == "" {
		return ErrEmptyPaymentKey
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Share returns the affiliate's cut of a gross payment, rounded
// half-even to cents. The inner rounding pins the cent value to its
// decimal representation before the tie-break, so a stored 0.30 does
// not land a hair under 7.5 cents and break the wrong way.
func Share(gross float64) float64 {
	cents := math.Round(gross*Rate*1e11) / 1e9
	return math.RoundToEven(cents) / 100
}

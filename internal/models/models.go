package models

import (
	"database/sql"
	"github.com/google/uuid"
	"time"
)

var (
	AffiliatePending   = "pending"
	AffiliateApproved  = "approved"
	AffiliateSuspended = "suspended"

	ReferralClicked   = "clicked"
	ReferralSignedUp  = "signed_up"
	ReferralConverted = "converted"

	CommissionPending = "pending"
	CommissionPaid    = "paid"

	PayoutRequested  = "requested"
	PayoutProcessing = "processing"
	PayoutPaid       = "paid"
	PayoutRejected   = "rejected"
)

type User struct {
	ID           uuid.UUID `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Affiliate struct {
	ID               uuid.UUID `db:"id"`
	UserID           uuid.UUID `db:"user_id"`
	Code             string    `db:"code"`
	Status           string    `db:"status"`
	PayoutEmail      string    `db:"payout_email"`
	PendingEarnings  float64   `db:"pending_earnings"`
	PaidEarnings     float64   `db:"paid_earnings"`
	LifetimeEarnings float64   `db:"lifetime_earnings"`
	CreatedAt        time.Time `db:"created_at"`
}

type Referral struct {
	ID          uuid.UUID     `db:"id"`
	AffiliateID uuid.UUID     `db:"affiliate_id"`
	UserID      uuid.NullUUID `db:"user_id"`
	Status      string        `db:"status"`
	ClickedAt   time.Time     `db:"clicked_at"`
	SignedUpAt  sql.NullTime  `db:"signed_up_at"`
	ConvertedAt sql.NullTime  `db:"converted_at"`
}

type Commission struct {
	ID          uuid.UUID `db:"id"`
	AffiliateID uuid.UUID `db:"affiliate_id"`
	PaymentKey  string    `db:"payment_key"`
	Amount      float64   `db:"amount"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

type Payout struct {
	ID          uuid.UUID    `db:"id"`
	AffiliateID uuid.UUID    `db:"affiliate_id"`
	Amount      float64      `db:"amount"`
	Destination string       `db:"destination"`
	Status      string       `db:"status"`
	RequestedAt time.Time    `db:"requested_at"`
	ProcessedAt sql.NullTime `db:"processed_at"`
}

type AffiliateStats struct {
	Clicks             int     `db:"clicks"`
	Signups            int     `db:"signups"`
	Conversions        int     `db:"conversions"`
	PendingCommissions float64 `db:"pending_commissions"`
	PaidCommissions    float64 `db:"paid_commissions"`
}

package storage

// Integration tests against a real Postgres. They skip unless
// DATABASE_URI is set, e.g.:
//
//	DATABASE_URI=postgres://localhost:5432/affiliates_test go test ./internal/storage

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/models"
)

func setupDB(t *testing.T) context.Context {
	t.Helper()

	uri := os.Getenv("DATABASE_URI")
	if uri == "" {
		t.Skip("DATABASE_URI is not set, skipping storage tests")
	}

	if DB == nil {
		config.DatabaseURI = uri
		if err := Init(); err != nil {
			t.Fatalf("storage.Init: %v", err)
		}
	}

	return context.Background()
}

func createTestUser(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	login := fmt.Sprintf("user-%s", userID)
	if err := CreateUser(ctx, userID.String(), login, "x"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return userID
}

func createTestAffiliate(t *testing.T, ctx context.Context) models.Affiliate {
	t.Helper()

	userID := createTestUser(t, ctx)
	affiliate := models.Affiliate{
		ID:          uuid.New(),
		UserID:      userID,
		Code:        uuid.New().String()[:8],
		Status:      models.AffiliateApproved,
		PayoutEmail: fmt.Sprintf("%s@example.com", uuid.New()),
	}

	if err := CreateAffiliate(ctx, affiliate); err != nil {
		t.Fatalf("CreateAffiliate: %v", err)
	}

	return affiliate
}

func mustGetAffiliate(t *testing.T, ctx context.Context, affiliateID uuid.UUID) models.Affiliate {
	t.Helper()

	affiliate, err := GetAffiliateByID(ctx, affiliateID)
	if err != nil {
		t.Fatalf("GetAffiliateByID: %v", err)
	}

	return affiliate
}

func checkBalanceInvariant(t *testing.T, affiliate models.Affiliate) {
	t.Helper()

	if affiliate.PendingEarnings+affiliate.PaidEarnings != affiliate.LifetimeEarnings {
		t.Errorf("balance invariant broken: pending %v + paid %v != lifetime %v",
			affiliate.PendingEarnings, affiliate.PaidEarnings, affiliate.LifetimeEarnings)
	}
}

func TestCreateAffiliateDuplicate(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)

	dup := affiliate
	dup.ID = uuid.New()
	if err := CreateAffiliate(ctx, dup); err != ErrAffiliateExists {
		t.Errorf("expected ErrAffiliateExists, got %v", err)
	}
}

func TestReferralLifecycle(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)
	visitorID := createTestUser(t, ctx)

	referralID := uuid.New()
	if err := CreateReferral(ctx, referralID, affiliate.ID); err != nil {
		t.Fatalf("CreateReferral: %v", err)
	}

	referral, err := GetReferral(ctx, referralID)
	if err != nil {
		t.Fatalf("GetReferral: %v", err)
	}
	if referral.Status != models.ReferralClicked {
		t.Fatalf("status = %q, want clicked", referral.Status)
	}

	if err := BindSignup(ctx, referralID, visitorID); err != nil {
		t.Fatalf("BindSignup: %v", err)
	}

	referral, _ = GetReferral(ctx, referralID)
	if referral.Status != models.ReferralSignedUp {
		t.Fatalf("status = %q, want signed_up", referral.Status)
	}
	if !referral.UserID.Valid || referral.UserID.UUID != visitorID {
		t.Error("referral user not bound")
	}
	if !referral.SignedUpAt.Valid {
		t.Error("signed_up_at not set")
	}

	// Retried signup with another user must be a no-op.
	otherID := createTestUser(t, ctx)
	if err := BindSignup(ctx, referralID, otherID); err != nil {
		t.Fatalf("repeat BindSignup: %v", err)
	}
	referral, _ = GetReferral(ctx, referralID)
	if referral.UserID.UUID != visitorID {
		t.Error("repeat BindSignup rebound the referral")
	}

	if err := BindConversion(ctx, referralID); err != nil {
		t.Fatalf("BindConversion: %v", err)
	}
	referral, _ = GetReferral(ctx, referralID)
	if referral.Status != models.ReferralConverted {
		t.Fatalf("status = %q, want converted", referral.Status)
	}
	if !referral.ConvertedAt.Valid {
		t.Error("converted_at not set")
	}

	// converted is terminal: neither call moves it.
	if err := BindConversion(ctx, referralID); err != nil {
		t.Fatalf("repeat BindConversion: %v", err)
	}
	if err := BindSignup(ctx, referralID, otherID); err != nil {
		t.Fatalf("BindSignup on converted: %v", err)
	}
	referral, _ = GetReferral(ctx, referralID)
	if referral.Status != models.ReferralConverted {
		t.Errorf("status regressed to %q", referral.Status)
	}
	if referral.UserID.UUID != visitorID {
		t.Error("converted referral was rebound")
	}
}

func TestGetLatestAttributableReferralAbsent(t *testing.T) {
	ctx := setupDB(t)

	referral, err := GetLatestAttributableReferral(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetLatestAttributableReferral: %v", err)
	}
	if referral.ID != uuid.Nil {
		t.Errorf("expected zero referral, got %v", referral.ID)
	}
}

func TestRecordCommissionIdempotence(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)
	paymentKey := fmt.Sprintf("pay_%s", uuid.New())

	credited, err := RecordCommission(ctx, affiliate.ID, paymentKey, 25.00)
	if err != nil {
		t.Fatalf("RecordCommission: %v", err)
	}
	if !credited {
		t.Fatal("first RecordCommission did not credit")
	}

	credited, err = RecordCommission(ctx, affiliate.ID, paymentKey, 25.00)
	if err != nil {
		t.Fatalf("repeat RecordCommission: %v", err)
	}
	if credited {
		t.Error("duplicate payment key credited twice")
	}

	updated := mustGetAffiliate(t, ctx, affiliate.ID)
	if updated.PendingEarnings != 25.00 {
		t.Errorf("pending = %v, want 25.00", updated.PendingEarnings)
	}
	if updated.LifetimeEarnings != 25.00 {
		t.Errorf("lifetime = %v, want 25.00", updated.LifetimeEarnings)
	}
	checkBalanceInvariant(t, updated)

	commissions, err := GetAffiliateCommissions(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("GetAffiliateCommissions: %v", err)
	}
	if len(commissions) != 1 {
		t.Errorf("commission rows = %d, want 1", len(commissions))
	}
}

func TestCompletePayout(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)

	for _, amount := range []float64{40.00, 15.00} {
		credited, err := RecordCommission(ctx, affiliate.ID, fmt.Sprintf("pay_%s", uuid.New()), amount)
		if err != nil || !credited {
			t.Fatalf("RecordCommission(%v): credited=%v err=%v", amount, credited, err)
		}
	}

	payoutID := uuid.New()
	if err := CreatePayout(ctx, payoutID, affiliate.ID, 55.00, affiliate.PayoutEmail); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	// Requesting moves no money.
	updated := mustGetAffiliate(t, ctx, affiliate.ID)
	if updated.PendingEarnings != 55.00 || updated.PaidEarnings != 0 {
		t.Fatalf("request moved money: pending %v paid %v", updated.PendingEarnings, updated.PaidEarnings)
	}

	if err := CompletePayout(ctx, payoutID); err != nil {
		t.Fatalf("CompletePayout: %v", err)
	}

	updated = mustGetAffiliate(t, ctx, affiliate.ID)
	if updated.PendingEarnings != 0 {
		t.Errorf("pending = %v, want 0", updated.PendingEarnings)
	}
	if updated.PaidEarnings != 55.00 {
		t.Errorf("paid = %v, want 55.00", updated.PaidEarnings)
	}
	if updated.LifetimeEarnings != 55.00 {
		t.Errorf("lifetime = %v, want 55.00", updated.LifetimeEarnings)
	}
	checkBalanceInvariant(t, updated)

	commissions, _ := GetAffiliateCommissions(ctx, affiliate.ID)
	for _, entry := range commissions {
		if entry.Status != models.CommissionPaid {
			t.Errorf("commission %v still %q after payout", entry.ID, entry.Status)
		}
	}

	if err := CompletePayout(ctx, payoutID); err != ErrPayoutNotPending {
		t.Errorf("repeat CompletePayout: expected ErrPayoutNotPending, got %v", err)
	}
}

func TestCompletePayoutInsufficientPending(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)

	credited, err := RecordCommission(ctx, affiliate.ID, fmt.Sprintf("pay_%s", uuid.New()), 60.00)
	if err != nil || !credited {
		t.Fatalf("RecordCommission: credited=%v err=%v", credited, err)
	}

	first := uuid.New()
	second := uuid.New()
	if err := CreatePayout(ctx, first, affiliate.ID, 60.00, affiliate.PayoutEmail); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	if err := CreatePayout(ctx, second, affiliate.ID, 60.00, affiliate.PayoutEmail); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	if err := CompletePayout(ctx, first); err != nil {
		t.Fatalf("CompletePayout: %v", err)
	}

	// The second request can no longer be covered; the transaction must
	// roll back without touching balances.
	if err := CompletePayout(ctx, second); err != ErrInsufficientPending {
		t.Fatalf("expected ErrInsufficientPending, got %v", err)
	}

	updated := mustGetAffiliate(t, ctx, affiliate.ID)
	if updated.PendingEarnings != 0 || updated.PaidEarnings != 60.00 {
		t.Errorf("balances changed: pending %v paid %v", updated.PendingEarnings, updated.PaidEarnings)
	}
	checkBalanceInvariant(t, updated)
}

func TestRejectPayout(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)

	credited, err := RecordCommission(ctx, affiliate.ID, fmt.Sprintf("pay_%s", uuid.New()), 75.00)
	if err != nil || !credited {
		t.Fatalf("RecordCommission: credited=%v err=%v", credited, err)
	}

	payoutID := uuid.New()
	if err := CreatePayout(ctx, payoutID, affiliate.ID, 75.00, affiliate.PayoutEmail); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	if err := RejectPayout(ctx, payoutID); err != nil {
		t.Fatalf("RejectPayout: %v", err)
	}

	payouts, err := GetAffiliatePayouts(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("GetAffiliatePayouts: %v", err)
	}
	if len(payouts) != 1 || payouts[0].Status != models.PayoutRejected {
		t.Errorf("payout not rejected: %+v", payouts)
	}

	// Rejection leaves the money where it was.
	updated := mustGetAffiliate(t, ctx, affiliate.ID)
	if updated.PendingEarnings != 75.00 || updated.PaidEarnings != 0 {
		t.Errorf("rejection moved money: pending %v paid %v", updated.PendingEarnings, updated.PaidEarnings)
	}

	if err := RejectPayout(ctx, payoutID); err != ErrPayoutNotPending {
		t.Errorf("repeat RejectPayout: expected ErrPayoutNotPending, got %v", err)
	}
}

func TestGetAffiliateStats(t *testing.T) {
	ctx := setupDB(t)

	affiliate := createTestAffiliate(t, ctx)
	visitorID := createTestUser(t, ctx)

	clicked := uuid.New()
	converted := uuid.New()
	for _, id := range []uuid.UUID{clicked, converted} {
		if err := CreateReferral(ctx, id, affiliate.ID); err != nil {
			t.Fatalf("CreateReferral: %v", err)
		}
	}
	if err := BindSignup(ctx, converted, visitorID); err != nil {
		t.Fatalf("BindSignup: %v", err)
	}
	if err := BindConversion(ctx, converted); err != nil {
		t.Fatalf("BindConversion: %v", err)
	}

	credited, err := RecordCommission(ctx, affiliate.ID, fmt.Sprintf("pay_%s", uuid.New()), 25.00)
	if err != nil || !credited {
		t.Fatalf("RecordCommission: credited=%v err=%v", credited, err)
	}

	stats, err := GetAffiliateStats(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("GetAffiliateStats: %v", err)
	}

	if stats.Clicks != 1 {
		t.Errorf("clicks = %d, want 1", stats.Clicks)
	}
	if stats.Conversions != 1 {
		t.Errorf("conversions = %d, want 1", stats.Conversions)
	}
	if stats.PendingCommissions != 25.00 {
		t.Errorf("pending commissions = %v, want 25.00", stats.PendingCommissions)
	}
}

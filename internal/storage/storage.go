package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/logger"
	"github.com/creatorly/affiliates/internal/models"
)

var (
	DB                     *sql.DB
	ErrConnectionFailed    = errors.New("db connection failed")
	ErrCreatingTableFailed = errors.New("creating table failed")
	ErrAffiliateExists     = errors.New("affiliate already exists")
	ErrPayoutNotPending    = errors.New("payout is not pending")
	ErrInsufficientPending = errors.New("pending earnings below payout amount")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func Init() error {
	if config.DatabaseURI == "" {
		return ErrConnectionFailed
	}

	db, err := sql.Open("pgx", config.DatabaseURI)
	if err != nil {
		logger.Log.Error("Error opening database connection", zap.Error(err))
		return ErrConnectionFailed
	}
	DB = db

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY NOT NULL,
			login VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS affiliates (
			id UUID PRIMARY KEY NOT NULL,
			user_id UUID UNIQUE NOT NULL REFERENCES users(id),
			code VARCHAR(16) UNIQUE NOT NULL,
			status VARCHAR(20) NOT NULL,
			payout_email VARCHAR(255) UNIQUE NOT NULL,
			pending_earnings DECIMAL(10, 2) NOT NULL DEFAULT 0.00 CHECK (pending_earnings >= 0),
			paid_earnings DECIMAL(10, 2) NOT NULL DEFAULT 0.00 CHECK (paid_earnings >= 0),
			lifetime_earnings DECIMAL(10, 2) NOT NULL DEFAULT 0.00 CHECK (lifetime_earnings >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS referrals (
			id UUID PRIMARY KEY NOT NULL,
			affiliate_id UUID NOT NULL REFERENCES affiliates(id),
			user_id UUID REFERENCES users(id),
			status VARCHAR(20) NOT NULL,
			clicked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			signed_up_at TIMESTAMP,
			converted_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS commissions (
			id UUID PRIMARY KEY NOT NULL,
			affiliate_id UUID NOT NULL REFERENCES affiliates(id),
			payment_key VARCHAR(255) UNIQUE NOT NULL,
			amount DECIMAL(10, 2) NOT NULL,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS payouts (
			id UUID PRIMARY KEY NOT NULL,
			affiliate_id UUID NOT NULL REFERENCES affiliates(id),
			amount DECIMAL(10, 2) NOT NULL,
			destination VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL,
			requested_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			processed_at TIMESTAMP
		);`,
	}

	for _, table := range tables {
		if _, err := DB.Exec(table); err != nil {
			logger.Log.Error("Error creating table", zap.Error(err))
			return ErrCreatingTableFailed
		}
	}

	return nil
}

func GetUserByLogin(ctx context.Context, login string) (models.User, error) {

	var existingUser models.User

	err := DB.QueryRowContext(ctx, `
		SELECT id, login, password_hash, created_at FROM users WHERE login = $1;
	`, login).Scan(&existingUser.ID, &existingUser.Login, &existingUser.PasswordHash, &existingUser.CreatedAt)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.User{}, err
		}
	}

	return existingUser, nil
}

func CreateUser(ctx context.Context, userID string, login string, passwordHash string) error {

	_, err := DB.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash) VALUES ($1, $2, $3);
	`, userID, login, passwordHash)

	return err
}

func CreateAffiliate(ctx context.Context, affiliate models.Affiliate) error {

	_, err := DB.ExecContext(ctx, `
		INSERT INTO affiliates (id, user_id, code, status, payout_email)
		VALUES ($1, $2, $3, $4, $5);
	`, affiliate.ID, affiliate.UserID, affiliate.Code, affiliate.Status, affiliate.PayoutEmail)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrAffiliateExists
		}
		return err
	}

	return nil
}

func AffiliateCodeTaken(ctx context.Context, code string) (bool, error) {

	var exists bool

	err := DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM affiliates WHERE code = $1);
	`, code).Scan(&exists)

	if err != nil {
		return false, err
	}

	return exists, nil
}

func scanAffiliate(row *sql.Row) (models.Affiliate, error) {
	var affiliate models.Affiliate

	err := row.Scan(&affiliate.ID, &affiliate.UserID, &affiliate.Code, &affiliate.Status,
		&affiliate.PayoutEmail, &affiliate.PendingEarnings, &affiliate.PaidEarnings,
		&affiliate.LifetimeEarnings, &affiliate.CreatedAt)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Affiliate{}, err
		}
	}

	return affiliate, nil
}

func GetAffiliateByCode(ctx context.Context, code string) (models.Affiliate, error) {
	return scanAffiliate(DB.QueryRowContext(ctx, `
		SELECT id, user_id, code, status, payout_email, pending_earnings, paid_earnings, lifetime_earnings, created_at
		FROM affiliates WHERE code = $1;
	`, code))
}

func GetAffiliateByUser(ctx context.Context, userID uuid.UUID) (models.Affiliate, error) {
	return scanAffiliate(DB.QueryRowContext(ctx, `
		SELECT id, user_id, code, status, payout_email, pending_earnings, paid_earnings, lifetime_earnings, created_at
		FROM affiliates WHERE user_id = $1;
	`, userID))
}

func GetAffiliateByID(ctx context.Context, affiliateID uuid.UUID) (models.Affiliate, error) {
	return scanAffiliate(DB.QueryRowContext(ctx, `
		SELECT id, user_id, code, status, payout_email, pending_earnings, paid_earnings, lifetime_earnings, created_at
		FROM affiliates WHERE id = $1;
	`, affiliateID))
}

func CreateReferral(ctx context.Context, referralID uuid.UUID, affiliateID uuid.UUID) error {

	_, err := DB.ExecContext(ctx, `
		INSERT INTO referrals (id, affiliate_id, status) VALUES ($1, $2, $3);
	`, referralID, affiliateID, models.ReferralClicked)

	if err != nil {
		logger.Log.Error("Error creating referral", zap.Error(err))
		return err
	}

	return nil
}

func GetReferral(ctx context.Context, referralID uuid.UUID) (models.Referral, error) {

	var referral models.Referral

	err := DB.QueryRowContext(ctx, `
		SELECT id, affiliate_id, user_id, status, clicked_at, signed_up_at, converted_at
		FROM referrals WHERE id = $1;
	`, referralID).Scan(&referral.ID, &referral.AffiliateID, &referral.UserID,
		&referral.Status, &referral.ClickedAt, &referral.SignedUpAt, &referral.ConvertedAt)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Referral{}, err
		}
	}

	return referral, nil
}

// BindSignup attaches the new user to a clicked referral. The status
// condition makes retries no-ops: a referral already past clicked is
// left untouched.
func BindSignup(ctx context.Context, referralID uuid.UUID, userID uuid.UUID) error {

	_, err := DB.ExecContext(ctx, `
		UPDATE referrals
		SET user_id = $2, status = $3, signed_up_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $4;
	`, referralID, userID, models.ReferralSignedUp, models.ReferralClicked)

	return err
}

// BindConversion advances a signed_up referral to converted. Repeat
// calls match no rows and are no-ops.
func BindConversion(ctx context.Context, referralID uuid.UUID) error {

	_, err := DB.ExecContext(ctx, `
		UPDATE referrals
		SET status = $2, converted_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $3;
	`, referralID, models.ReferralConverted, models.ReferralSignedUp)

	return err
}

// GetLatestAttributableReferral returns the newest referral bound to
// the user that can still earn commissions. Absence is a zero value,
// not an error: most payers were never referred.
func GetLatestAttributableReferral(ctx context.Context, userID uuid.UUID) (models.Referral, error) {

	var referral models.Referral

	err := DB.QueryRowContext(ctx, `
		SELECT id, affiliate_id, user_id, status, clicked_at, signed_up_at, converted_at
		FROM referrals
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY clicked_at DESC
		LIMIT 1;
	`, userID, models.ReferralSignedUp, models.ReferralConverted).Scan(
		&referral.ID, &referral.AffiliateID, &referral.UserID,
		&referral.Status, &referral.ClickedAt, &referral.SignedUpAt, &referral.ConvertedAt)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Referral{}, err
		}
	}

	return referral, nil
}

// RecordCommission inserts the commission row and credits the
// affiliate's pending balance in one transaction. The UNIQUE
// constraint on payment_key is the source of truth for "already
// processed": when the insert hits the conflict, nothing is credited
// and the call reports false. The balance update is a single
// arithmetic UPDATE touching pending and lifetime together, so the
// pending + paid == lifetime invariant holds under concurrent events.
func RecordCommission(ctx context.Context, affiliateID uuid.UUID, paymentKey string, amount float64) (bool, error) {

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	var commissionID uuid.UUID

	err = tx.QueryRowContext(ctx, `
		INSERT INTO commissions (id, affiliate_id, payment_key, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_key) DO NOTHING
		RETURNING id;
	`, uuid.New(), affiliateID, paymentKey, amount, models.CommissionPending).Scan(&commissionID)

	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE affiliates
		SET pending_earnings = pending_earnings + $1, lifetime_earnings = lifetime_earnings + $1
		WHERE id = $2;
	`, amount, affiliateID)

	if err != nil {
		tx.Rollback()
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

func GetAffiliateCommissions(ctx context.Context, affiliateID uuid.UUID) ([]models.Commission, error) {

	var commissions []models.Commission

	rows, err := DB.QueryContext(ctx, `
		SELECT id, affiliate_id, payment_key, amount, status, created_at
		FROM commissions WHERE affiliate_id = $1 ORDER BY created_at DESC;
	`, affiliateID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var commission models.Commission
		err = rows.Scan(&commission.ID, &commission.AffiliateID, &commission.PaymentKey,
			&commission.Amount, &commission.Status, &commission.CreatedAt)
		if err != nil {
			return nil, err
		}
		commissions = append(commissions, commission)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return commissions, nil
}

func CreatePayout(ctx context.Context, payoutID uuid.UUID, affiliateID uuid.UUID, amount float64, destination string) error {

	_, err := DB.ExecContext(ctx, `
		INSERT INTO payouts (id, affiliate_id, amount, destination, status)
		VALUES ($1, $2, $3, $4, $5);
	`, payoutID, affiliateID, amount, destination, models.PayoutRequested)

	return err
}

func GetAffiliatePayouts(ctx context.Context, affiliateID uuid.UUID) ([]models.Payout, error) {

	var payouts []models.Payout

	rows, err := DB.QueryContext(ctx, `
		SELECT id, affiliate_id, amount, destination, status, requested_at, processed_at
		FROM payouts WHERE affiliate_id = $1 ORDER BY requested_at DESC;
	`, affiliateID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var payout models.Payout
		err = rows.Scan(&payout.ID, &payout.AffiliateID, &payout.Amount, &payout.Destination,
			&payout.Status, &payout.RequestedAt, &payout.ProcessedAt)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, payout)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payouts, nil
}

// CompletePayout marks a requested payout as paid and moves the amount
// from pending to paid earnings in one transaction. The balance UPDATE
// is guarded by pending_earnings >= amount; if commissions were
// reversed since the request, the whole transaction rolls back.
// Pending commissions are flipped to paid oldest-first up to the paid
// amount.
func CompletePayout(ctx context.Context, payoutID uuid.UUID) error {

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var affiliateID uuid.UUID
	var amount float64

	err = tx.QueryRowContext(ctx, `
		UPDATE payouts
		SET status = $2, processed_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status IN ($3, $4)
		RETURNING affiliate_id, amount;
	`, payoutID, models.PayoutPaid, models.PayoutRequested, models.PayoutProcessing).Scan(&affiliateID, &amount)

	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPayoutNotPending
		}
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE affiliates
		SET pending_earnings = pending_earnings - $1, paid_earnings = paid_earnings + $1
		WHERE id = $2 AND pending_earnings >= $1;
	`, amount, affiliateID)

	if err != nil {
		tx.Rollback()
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrInsufficientPending
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE commissions SET status = $3 WHERE id IN (
			SELECT id FROM (
				SELECT id, SUM(amount) OVER (ORDER BY created_at, id) AS running
				FROM commissions WHERE affiliate_id = $1 AND status = $4
			) pending WHERE pending.running <= $2
		);
	`, affiliateID, amount, models.CommissionPaid, models.CommissionPending)

	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func RejectPayout(ctx context.Context, payoutID uuid.UUID) error {

	res, err := DB.ExecContext(ctx, `
		UPDATE payouts
		SET status = $2, processed_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status IN ($3, $4);
	`, payoutID, models.PayoutRejected, models.PayoutRequested, models.PayoutProcessing)

	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPayoutNotPending
	}

	return nil
}

func GetAffiliateStats(ctx context.Context, affiliateID uuid.UUID) (models.AffiliateStats, error) {

	var stats models.AffiliateStats

	err := DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4)
		FROM referrals WHERE affiliate_id = $1;
	`, affiliateID, models.ReferralClicked, models.ReferralSignedUp, models.ReferralConverted).Scan(
		&stats.Clicks, &stats.Signups, &stats.Conversions)

	if err != nil {
		return models.AffiliateStats{}, err
	}

	err = DB.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = $3), 0)
		FROM commissions WHERE affiliate_id = $1;
	`, affiliateID, models.CommissionPending, models.CommissionPaid).Scan(
		&stats.PendingCommissions, &stats.PaidCommissions)

	if err != nil {
		return models.AffiliateStats{}, err
	}

	return stats, nil
}

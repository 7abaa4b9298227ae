package referral

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/creatorly/affiliates/internal/auth"
)

// AttributionWindow is how long a referral click stays redeemable at signup.
const AttributionWindow = 30 * 24 * time.Hour

// CookieName is the client-side attribution cookie written by the
// click-tracking redirect and read back during registration.
const CookieName = "creatorly_ref"

type Attribution struct {
	Code       string
	ReferralID uuid.UUID
}

func IssueToken(code string, referralID uuid.UUID) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"code": code,
		"rid":  referralID.String(),
		"exp":  time.Now().Add(AttributionWindow).Unix(),
	})

	return token.SignedString(auth.SecretKey())
}

// ResolveToken parses the client-held attribution token. A missing,
// malformed or expired token resolves to no attribution, never an
// error: tracking must not be able to block signup.
func ResolveToken(tokenString string) (Attribution, bool) {
	if tokenString == "" {
		return Attribution{}, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, auth.ErrInvalidToken
		}
		return auth.SecretKey(), nil
	})
	if err != nil || !token.Valid {
		return Attribution{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Attribution{}, false
	}

	code, ok := claims["code"].(string)
	if !ok || code == "" {
		return Attribution{}, false
	}

	rawID, ok := claims["rid"].(string)
	if !ok {
		return Attribution{}, false
	}

	referralID, err := uuid.Parse(rawID)
	if err != nil {
		return Attribution{}, false
	}

	return Attribution{Code: code, ReferralID: referralID}, true
}

package affiliate

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

// Charset leaves out 0/O and 1/I so codes survive being read aloud
// or retyped from a screenshot.
const (
	CodeLength  = 8
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 5
)

var (
	ErrCodeExhausted      = errors.New("could not generate a unique affiliate code")
	ErrInvalidPayoutEmail = errors.New("invalid payout email")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func GenerateCode(length int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeCharset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeCharset[n.Int64()])
	}

	return b.String(), nil
}

// NewCode generates a code and retries on collision, using taken to
// check the code against existing affiliates.
func NewCode(taken func(code string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode(CodeLength)
		if err != nil {
			return "", err
		}

		exists, err := taken(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrCodeExhausted
}

func ValidatePayoutEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidPayoutEmail
	}
	return nil
}

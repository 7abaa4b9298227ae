package affiliate

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(CodeLength)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	if len(code) != CodeLength {
		t.Errorf("code length = %d, want %d", len(code), CodeLength)
	}

	for _, r := range code {
		if !strings.ContainsRune(codeCharset, r) {
			t.Errorf("code %q contains %q outside charset", code, r)
		}
	}
}

func TestNewCodeRetriesOnCollision(t *testing.T) {
	calls := 0
	code, err := NewCode(func(string) (bool, error) {
		calls++
		return calls == 1, nil
	})
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	if code == "" {
		t.Error("expected a code after collision retry")
	}
	if calls != 2 {
		t.Errorf("taken called %d times, want 2", calls)
	}
}

func TestNewCodeExhaustsRetries(t *testing.T) {
	_, err := NewCode(func(string) (bool, error) {
		return true, nil
	})
	if err != ErrCodeExhausted {
		t.Errorf("expected ErrCodeExhausted, got %v", err)
	}
}

func TestValidatePayoutEmail(t *testing.T) {
	if err := ValidatePayoutEmail("creator@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}

	for _, email := range []string{"", "   ", "no-at-sign", "a@b", "@example.com"} {
		if err := ValidatePayoutEmail(email); err != ErrInvalidPayoutEmail {
			t.Errorf("ValidatePayoutEmail(%q) = %v, want ErrInvalidPayoutEmail", email, err)
		}
	}
}

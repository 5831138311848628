// Package password is the credential vault: bcrypt hashing/verification and
// the registration password policy.
package password

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Cost is tuned so hashing takes on the order of 100ms on current server
// hardware.
const Cost = 12

const minLength = 12

// Sequences that disqualify a password wherever they appear, matched
// case-insensitively.
var weakSubstrings = []string{
	"qwerty",
	"123456",
	"abcdef",
	"letmein",
	"procura",
}

// Dictionary words rejected only when they make up the whole password;
// "Password123!" stays legal while bare "password" does not.
var weakExact = []string{
	"password",
	"admin",
	"welcome",
}

func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether plain matches hash. bcrypt's comparison is
// constant-time over the digest, so mismatches do not leak position.
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPolicy returns every violation at once (empty slice = acceptable).
// Policy: length >= 12, at least 3 of 4 character classes, no weak sequence
// anywhere in the password, and no bare dictionary word.
func CheckPolicy(plain string) []string {
	var violations []string

	if len(plain) < minLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters long", minLength))
	}

	var lower, upper, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	classes := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			classes++
		}
	}
	if classes < 3 {
		violations = append(violations, "must use at least 3 of: lowercase, uppercase, digits, symbols")
	}

	lowered := strings.ToLower(plain)
	for _, weak := range weakSubstrings {
		if strings.Contains(lowered, weak) {
			violations = append(violations, fmt.Sprintf("must not contain %q", weak))
		}
	}
	for _, weak := range weakExact {
		if lowered == weak {
			violations = append(violations, fmt.Sprintf("must not be %q", weak))
		}
	}

	return violations
}

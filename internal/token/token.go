// Package token mints and verifies the signed bearer tokens that back
// sessions. Issuing and parsing are pure; revocation lives on the user record
// (session version) and is enforced by the auth middleware.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/procura-app/procura/internal/domain"
)

// SessionTTL is the fixed lifetime of an issued token. Rotating the signing
// key invalidates every outstanding token; that is accepted behavior.
const SessionTTL = 7 * 24 * time.Hour

// Claims is the payload carried by a session token.
type Claims struct {
	Email          string `json:"email,omitempty"`
	SessionVersion int    `json:"sv,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject, or an error if the subject claim is not
// a well-formed id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrTokenInvalid
	}
	return id, nil
}

type Issuer struct {
	key []byte
	ttl time.Duration
}

func NewIssuer(key []byte) *Issuer {
	return &Issuer{key: key, ttl: SessionTTL}
}

// Issue signs a token for the user, embedding the session version current at
// issuance.
func (i *Issuer) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:          user.EmailOrEmpty(),
		SessionVersion: user.SessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature and expiry and returns the claims. It does not
// compare the session version against the live user record.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

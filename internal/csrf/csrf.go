// Package csrf implements double-submit-cookie protection: the same random
// value must arrive both as a cookie and as a request header. No server-side
// token storage; the small replay window inside the cookie domain is a
// documented trade-off of the pattern.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/metrics"
)

const cookieTTL = 24 * 60 * 60 // seconds

type Guard struct {
	cookieName string
	headerName string
	secure     bool
}

func NewGuard(cookieName, headerName string, secure bool) *Guard {
	return &Guard{cookieName: cookieName, headerName: headerName, secure: secure}
}

// NewToken returns a fresh random token (256 bits, URL-safe base64).
func NewToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// SetCookie writes the token as a readable (non-HTTP-only) cookie so the
// frontend can mirror it into the request header.
func (g *Guard) SetCookie(c *gin.Context, tok string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     g.cookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   cookieTTL,
		HttpOnly: false,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware rejects any non-safe-method request whose CSRF header does not
// match the CSRF cookie byte for byte. GET/HEAD/OPTIONS pass unconditionally.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookie, err := c.Cookie(g.cookieName)
		header := c.GetHeader(g.headerName)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			metrics.CSRFRejectionsTotal.Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token missing or invalid"})
			return
		}

		c.Next()
	}
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/csrf"
	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/token"
)

// SessionWriter owns the cookie side of session establishment: the HTTP-only
// bearer cookie plus a freshly rotated CSRF cookie on every
// authentication-establishing response.
type SessionWriter struct {
	cookieName string
	production bool
	guard      *csrf.Guard
}

func NewSessionWriter(cookieName string, production bool, guard *csrf.Guard) *SessionWriter {
	return &SessionWriter{cookieName: cookieName, production: production, guard: guard}
}

// Establish sets the session cookie and rotates the CSRF cookie, returning
// the CSRF token for inclusion in the response body.
func (s *SessionWriter) Establish(c *gin.Context, signed string) (string, error) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(token.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.production,
		SameSite: s.sameSite(),
	})

	csrfToken, err := csrf.NewToken()
	if err != nil {
		return "", err
	}
	s.guard.SetCookie(c, csrfToken)
	return csrfToken, nil
}

func (s *SessionWriter) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.production,
		SameSite: s.sameSite(),
	})
}

func (s *SessionWriter) sameSite() http.SameSite {
	if s.production {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

type userResponse struct {
	ID        int64           `json:"id"`
	Provider  domain.Provider `json:"provider"`
	Email     string          `json:"email,omitempty"`
	Name      string          `json:"name,omitempty"`
	Role      domain.Role     `json:"role"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Provider:  u.Provider,
		Email:     u.EmailOrEmpty(),
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/authctx"
	"github.com/procura-app/procura/internal/repository"
	"github.com/procura-app/procura/internal/token"
)

const errUnauthorized = "Unauthorized"

// RequireAuth is the session gate: it pulls the bearer token from the session
// cookie, validates signature and expiry, loads the subject, and enforces the
// session version. All failure modes answer an identical 401 so callers
// cannot probe which step failed.
func RequireAuth(issuer *token.Issuer, users repository.UserRepository, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := issuer.Parse(raw)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c)
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil || !user.Active {
			abortUnauthorized(c)
			return
		}

		// A zero version on either side means a legacy record or token from
		// before versioning; those are treated as version 1 and never blocked
		// until a bump writes a real version.
		if claims.SessionVersion != 0 && user.SessionVersion != 0 &&
			claims.SessionVersion != user.SessionVersion {
			abortUnauthorized(c)
			return
		}

		c.Request = c.Request.WithContext(authctx.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
}

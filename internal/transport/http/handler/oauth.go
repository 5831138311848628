package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/csrf"
	"github.com/procura-app/procura/internal/domain"
)

const stateCookieName = "procura_oauth_state"
const stateCookieTTL = 10 * 60 // seconds

type oauthUsecaser interface {
	AuthURL(provider domain.Provider, redirectURI, state string) (string, error)
	Configured(provider domain.Provider) bool
	Callback(ctx context.Context, provider domain.Provider, code, redirectURI string) (*domain.User, string, error)
}

type OAuthHandler struct {
	oauth      oauthUsecaser
	sessions   *SessionWriter
	baseURL    string
	production bool
	logger     *slog.Logger
}

func NewOAuthHandler(oauth oauthUsecaser, sessions *SessionWriter, baseURL string, production bool, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauth:      oauth,
		sessions:   sessions,
		baseURL:    baseURL,
		production: production,
		logger:     logger.With("component", "oauth_handler"),
	}
}

// Start begins the handoff for a provider: redirect to the provider's
// authorize URL when configured, straight to our own callback in dev mode,
// 501 when production has no credentials.
func (h *OAuthHandler) Start(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		redirectURI := h.callbackURL(provider)

		if !h.oauth.Configured(provider) {
			if h.production {
				c.JSON(http.StatusNotImplemented, gin.H{"error": errNotConfigured})
				return
			}
			c.Redirect(http.StatusFound, redirectURI)
			return
		}

		state, err := csrf.NewToken()
		if err != nil {
			h.logger.ErrorContext(c.Request.Context(), "oauth state", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			return
		}
		h.setStateCookie(c, state)

		authURL, err := h.oauth.AuthURL(provider, redirectURI, state)
		if err != nil {
			h.logger.ErrorContext(c.Request.Context(), "oauth auth url", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			return
		}
		c.Redirect(http.StatusFound, authURL)
	}
}

// FinishCallback completes the handoff and establishes a session.
func (h *OAuthHandler) FinishCallback(provider domain.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.oauth.Configured(provider) {
			state, err := c.Cookie(stateCookieName)
			if err != nil || state == "" || state != c.Query("state") {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
				return
			}
			h.clearStateCookie(c)
		}

		user, signed, err := h.oauth.Callback(c.Request.Context(), provider, c.Query("code"), h.callbackURL(provider))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotConfigured):
				c.JSON(http.StatusNotImplemented, gin.H{"error": errNotConfigured})
			case errors.Is(err, domain.ErrInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			case errors.Is(err, domain.ErrDuplicateEmail):
				c.JSON(http.StatusBadRequest, gin.H{"error": errDuplicateEmail})
			default:
				h.logger.ErrorContext(c.Request.Context(), "oauth callback", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			}
			return
		}

		csrfToken, err := h.sessions.Establish(c, signed)
		if err != nil {
			h.logger.ErrorContext(c.Request.Context(), "establish session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user), "csrf": csrfToken})
	}
}

func (h *OAuthHandler) callbackURL(provider domain.Provider) string {
	return h.baseURL + "/auth/" + string(provider) + "/callback"
}

func (h *OAuthHandler) setStateCookie(c *gin.Context, state string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *OAuthHandler) clearStateCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/authctx"
	"github.com/procura-app/procura/internal/domain"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	ChangePassword(ctx context.Context, user *domain.User, current, next string) error
	RevokeAll(ctx context.Context, userID int64) error
	UpdateProfile(ctx context.Context, userID int64, name string) (*domain.User, error)
}

type AuthHandler struct {
	auth     authUsecaser
	sessions *SessionWriter
	logger   *slog.Logger
}

func NewAuthHandler(auth authUsecaser, sessions *SessionWriter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		logger:   logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"     binding:"max=200"`
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, signed, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		var policyErr *domain.PolicyError
		switch {
		case errors.As(err, &policyErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": errWeakPassword, "violations": policyErr.Violations})
		case errors.Is(err, domain.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": errDuplicateEmail})
		default:
			h.logger.ErrorContext(c.Request.Context(), "register", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	h.respondWithSession(c, http.StatusCreated, user, signed)
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, signed, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.respondWithSession(c, http.StatusOK, user, signed)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /auth/logout-all
// Bumps the session version, so every outstanding token dies, then clears
// this client's cookie.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user, ok := authctx.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	}

	if err := h.auth.RevokeAll(c.Request.Context(), user.ID); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "logout all", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := authctx.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	h.Me(c)
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := authctx.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "update profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(updated)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"     binding:"required"`
}

// POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := authctx.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var policyErr *domain.PolicyError
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		case errors.As(err, &policyErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": errWeakPassword, "violations": policyErr.Violations})
		default:
			h.logger.ErrorContext(c.Request.Context(), "change password", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) respondWithSession(c *gin.Context, status int, user *domain.User, signed string) {
	csrfToken, err := h.sessions.Establish(c, signed)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "establish session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(status, gin.H{"user": newUserResponse(user), "csrf": csrfToken})
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/usecase"
)

type resetUsecaser interface {
	Request(ctx context.Context, email string) (*usecase.ResetIssue, error)
	Consume(ctx context.Context, rawToken, newPassword string) error
}

type ResetHandler struct {
	reset resetUsecaser
	// production suppresses the token echo in the forgot response.
	production bool
	logger     *slog.Logger
}

func NewResetHandler(reset resetUsecaser, production bool, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{
		reset:      reset,
		production: production,
		logger:     logger.With("component", "reset_handler"),
	}
}

type forgotRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/forgot
// Always answers {"ok":true} whether or not the email matched, so the
// endpoint cannot be used to enumerate accounts. Outside production the raw
// token rides along for frontend development.
func (h *ResetHandler) Forgot(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := h.reset.Request(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "reset request", "error", err)
	}

	resp := gin.H{"ok": true}
	if !h.production && issue != nil {
		resp["token"] = issue.Token
		resp["expires"] = issue.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

type resetRequest struct {
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/reset
func (h *ResetHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reset.Consume(c.Request.Context(), req.Token, req.Password); err != nil {
		var policyErr *domain.PolicyError
		switch {
		case errors.As(err, &policyErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": errWeakPassword, "violations": policyErr.Violations})
		case errors.Is(err, domain.ErrResetTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": errResetTokenInvalid})
		default:
			h.logger.ErrorContext(c.Request.Context(), "reset consume", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

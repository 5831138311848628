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

type phoneUsecaser interface {
	RequestCode(ctx context.Context, phone string) (*usecase.CodeIssue, error)
	VerifyCode(ctx context.Context, phone, code string) (*domain.User, string, error)
}

type PhoneHandler struct {
	phone      phoneUsecaser
	sessions   *SessionWriter
	production bool
	logger     *slog.Logger
}

func NewPhoneHandler(phone phoneUsecaser, sessions *SessionWriter, production bool, logger *slog.Logger) *PhoneHandler {
	return &PhoneHandler{
		phone:      phone,
		sessions:   sessions,
		production: production,
		logger:     logger.With("component", "phone_handler"),
	}
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// POST /auth/phone
func (h *PhoneHandler) RequestCode(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, err := h.phone.RequestCode(c.Request.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": usecase.ErrInvalidPhone.Error()})
		case errors.Is(err, domain.ErrNotConfigured):
			c.JSON(http.StatusNotImplemented, gin.H{"error": errNotConfigured})
		default:
			h.logger.ErrorContext(c.Request.Context(), "phone code request", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	resp := gin.H{"ok": true}
	if !h.production {
		resp["code"] = issue.Code
		resp["expires"] = issue.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

type phoneVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code"  binding:"required,len=6,numeric"`
}

// POST /auth/phone/verify
func (h *PhoneHandler) VerifyCode(c *gin.Context) {
	var req phoneVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, signed, err := h.phone.VerifyCode(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": usecase.ErrInvalidPhone.Error()})
		case errors.Is(err, domain.ErrCodeInvalid), errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		default:
			h.logger.ErrorContext(c.Request.Context(), "phone code verify", "error", err)
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

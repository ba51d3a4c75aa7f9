package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/dto"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/util"
	"go.uber.org/zap"
)

type authResponse struct {
	Token     string                  `json:"token"`
	User      *dto.UserDetailResponse `json:"user"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// Login exchanges credentials (and a TOTP code when enabled) for a token
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		logger.Log.Info("Login failed", logger.WithIP(c.ClientIP()), zap.Error(err))
		util.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token:     resp.Token,
		User:      dto.ToUserDetailResponse(resp.User),
		ExpiresAt: resp.ExpiresAt.UTC(),
	})
}

// RequestPasswordReset emails a reset link. The response is the same whether
// or not the address belongs to an account.
// POST /api/v1/auth/password-reset/request
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

// ConfirmPasswordReset sets a new password with a reset token
// POST /api/v1/auth/password-reset/confirm
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// Me returns the current account
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	resp := gin.H{"user": dto.ToUserDetailResponse(currentUser)}
	if admin, ok := util.GetImpersonator(c); ok {
		resp["impersonated_by"] = dto.ToUserResponse(admin)
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePassword
// POST /api/v1/auth/password
func (h *Handlers) ChangePassword(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), currentUser, req.CurrentPassword, req.NewPassword); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// SetupTOTP generates a new TOTP secret. The second factor stays off until
// it is confirmed with EnableTOTP.
// POST /api/v1/auth/totp/setup
func (h *Handlers) SetupTOTP(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	setup, err := h.auth.SetupTOTP(c.Request.Context(), currentUser)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, setup)
}

type totpRequest struct {
	Code     string `json:"code" binding:"required,len=6,numeric"`
	Password string `json:"password"`
}

// EnableTOTP
// POST /api/v1/auth/totp/enable
func (h *Handlers) EnableTOTP(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req totpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	if err := h.auth.EnableTOTP(c.Request.Context(), currentUser, req.Code); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": true})
}

// DisableTOTP requires both the password and a current code
// POST /api/v1/auth/totp/disable
func (h *Handlers) DisableTOTP(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req totpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Password == "" {
		util.RespondValidationError(c, "password", "password is required")
		return
	}

	if err := h.auth.DisableTOTP(c.Request.Context(), currentUser, req.Password, req.Code); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": false})
}

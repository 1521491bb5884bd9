package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/middleware"
	"github.com/fleetdesk/contracts/model"
	"github.com/fleetdesk/contracts/pkg/logger"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Tenant    string `json:"tenant"`
	Role      string `json:"role"`
}

// Login checks the password against the configured bcrypt hash and issues a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user := h.config.FindUser(req.Username)
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		logger.Warn(c.Request.Context(), "login failed", "username", req.Username)
		respondErrors(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	actor := model.Actor{ID: user.ID, Username: user.Username, TenantID: user.Tenant, Role: user.Role}
	token, expiresAt, err := middleware.GenerateToken(actor, &h.config.Auth)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to sign token", "error", err)
		respondErrors(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondOK(c, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    user.ID,
		Username:  user.Username,
		Tenant:    user.Tenant,
		Role:      user.Role,
	})
}

// GetCurrentUser returns the current user info
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor := middleware.GetActor(c)

	respondOK(c, http.StatusOK, gin.H{
		"user_id":   actor.ID,
		"username":  actor.Username,
		"tenant":    actor.TenantID,
		"role":      actor.Role,
		"can_write": actor.CanWrite(),
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/auth"
	"github.com/hypanel/hypanel/internal/instance"
)

const adminPasswordHashKey = "admin_password_hash"

// AuthHandler handles panel authentication. The panel has a single admin
// account whose bcrypt hash lives in the settings table.
type AuthHandler struct {
	store      *instance.Store
	jwtManager *auth.JWTManager
	bcryptCost int
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store *instance.Store, jwtManager *auth.JWTManager, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		store:      store,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
	}
}

// SetupStatus reports whether initial setup is still required
func (h *AuthHandler) SetupStatus(c *gin.Context) {
	completed, err := h.store.IsOnboardingCompleted()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"needs_setup": !completed})
}

// Setup stores the admin password and completes onboarding
func (h *AuthHandler) Setup(c *gin.Context) {
	completed, err := h.store.IsOnboardingCompleted()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if completed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Setup already completed"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := h.store.SetSetting(adminPasswordHashKey, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save credentials"})
		return
	}
	if err := h.store.SetOnboardingCompleted(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete setup"})
		return
	}

	h.issueToken(c)
}

// Login authenticates the admin password and issues a session token
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := h.store.GetSetting(adminPasswordHashKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if hash == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Initial setup required"})
		return
	}

	if err := auth.VerifyPassword(req.Password, hash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	h.issueToken(c)
}

func (h *AuthHandler) issueToken(c *gin.Context) {
	token, err := h.jwtManager.GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": h.jwtManager.TokenExpiry().UTC().Format(time.RFC3339),
	})
}

// Package api - Authentication handlers
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/audit"
	"github.com/meridian/supplyhub/internal/auth"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/meridian/supplyhub/internal/rbac"
	"gorm.io/gorm"
)

// LoginRateLimiter throttles login attempts per IP/username pair:
// 5 attempts per 5 minute window, then a 15 minute block.
type LoginRateLimiter struct {
	attempts map[string]*loginAttempt
	mu       sync.RWMutex
}

type loginAttempt struct {
	count     int
	firstTry  time.Time
	blockedAt *time.Time
}

// NewLoginRateLimiter creates a rate limiter with a background sweep
// of stale entries.
func NewLoginRateLimiter() *LoginRateLimiter {
	rl := &LoginRateLimiter{attempts: make(map[string]*loginAttempt)}
	go rl.cleanup()
	return rl
}

// Allow checks if a login attempt is allowed.
func (rl *LoginRateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	attempt, exists := rl.attempts[key]

	if !exists {
		rl.attempts[key] = &loginAttempt{count: 1, firstTry: now}
		return true, 4, 0
	}

	if attempt.blockedAt != nil {
		blockDuration := 15 * time.Minute
		if now.Sub(*attempt.blockedAt) < blockDuration {
			remaining := blockDuration - now.Sub(*attempt.blockedAt)
			return false, 0, remaining
		}
		attempt.count = 1
		attempt.firstTry = now
		attempt.blockedAt = nil
		return true, 4, 0
	}

	if now.Sub(attempt.firstTry) > 5*time.Minute {
		attempt.count = 1
		attempt.firstTry = now
		return true, 4, 0
	}

	attempt.count++
	if attempt.count > 5 {
		attempt.blockedAt = &now
		return false, 0, 15 * time.Minute
	}
	return true, 5 - attempt.count, 0
}

// Reset clears the attempts for a key after a successful login.
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

func (rl *LoginRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, attempt := range rl.attempts {
			if now.Sub(attempt.firstTry) > 30*time.Minute {
				delete(rl.attempts, key)
			}
		}
		rl.mu.Unlock()
	}
}

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	db          *gorm.DB
	jwtService  *auth.JWTService
	rbacSvc     *rbac.Service
	auditSvc    *audit.Service
	rateLimiter *LoginRateLimiter
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(db *gorm.DB, jwtService *auth.JWTService, rbacSvc *rbac.Service, auditSvc *audit.Service) *AuthHandler {
	return &AuthHandler{
		db:          db,
		jwtService:  jwtService,
		rbacSvc:     rbacSvc,
		auditSvc:    auditSvc,
		rateLimiter: NewLoginRateLimiter(),
	}
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest carries registration data.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RefreshRequest carries a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// Login authenticates a user and returns tokens
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	rateLimitKey := c.ClientIP() + ":" + req.Username
	allowed, remaining, retryAfter := h.rateLimiter.Allow(rateLimitKey)
	if !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": retryAfter.Seconds(),
			"message":     "Please wait before trying again",
		})
		return
	}

	var user models.User
	err := h.db.Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "attempts_remaining": remaining})
		} else {
			status, response := apperrors.ToHTTPError(err)
			c.JSON(status, response)
		}
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "attempts_remaining": remaining})
		return
	}

	h.rateLimiter.Reset(rateLimitKey)

	tokens, err := h.jwtService.GenerateTokenPair(user.ID, user.Username, user.IsSuperuser)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", now)

	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditLogin,
		ObjectType:  "User",
		ObjectID:    user.ID.String(),
		Description: fmt.Sprintf("User %s logged in", user.Username),
		IPAddress:   c.ClientIP(),
	})

	role, _ := h.rbacSvc.UserRole(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
		"role":   role,
	})
}

// Register creates a new user account with the default role
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var existingCount int64
	h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&existingCount)
	if existingCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	user := models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	role, err := h.rbacSvc.AssignDefaultRole(c.Request.Context(), user.ID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(user.ID, user.Username, user.IsSuperuser)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditCreate,
		ObjectType:  "User",
		ObjectID:    user.ID.String(),
		Description: fmt.Sprintf("User %s registered", user.Username),
		IPAddress:   c.ClientIP(),
	})

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
		"role":   role,
	})
}

// RefreshToken generates new tokens using a refresh token
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	claims, err := h.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	var user models.User
	if err := h.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(user.ID, user.Username, user.IsSuperuser)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// GetMe returns the authenticated user with their role
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := currentUser(c)
	role, _ := h.rbacSvc.UserRole(c.Request.Context(), user.ID)
	c.JSON(http.StatusOK, gin.H{"user": user, "role": role})
}

// ChangePassword updates the authenticated user's password
// POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	user := currentUser(c)
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	if err := h.db.Model(user).Update("password_hash", newHash).Error; err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// Logout records the logout in the audit trail. Tokens are stateless,
// so the client simply discards them.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user := currentUser(c)
	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditLogout,
		ObjectType:  "User",
		ObjectID:    user.ID.String(),
		Description: fmt.Sprintf("User %s logged out", user.Username),
		IPAddress:   c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

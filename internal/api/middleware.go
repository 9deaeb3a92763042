// Package api - HTTP middleware
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meridian/supplyhub/internal/auth"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/meridian/supplyhub/internal/rbac"
	"gorm.io/gorm"
)

const userContextKey = "current_user"

// AuthMiddleware validates the bearer token and loads the user onto
// the request context. Requests without a valid token are rejected.
func AuthMiddleware(db *gorm.DB, jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
			c.Abort()
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// currentUser returns the authenticated user set by AuthMiddleware.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userContextKey).(*models.User)
}

// RequirePermission gates a route on one permission code. A denial is
// audited and fanned out to admins before the 403 is returned.
func RequirePermission(rbacSvc *rbac.Service, code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		allowed, err := rbacSvc.HasPermission(c.Request.Context(), user, code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "permission check failed"})
			c.Abort()
			return
		}
		if !allowed {
			rbacSvc.RecordDenial(c.Request.Context(), user, code, c.ClientIP())
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "permission denied",
				"message": "You do not have the required permission: " + code,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

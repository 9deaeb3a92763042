// Package api - Router setup
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meridian/supplyhub/internal/auth"
	"github.com/meridian/supplyhub/internal/config"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/meridian/supplyhub/internal/rbac"
	"gorm.io/gorm"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Company      *CompanyHandler
	Inventory    *InventoryHandler
	Sales        *SalesHandler
	RBAC         *RBACHandler
	Notification *NotificationHandler
	Report       *ReportHandler
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg *config.Config, db *gorm.DB, jwtService *auth.JWTService, rbacSvc *rbac.Service, h Handlers) *gin.Engine {
	r := gin.Default()

	// When credentials are used, specific origins must be provided (not *)
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		// Development defaults - in production, set CORS_ALLOWED_ORIGINS
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8090",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8090",
		}
	}
	r.Use(cors.New(corsConfig))

	// Health check (no auth required)
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "supplyhub"})
	})

	// Public auth endpoints
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/refresh", h.Auth.RefreshToken)
	}

	authed := AuthMiddleware(db, jwtService)
	perm := func(code string) gin.HandlerFunc { return RequirePermission(rbacSvc, code) }

	authProtected := r.Group("/auth")
	authProtected.Use(authed)
	{
		authProtected.GET("/me", h.Auth.GetMe)
		authProtected.POST("/change-password", h.Auth.ChangePassword)
		authProtected.POST("/logout", h.Auth.Logout)
	}

	api := r.Group("/api")
	api.Use(authed)
	{
		// Dashboard
		api.GET("/dashboard/metrics", perm(models.PermViewDashboard), h.Sales.DashboardMetrics)

		// Companies
		api.GET("/companies", perm(models.PermViewCompanies), h.Company.List)
		api.GET("/companies/:id", perm(models.PermViewCompanies), h.Company.Get)
		api.POST("/companies", perm(models.PermEditCompanies), h.Company.Create)
		api.PATCH("/companies/:id", perm(models.PermEditCompanies), h.Company.Update)
		api.DELETE("/companies/:id", perm(models.PermDeleteCompanies), h.Company.Delete)
		api.POST("/companies/:id/merge", perm(models.PermEditCompanies), h.Company.Merge)

		// Inventory and warehouses
		api.GET("/inventory", perm(models.PermViewInventory), h.Inventory.Query)
		api.GET("/inventory/export", perm(models.PermExportReports), h.Inventory.Export)
		api.GET("/inventory/:sku/locations", perm(models.PermViewInventory), h.Inventory.Locations)

		// Sales
		api.GET("/sales/monthly", perm(models.PermViewSales), h.Sales.MonthlyByCountry)
		api.GET("/sales/analytics/:company_id", perm(models.PermViewSales), h.Sales.Analytics)

		// RBAC administration
		rbacRoutes := api.Group("/rbac")
		{
			rbacRoutes.GET("/permissions", perm(models.PermManageRoles), h.RBAC.ListPermissions)
			rbacRoutes.GET("/roles", perm(models.PermManageRoles), h.RBAC.ListRoles)
			rbacRoutes.GET("/roles/:id", perm(models.PermManageRoles), h.RBAC.GetRole)
			rbacRoutes.POST("/roles", perm(models.PermManageRoles), h.RBAC.CreateRole)
			rbacRoutes.PATCH("/roles/:id", perm(models.PermManageRoles), h.RBAC.UpdateRole)
			rbacRoutes.DELETE("/roles/:id", perm(models.PermManageRoles), h.RBAC.DeleteRole)
			rbacRoutes.POST("/user-roles", perm(models.PermManageUsers), h.RBAC.AssignRole)
			rbacRoutes.GET("/user-roles/my-role", h.RBAC.MyRole)
			rbacRoutes.GET("/users", perm(models.PermManageUsers), h.RBAC.ListUsers)
			rbacRoutes.GET("/audit-logs", perm(models.PermViewAuditLog), h.RBAC.ListAuditLogs)
			rbacRoutes.GET("/audit-logs/my-logs", h.RBAC.MyAuditLogs)
		}

		// Notifications
		api.GET("/notifications", h.Notification.List)
		api.GET("/notifications/unread-count", h.Notification.UnreadCount)
		api.GET("/notifications/stream", h.Notification.Stream)
		api.POST("/notifications/read-all", h.Notification.MarkAllRead)
		api.POST("/notifications/:id/read", h.Notification.MarkAsRead)

		// AI Reports
		reportsRoutes := api.Group("/reports")
		{
			reportsRoutes.GET("/sessions", perm(models.PermViewAIReports), h.Report.ListSessions)
			reportsRoutes.POST("/sessions", perm(models.PermCreateAIReports), h.Report.CreateSession)
			reportsRoutes.DELETE("/sessions", perm(models.PermCreateAIReports), h.Report.ClearSessions)
			reportsRoutes.GET("/sessions/:id", perm(models.PermViewAIReports), h.Report.GetSession)
			reportsRoutes.PATCH("/sessions/:id", perm(models.PermCreateAIReports), h.Report.UpdateSession)
			reportsRoutes.DELETE("/sessions/:id", perm(models.PermCreateAIReports), h.Report.DeleteSession)
			reportsRoutes.POST("/sessions/:id/messages",
				perm(models.PermCreateAIReports), perm(models.PermUseAIAgents), h.Report.SendMessage)
			reportsRoutes.GET("/sessions/:id/reports", perm(models.PermViewAIReports), h.Report.ListReports)
			reportsRoutes.GET("/agents", perm(models.PermUseAIAgents), h.Report.Agents)
			reportsRoutes.GET("/:id/export", perm(models.PermExportReports), h.Report.Export)
		}
	}

	return r
}

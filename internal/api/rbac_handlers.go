// Package api - RBAC administration handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/audit"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/meridian/supplyhub/internal/rbac"
	"gorm.io/gorm"
)

// RBACHandler serves role, permission, user and audit-log endpoints.
type RBACHandler struct {
	db       *gorm.DB
	rbacSvc  *rbac.Service
	auditSvc *audit.Service
}

// NewRBACHandler creates an RBAC handler.
func NewRBACHandler(db *gorm.DB, rbacSvc *rbac.Service, auditSvc *audit.Service) *RBACHandler {
	return &RBACHandler{db: db, rbacSvc: rbacSvc, auditSvc: auditSvc}
}

// ListPermissions returns the permission catalog
// GET /api/rbac/permissions
func (h *RBACHandler) ListPermissions(c *gin.Context) {
	perms, err := h.rbacSvc.ListPermissions(c.Request.Context())
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

// ListRoles returns all roles with their permission sets
// GET /api/rbac/roles
func (h *RBACHandler) ListRoles(c *gin.Context) {
	roles, err := h.rbacSvc.ListRoles(c.Request.Context())
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// GetRole returns one role
// GET /api/rbac/roles/:id
func (h *RBACHandler) GetRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}
	role, err := h.rbacSvc.GetRole(c.Request.Context(), uint(id))
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, role)
}

// RoleRequest carries a role create or update.
type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	RoleType    string   `json:"role_type"`
	Permissions []string `json:"permissions"`
}

// CreateRole creates a custom role
// POST /api/rbac/roles
func (h *RBACHandler) CreateRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	role, err := h.rbacSvc.CreateRole(c.Request.Context(), req.Name, req.Description, models.RoleType(req.RoleType), req.Permissions)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	h.recordPermissionChange(c, "Role", strconv.Itoa(int(role.ID)), "Created role "+role.Name)
	c.JSON(http.StatusCreated, role)
}

// UpdateRoleRequest is a partial role patch.
type UpdateRoleRequest struct {
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Permissions []string `json:"permissions"`
}

// UpdateRole patches a role
// PATCH /api/rbac/roles/:id
func (h *RBACHandler) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	role, err := h.rbacSvc.UpdateRole(c.Request.Context(), uint(id), req.Description, req.IsActive, req.Permissions)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	h.recordPermissionChange(c, "Role", c.Param("id"), "Updated role "+role.Name)
	c.JSON(http.StatusOK, role)
}

// DeleteRole removes an unassigned role
// DELETE /api/rbac/roles/:id
func (h *RBACHandler) DeleteRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return
	}
	if err := h.rbacSvc.DeleteRole(c.Request.Context(), uint(id)); err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	h.recordPermissionChange(c, "Role", c.Param("id"), "Deleted role "+c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}

// AssignRoleRequest binds a user to a role.
type AssignRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	RoleID uint   `json:"role_id" binding:"required"`
}

// AssignRole binds a user to a role
// POST /api/rbac/user-roles
func (h *RBACHandler) AssignRole(c *gin.Context) {
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	actor := currentUser(c)
	ur, err := h.rbacSvc.AssignRole(c.Request.Context(), userID, req.RoleID, &actor.ID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	h.recordPermissionChange(c, "UserRole", userID.String(), "Assigned role "+ur.Role.Name+" to user "+userID.String())
	c.JSON(http.StatusOK, ur)
}

// MyRole returns the caller's role binding
// GET /api/rbac/user-roles/my-role
func (h *RBACHandler) MyRole(c *gin.Context) {
	user := currentUser(c)
	ur, err := h.rbacSvc.UserRole(c.Request.Context(), user.ID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, ur)
}

// ListUsers returns all user accounts
// GET /api/rbac/users
func (h *RBACHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("username").Find(&users).Error; err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ListAuditLogs returns the audit trail, newest first
// GET /api/rbac/audit-logs
func (h *RBACHandler) ListAuditLogs(c *gin.Context) {
	filter := audit.ListFilter{Action: models.AuditAction(c.Query("action"))}
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &id
	}
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	logs, err := h.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}

// MyAuditLogs returns the caller's own audit entries
// GET /api/rbac/audit-logs/my-logs
func (h *RBACHandler) MyAuditLogs(c *gin.Context) {
	user := currentUser(c)
	logs, err := h.auditSvc.List(c.Request.Context(), audit.ListFilter{UserID: &user.ID})
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}

func (h *RBACHandler) recordPermissionChange(c *gin.Context, objectType, objectID, description string) {
	user := currentUser(c)
	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditPermissionChange,
		ObjectType:  objectType,
		ObjectID:    objectID,
		Description: description,
		IPAddress:   c.ClientIP(),
	})
}

// Package models - users, roles, permissions, audit trail and
// notifications.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string     `json:"email" gorm:"size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	IsSuperuser  bool       `json:"is_superuser" gorm:"default:false"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Permission is an immutable catalog entry identified by its code.
type Permission struct {
	Code        string    `json:"code" gorm:"primaryKey;size:50"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission codes. The catalog is fixed; roles are composed from it.
const (
	PermViewDashboard   = "view_dashboard"
	PermViewCompanies   = "view_companies"
	PermEditCompanies   = "edit_companies"
	PermDeleteCompanies = "delete_companies"
	PermViewInventory   = "view_inventory"
	PermEditInventory   = "edit_inventory"
	PermDeleteInventory = "delete_inventory"
	PermViewSales       = "view_sales"
	PermEditSales       = "edit_sales"
	PermDeleteSales     = "delete_sales"
	PermViewAIReports   = "view_ai_reports"
	PermCreateAIReports = "create_ai_reports"
	PermUseAIAgents     = "use_ai_agents"
	PermExportReports   = "export_reports"
	PermViewAuditLog    = "view_audit_log"
	PermManageUsers     = "manage_users"
	PermManageRoles     = "manage_roles"
)

// RoleType is a coarse tag used only for default-seeding logic, never
// for authorization decisions.
type RoleType string

const (
	RoleTypeAdmin   RoleType = "admin"
	RoleTypeManager RoleType = "manager"
	RoleTypeAnalyst RoleType = "analyst"
	RoleTypeViewer  RoleType = "viewer"
	RoleTypeCustom  RoleType = "custom"
)

// Role is a named bundle of permissions.
type Role struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"uniqueIndex;not null;size:100"`
	RoleType    RoleType     `json:"role_type" gorm:"size:20;default:custom"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
	IsActive    bool         `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasPermission reports whether the role bundle contains the code.
// Permissions must be preloaded.
func (r *Role) HasPermission(code string) bool {
	for _, p := range r.Permissions {
		if p.Code == code {
			return true
		}
	}
	return false
}

// UserRole binds a user to their single active role. One row per user.
type UserRole struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	User         *User      `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RoleID       uint       `json:"role_id" gorm:"not null"`
	Role         *Role      `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	AssignedAt   time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	AssignedByID *uuid.UUID `json:"assigned_by" gorm:"type:uuid"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
}

// AuditAction is the kind of action recorded in the audit trail.
type AuditAction string

const (
	AuditCreate           AuditAction = "create"
	AuditRead             AuditAction = "read"
	AuditUpdate           AuditAction = "update"
	AuditDelete           AuditAction = "delete"
	AuditExport           AuditAction = "export"
	AuditLogin            AuditAction = "login"
	AuditLogout           AuditAction = "logout"
	AuditPermissionChange AuditAction = "permission_change"
	AuditPermissionDenied AuditAction = "permission_denied"
)

// AuditLog is an append-only record of mutations and permission
// denials. Rows are never updated or deleted; the user reference is
// nullable so entries survive user deletion.
type AuditLog struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      *uuid.UUID  `json:"user_id" gorm:"type:uuid;index"`
	User        *User       `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Action      AuditAction `json:"action" gorm:"size:20;index"`
	ObjectType  string      `json:"object_type" gorm:"size:100"`
	ObjectID    string      `json:"object_id" gorm:"size:100"`
	Description string      `json:"description"`
	IPAddress   string      `json:"ip_address" gorm:"size:45"`
	CreatedAt   time.Time   `json:"timestamp"`
}

// NotificationType classifies a notification for the inbox UI.
type NotificationType string

const (
	NotifyInfo             NotificationType = "info"
	NotifySuccess          NotificationType = "success"
	NotifyWarning          NotificationType = "warning"
	NotifyError            NotificationType = "error"
	NotifyReportReady      NotificationType = "report_ready"
	NotifyReportError      NotificationType = "report_error"
	NotifyRoleChanged      NotificationType = "role_changed"
	NotifyPermissionDenied NotificationType = "permission_denied"
)

// RelatedKind discriminates the object a notification points at.
type RelatedKind string

const (
	RelatedNone        RelatedKind = ""
	RelatedChatMessage RelatedKind = "chat_message"
	RelatedUserRole    RelatedKind = "user_role"
	RelatedAuditLog    RelatedKind = "audit_log"
)

// Notification is a per-user inbox entry. Only the owner flips IsRead.
type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index:idx_notif_user"`
	User        *User            `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Title       string           `json:"title" gorm:"size:200"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"notification_type" gorm:"size:20;default:info"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index:idx_notif_user"`
	RelatedKind RelatedKind      `json:"related_kind" gorm:"size:30"`
	RelatedID   string           `json:"related_id" gorm:"size:100"`
	RedirectURL string           `json:"redirect_url"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

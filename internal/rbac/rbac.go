// Package rbac implements the access-control gate: a static permission
// catalog, roles composed of permission sets, and the per-request
// check used to guard mutating endpoints. The check is advisory: each
// endpoint asks for the permission code it needs before mutating.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/audit"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/events"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service answers permission checks and manages role assignments.
type Service struct {
	db       *gorm.DB
	audit    *audit.Service
	producer events.Producer
	logger   *zap.Logger
}

// NewService constructs the RBAC service.
func NewService(db *gorm.DB, auditSvc *audit.Service, producer events.Producer, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		audit:    auditSvc,
		producer: producer,
		logger:   logger.Named("rbac"),
	}
}

// UserRole returns a user's active role binding with role and
// permissions preloaded, or ErrNotFound when the user has none.
func (s *Service) UserRole(ctx context.Context, userID uuid.UUID) (*models.UserRole, error) {
	var ur models.UserRole
	err := s.db.WithContext(ctx).
		Preload("Role.Permissions").
		Where("user_id = ?", userID).
		First(&ur).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &ur, nil
}

// HasPermission reports whether the principal's role grants a
// permission code. Superusers always pass; a missing or inactive role
// binding always denies.
func (s *Service) HasPermission(ctx context.Context, user *models.User, code string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	ur, err := s.UserRole(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !ur.IsActive || ur.Role == nil {
		return false, nil
	}
	return ur.Role.HasPermission(code), nil
}

// RecordDenial audits a denied mutating request and emits the
// permission_denied event for admin notification fan-out. The audit
// write happens before the caller returns 403; the notification is
// best effort.
func (s *Service) RecordDenial(ctx context.Context, user *models.User, code, ip string) {
	entry, err := s.audit.Record(ctx, audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditPermissionDenied,
		ObjectType:  "Endpoint",
		Description: fmt.Sprintf("Denied access to %s", code),
		IPAddress:   ip,
	})
	if err != nil {
		s.logger.Error("failed to audit permission denial",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
			zap.String("permission", code),
		)
		return
	}

	s.producer.Produce(events.NewPermissionDenied(events.PermissionDenied{
		UserID:     user.ID,
		Username:   user.Username,
		AuditLogID: entry.ID,
		Permission: code,
	}))
}

// AssignRole binds a user to a role, replacing any previous binding,
// and emits the role_changed event.
func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, roleID uint, assignedBy *uuid.UUID) (*models.UserRole, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: role %d", apperrors.ErrNotFound, roleID)
		}
		return nil, err
	}

	var ur models.UserRole
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&ur).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ur = models.UserRole{UserID: userID, RoleID: roleID, AssignedByID: assignedBy, IsActive: true}
		if err := s.db.WithContext(ctx).Create(&ur).Error; err != nil {
			return nil, fmt.Errorf("failed to assign role: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		ur.RoleID = roleID
		ur.AssignedByID = assignedBy
		ur.IsActive = true
		if err := s.db.WithContext(ctx).Save(&ur).Error; err != nil {
			return nil, fmt.Errorf("failed to reassign role: %w", err)
		}
	}

	s.producer.Produce(events.NewRoleChanged(events.RoleChanged{
		UserID:     userID,
		UserRoleID: ur.ID,
		RoleName:   role.Name,
	}))

	ur.Role = &role
	return &ur, nil
}

// AssignDefaultRole gives a freshly registered user the Analyst role.
// It is called explicitly by the registration handler; a failure here
// fails the registration rather than being swallowed.
func (s *Service) AssignDefaultRole(ctx context.Context, userID uuid.UUID) (*models.UserRole, error) {
	var existing models.UserRole
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var role models.Role
	err = s.db.WithContext(ctx).Where("name = ?", "Analyst").First(&role).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		role, err = s.createAnalystRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create default role: %w", err)
		}
	}

	ur := models.UserRole{UserID: userID, RoleID: role.ID, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&ur).Error; err != nil {
		return nil, fmt.Errorf("failed to assign default role: %w", err)
	}
	ur.Role = &role
	return &ur, nil
}

func (s *Service) createAnalystRole(ctx context.Context) (models.Role, error) {
	role := models.Role{
		Name:        "Analyst",
		RoleType:    models.RoleTypeAnalyst,
		Description: "Data analyst with AI report access",
		IsActive:    true,
	}
	codes := []string{
		models.PermViewDashboard,
		models.PermViewAIReports,
		models.PermCreateAIReports,
		models.PermUseAIAgents,
		models.PermExportReports,
	}
	var perms []models.Permission
	if err := s.db.WithContext(ctx).Where("code IN ?", codes).Find(&perms).Error; err != nil {
		return role, err
	}
	role.Permissions = perms
	if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
		return role, err
	}
	return role, nil
}

// ListPermissions returns the whole permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).Order("code").Find(&perms).Error
	return perms, err
}

// ListRoles returns every role with its permission set.
func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").Order("name").Find(&roles).Error
	return roles, err
}

// GetRole fetches one role with its permission set.
func (s *Service) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// CreateRole creates a custom role bound to existing permission codes.
func (s *Service) CreateRole(ctx context.Context, name, description string, roleType models.RoleType, permissionCodes []string) (*models.Role, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", apperrors.ErrInvalidInput)
	}
	if roleType == "" {
		roleType = models.RoleTypeCustom
	}

	var perms []models.Permission
	if len(permissionCodes) > 0 {
		if err := s.db.WithContext(ctx).Where("code IN ?", permissionCodes).Find(&perms).Error; err != nil {
			return nil, err
		}
	}

	role := models.Role{
		Name:        name,
		RoleType:    roleType,
		Description: description,
		Permissions: perms,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: role %q", apperrors.ErrDuplicate, name)
		}
		return nil, err
	}
	return &role, nil
}

// UpdateRole patches a role's description, activity flag and
// permission set. Nil inputs keep the previous value.
func (s *Service) UpdateRole(ctx context.Context, id uint, description *string, isActive *bool, permissionCodes []string) (*models.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if description != nil {
		role.Description = *description
	}
	if isActive != nil {
		role.IsActive = *isActive
	}
	if err := s.db.WithContext(ctx).Save(role).Error; err != nil {
		return nil, err
	}

	if permissionCodes != nil {
		var perms []models.Permission
		if err := s.db.WithContext(ctx).Where("code IN ?", permissionCodes).Find(&perms).Error; err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(role).Association("Permissions").Replace(perms); err != nil {
			return nil, err
		}
		role.Permissions = perms
	}
	return role, nil
}

// DeleteRole removes a role that no user is bound to.
func (s *Service) DeleteRole(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserRole{}).Where("role_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewDomainRuleError("cannot delete a role that is still assigned to users")
	}

	result := s.db.WithContext(ctx).Delete(&models.Role{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

package rbac

import (
	"fmt"

	"github.com/meridian/supplyhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// permissionCatalog is the static set of permission codes. New codes
// are added here and picked up by the next SeedCatalog run.
var permissionCatalog = []models.Permission{
	{Code: models.PermViewDashboard, Description: "Access to the main dashboard"},
	{Code: models.PermViewCompanies, Description: "Read access to company data"},
	{Code: models.PermEditCompanies, Description: "Create and modify companies"},
	{Code: models.PermDeleteCompanies, Description: "Remove companies"},
	{Code: models.PermViewInventory, Description: "Read access to inventory data"},
	{Code: models.PermEditInventory, Description: "Modify inventory records"},
	{Code: models.PermDeleteInventory, Description: "Remove inventory records"},
	{Code: models.PermViewSales, Description: "Read access to sales data"},
	{Code: models.PermEditSales, Description: "Modify sales records"},
	{Code: models.PermDeleteSales, Description: "Remove sales records"},
	{Code: models.PermViewAIReports, Description: "Read generated reports"},
	{Code: models.PermCreateAIReports, Description: "Request new report generation"},
	{Code: models.PermUseAIAgents, Description: "Interact with the report agents"},
	{Code: models.PermExportReports, Description: "Export reports to files"},
	{Code: models.PermViewAuditLog, Description: "Read the audit trail"},
	{Code: models.PermManageUsers, Description: "Administer user accounts"},
	{Code: models.PermManageRoles, Description: "Administer roles and permissions"},
}

type roleSeed struct {
	name        string
	roleType    models.RoleType
	description string
	codes       []string
}

func defaultRoles() []roleSeed {
	all := make([]string, 0, len(permissionCatalog))
	for _, p := range permissionCatalog {
		all = append(all, p.Code)
	}
	return []roleSeed{
		{
			name:        "Admin",
			roleType:    models.RoleTypeAdmin,
			description: "Full system access",
			codes:       all,
		},
		{
			name:        "Manager",
			roleType:    models.RoleTypeManager,
			description: "Operational management without administration",
			codes: []string{
				models.PermViewDashboard,
				models.PermViewCompanies, models.PermEditCompanies,
				models.PermViewInventory, models.PermEditInventory,
				models.PermViewSales, models.PermEditSales,
				models.PermViewAIReports, models.PermCreateAIReports,
				models.PermUseAIAgents, models.PermExportReports,
			},
		},
		{
			name:        "Analyst",
			roleType:    models.RoleTypeAnalyst,
			description: "Data analyst with AI report access",
			codes: []string{
				models.PermViewDashboard,
				models.PermViewAIReports, models.PermCreateAIReports,
				models.PermUseAIAgents, models.PermExportReports,
			},
		},
		{
			name:        "Viewer",
			roleType:    models.RoleTypeViewer,
			description: "Read-only access",
			codes: []string{
				models.PermViewDashboard,
				models.PermViewCompanies,
				models.PermViewInventory,
				models.PermViewSales,
				models.PermViewAIReports,
			},
		},
	}
}

// SeedCatalog inserts the permission catalog and the four built-in
// roles. It is idempotent: existing permissions are upserted by code
// and an existing role keeps its current permission set.
func SeedCatalog(db *gorm.DB) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"description"}),
	}).Create(&permissionCatalog).Error
	if err != nil {
		return fmt.Errorf("failed to seed permissions: %w", err)
	}

	for _, seed := range defaultRoles() {
		var existing models.Role
		err := db.Where("name = ?", seed.name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var perms []models.Permission
		if err := db.Where("code IN ?", seed.codes).Find(&perms).Error; err != nil {
			return err
		}
		role := models.Role{
			Name:        seed.name,
			RoleType:    seed.roleType,
			Description: seed.description,
			Permissions: perms,
			IsActive:    true,
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", seed.name, err)
		}
	}
	return nil
}

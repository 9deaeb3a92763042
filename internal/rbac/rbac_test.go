package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/audit"
	"github.com/meridian/supplyhub/internal/events"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingProducer captures emitted events for assertions.
type recordingProducer struct {
	events []events.Event
}

func (p *recordingProducer) Produce(ev events.Event) {
	p.events = append(p.events, ev)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&models.User{}, &models.Permission{}, &models.Role{},
		&models.UserRole{}, &models.AuditLog{},
	)
	require.NoError(t, err, "failed to migrate test database")
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingProducer) {
	db := setupTestDB(t)
	require.NoError(t, SeedCatalog(db))
	producer := &recordingProducer{}
	svc := NewService(db, audit.NewService(db, zap.NewNop()), producer, zap.NewNop())
	return svc, db, producer
}

func newUser(t *testing.T, db *gorm.DB, username string, superuser bool) *models.User {
	u := models.User{ID: uuid.New(), Username: username, IsSuperuser: superuser, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestSeedCatalog(t *testing.T) {
	_, db, _ := newTestService(t)

	var permCount int64
	db.Model(&models.Permission{}).Count(&permCount)
	assert.EqualValues(t, 17, permCount)

	var roles []models.Role
	require.NoError(t, db.Preload("Permissions").Order("name").Find(&roles).Error)
	require.Len(t, roles, 4)

	byName := map[string]*models.Role{}
	for i := range roles {
		byName[roles[i].Name] = &roles[i]
	}
	assert.Len(t, byName["Admin"].Permissions, 17)
	assert.Len(t, byName["Manager"].Permissions, 11)
	assert.Len(t, byName["Analyst"].Permissions, 5)
	assert.Len(t, byName["Viewer"].Permissions, 5)

	assert.False(t, byName["Viewer"].HasPermission(models.PermEditCompanies))
	assert.True(t, byName["Manager"].HasPermission(models.PermEditCompanies))
	assert.False(t, byName["Manager"].HasPermission(models.PermManageRoles))

	// Running the seed again must not duplicate anything.
	require.NoError(t, SeedCatalog(db))
	db.Model(&models.Permission{}).Count(&permCount)
	assert.EqualValues(t, 17, permCount)
	var roleCount int64
	db.Model(&models.Role{}).Count(&roleCount)
	assert.EqualValues(t, 4, roleCount)
}

func TestHasPermissionSuperuserAlwaysPasses(t *testing.T) {
	svc, db, _ := newTestService(t)
	root := newUser(t, db, "root", true)

	ok, err := svc.HasPermission(context.Background(), root, models.PermManageRoles)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasPermissionNoRoleDenies(t *testing.T) {
	svc, db, _ := newTestService(t)
	nobody := newUser(t, db, "nobody", false)

	ok, err := svc.HasPermission(context.Background(), nobody, models.PermViewDashboard)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionInactiveBindingDenies(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := newUser(t, db, "parked", false)

	_, err := svc.AssignDefaultRole(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.UserRole{}).Where("user_id = ?", user.ID).Update("is_active", false).Error)

	ok, err := svc.HasPermission(context.Background(), user, models.PermViewDashboard)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignDefaultRoleGivesAnalyst(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := newUser(t, db, "fresh", false)
	ctx := context.Background()

	ur, err := svc.AssignDefaultRole(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Analyst", ur.Role.Name)

	ok, err := svc.HasPermission(ctx, user, models.PermCreateAIReports)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(ctx, user, models.PermEditCompanies)
	require.NoError(t, err)
	assert.False(t, ok)

	// Idempotent: a second call keeps the existing binding.
	again, err := svc.AssignDefaultRole(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ur.ID, again.ID)

	var bindings int64
	db.Model(&models.UserRole{}).Where("user_id = ?", user.ID).Count(&bindings)
	assert.EqualValues(t, 1, bindings)
}

func TestAssignRoleReplacesBindingAndEmitsEvent(t *testing.T) {
	svc, db, producer := newTestService(t)
	user := newUser(t, db, "promoted", false)
	admin := newUser(t, db, "boss", true)
	ctx := context.Background()

	_, err := svc.AssignDefaultRole(ctx, user.ID)
	require.NoError(t, err)

	var managerRole models.Role
	require.NoError(t, db.Where("name = ?", "Manager").First(&managerRole).Error)

	ur, err := svc.AssignRole(ctx, user.ID, managerRole.ID, &admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Manager", ur.Role.Name)

	require.Len(t, producer.events, 1)
	assert.Equal(t, events.KindRoleChanged, producer.events[0].Kind)
	assert.Equal(t, "Manager", producer.events[0].RoleChanged.RoleName)

	ok, err := svc.HasPermission(ctx, user, models.PermEditInventory)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordDenialAuditsAndEmits(t *testing.T) {
	svc, db, producer := newTestService(t)
	user := newUser(t, db, "intruder", false)
	ctx := context.Background()

	svc.RecordDenial(ctx, user, models.PermDeleteCompanies, "10.0.0.1")

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.AuditPermissionDenied, entry.Action)
	assert.Equal(t, user.ID, *entry.UserID)
	assert.Contains(t, entry.Description, models.PermDeleteCompanies)

	require.Len(t, producer.events, 1)
	assert.Equal(t, events.KindPermissionDenied, producer.events[0].Kind)
	assert.Equal(t, entry.ID, producer.events[0].PermissionDenied.AuditLogID)
}

func TestRoleCRUD(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "Auditor", "Read-only audit access", "", []string{
		models.PermViewAuditLog, models.PermViewDashboard,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTypeCustom, role.RoleType)
	assert.Len(t, role.Permissions, 2)

	_, err = svc.CreateRole(ctx, "Auditor", "dup", "", nil)
	assert.Error(t, err)

	updated, err := svc.UpdateRole(ctx, role.ID, nil, nil, []string{models.PermViewAuditLog})
	require.NoError(t, err)
	assert.Len(t, updated.Permissions, 1)

	require.NoError(t, svc.DeleteRole(ctx, role.ID))
	_, err = svc.GetRole(ctx, role.ID)
	assert.Error(t, err)
}

func TestDeleteRoleStillAssignedRefused(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := newUser(t, db, "holder", false)
	ctx := context.Background()

	ur, err := svc.AssignDefaultRole(ctx, user.ID)
	require.NoError(t, err)

	err = svc.DeleteRole(ctx, ur.RoleID)
	assert.Error(t, err)
}

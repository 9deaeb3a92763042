package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/events"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupWorker(t *testing.T) (*Worker, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&models.User{}, &models.Permission{}, &models.Role{}, &models.UserRole{},
		&models.Notification{},
	)
	require.NoError(t, err, "failed to migrate test database")

	logger := zap.NewNop()
	service := NewService(db, NewHub(logger), logger)
	return NewWorker(db, service, logger), db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	u := models.User{ID: uuid.New(), Username: username, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func assignRole(t *testing.T, db *gorm.DB, user models.User, role *models.Role, active bool) {
	ur := models.UserRole{UserID: user.ID, RoleID: role.ID, IsActive: active}
	require.NoError(t, db.Create(&ur).Error)
}

func TestWorkerReportReady(t *testing.T) {
	worker, db := setupWorker(t)
	user := createUser(t, db, "analyst")
	sessionID := uuid.New()
	messageID := uuid.New()

	ev := events.NewReportReady(events.ReportReady{
		UserID:    user.ID,
		SessionID: sessionID,
		MessageID: messageID,
		Title:     "Inventory Analysis Report",
		AgentName: "Supply Chain Analyst",
	})
	require.NoError(t, worker.Handle(context.Background(), ev))

	var n models.Notification
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&n).Error)
	assert.Equal(t, "AI Report Ready - Supply Chain Analyst", n.Title)
	assert.Contains(t, n.Message, "Inventory Analysis Report")
	assert.Equal(t, models.NotifyReportReady, n.Type)
	assert.Equal(t, models.RelatedChatMessage, n.RelatedKind)
	assert.Equal(t, messageID.String(), n.RelatedID)
	assert.Equal(t, "/reports/#report-"+sessionID.String(), n.RedirectURL)
}

func TestWorkerReportReadyWithoutAgentName(t *testing.T) {
	worker, db := setupWorker(t)
	user := createUser(t, db, "analyst")

	ev := events.NewReportReady(events.ReportReady{
		UserID:    user.ID,
		SessionID: uuid.New(),
		MessageID: uuid.New(),
		Title:     "Sales Performance Report",
	})
	require.NoError(t, worker.Handle(context.Background(), ev))

	var n models.Notification
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&n).Error)
	assert.Equal(t, "AI Report Ready", n.Title)
}

func TestWorkerRoleChanged(t *testing.T) {
	worker, db := setupWorker(t)
	user := createUser(t, db, "promoted")

	ev := events.NewRoleChanged(events.RoleChanged{
		UserID:     user.ID,
		UserRoleID: 42,
		RoleName:   "Manager",
	})
	require.NoError(t, worker.Handle(context.Background(), ev))

	var n models.Notification
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&n).Error)
	assert.Equal(t, "Your Role Has Been Updated", n.Title)
	assert.Equal(t, "Your role is now: Manager", n.Message)
	assert.Equal(t, models.NotifyRoleChanged, n.Type)
	assert.Equal(t, models.RelatedUserRole, n.RelatedKind)
	assert.Equal(t, "42", n.RelatedID)
	assert.Equal(t, "/dashboard/", n.RedirectURL)
}

func TestWorkerPermissionDeniedFansOutToAdmins(t *testing.T) {
	worker, db := setupWorker(t)

	adminRole := models.Role{Name: "Admin", RoleType: models.RoleTypeAdmin}
	viewerRole := models.Role{Name: "Viewer", RoleType: models.RoleTypeViewer}
	require.NoError(t, db.Create(&adminRole).Error)
	require.NoError(t, db.Create(&viewerRole).Error)

	activeAdmin := createUser(t, db, "admin1")
	secondAdmin := createUser(t, db, "admin2")
	formerAdmin := createUser(t, db, "admin3")
	viewer := createUser(t, db, "viewer")
	offender := createUser(t, db, "intruder")
	assignRole(t, db, activeAdmin, &adminRole, true)
	assignRole(t, db, secondAdmin, &adminRole, true)
	assignRole(t, db, formerAdmin, &adminRole, false)
	assignRole(t, db, viewer, &viewerRole, true)

	auditID := uuid.New()
	ev := events.NewPermissionDenied(events.PermissionDenied{
		UserID:     offender.ID,
		Username:   "intruder",
		AuditLogID: auditID,
		Permission: "edit_companies",
	})
	require.NoError(t, worker.Handle(context.Background(), ev))

	var all []models.Notification
	require.NoError(t, db.Find(&all).Error)
	require.Len(t, all, 2, "only active admin bindings should be notified")

	notified := map[uuid.UUID]bool{}
	for _, n := range all {
		notified[n.UserID] = true
		assert.Equal(t, "Permission Violation Detected", n.Title)
		assert.Contains(t, n.Message, "intruder")
		assert.Contains(t, n.Message, "edit_companies")
		assert.Equal(t, models.RelatedAuditLog, n.RelatedKind)
		assert.Equal(t, auditID.String(), n.RelatedID)
		assert.Equal(t, "/rbac/audit-logs/", n.RedirectURL)
	}
	assert.True(t, notified[activeAdmin.ID])
	assert.True(t, notified[secondAdmin.ID])
	assert.False(t, notified[formerAdmin.ID])
	assert.False(t, notified[viewer.ID])
}

func TestWorkerUnknownKindIsDropped(t *testing.T) {
	worker, db := setupWorker(t)

	err := worker.Handle(context.Background(), events.Event{Kind: "mystery"})
	require.NoError(t, err)

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}

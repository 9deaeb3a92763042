package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}))
	return NewService(db, zap.NewNop()), db
}

func TestRecord(t *testing.T) {
	svc, db := setupService(t)
	userID := uuid.New()

	row, err := svc.Record(context.Background(), Entry{
		UserID:      &userID,
		Action:      models.AuditLogin,
		ObjectType:  "user",
		ObjectID:    userID.String(),
		Description: "User logged in",
		IPAddress:   "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, row.ID)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, models.AuditLogin, stored.Action)
	assert.Equal(t, "User logged in", stored.Description)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, userID, *stored.UserID)
}

func TestRecordWithoutUser(t *testing.T) {
	svc, _ := setupService(t)

	row, err := svc.Record(context.Background(), Entry{
		Action:      models.AuditRead,
		ObjectType:  "company",
		Description: "Anonymous export",
	})
	require.NoError(t, err)
	assert.Nil(t, row.UserID)
}

func seedEntries(t *testing.T, db *gorm.DB, userID uuid.UUID, n int, action models.AuditAction) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		row := models.AuditLog{
			ID:        uuid.New(),
			UserID:    &userID,
			Action:    action,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&row).Error)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, db := setupService(t)
	userID := uuid.New()
	seedEntries(t, db, userID, 5, models.AuditUpdate)

	rows, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].CreatedAt.After(rows[i-1].CreatedAt), "rows must be newest first")
	}
}

func TestListFilters(t *testing.T) {
	svc, db := setupService(t)
	alice := uuid.New()
	bob := uuid.New()
	seedEntries(t, db, alice, 3, models.AuditLogin)
	seedEntries(t, db, bob, 2, models.AuditDelete)

	rows, err := svc.List(context.Background(), ListFilter{UserID: &alice})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = svc.List(context.Background(), ListFilter{Action: models.AuditDelete})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = svc.List(context.Background(), ListFilter{UserID: &alice, Action: models.AuditDelete})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListLimits(t *testing.T) {
	svc, db := setupService(t)
	userID := uuid.New()
	seedEntries(t, db, userID, 120, models.AuditRead)

	// Default limit.
	rows, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 100)

	// Explicit limit within bounds.
	rows, err = svc.List(context.Background(), ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rows, 10)

	// Oversized limit falls back to the default.
	rows, err = svc.List(context.Background(), ListFilter{Limit: 10000})
	require.NoError(t, err)
	assert.Len(t, rows, 100)
}

// Package audit maintains the append-only audit trail. The service
// exposes no update or delete operation; rows written here are final.
package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is the input for one audit record.
type Entry struct {
	UserID      *uuid.UUID
	Action      models.AuditAction
	ObjectType  string
	ObjectID    string
	Description string
	IPAddress   string
}

// Service writes and reads audit records.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the audit service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger.Named("audit")}
}

// Record appends one entry to the trail and returns it.
func (s *Service) Record(ctx context.Context, e Entry) (*models.AuditLog, error) {
	row := &models.AuditLog{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Action:      e.Action,
		ObjectType:  e.ObjectType,
		ObjectID:    e.ObjectID,
		Description: e.Description,
		IPAddress:   e.IPAddress,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	UserID *uuid.UUID
	Action models.AuditAction
	Limit  int
}

// List returns audit entries, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{}).Order("created_at DESC")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []models.AuditLog
	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

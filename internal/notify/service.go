package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages the per-user notification inbox.
type Service struct {
	db     *gorm.DB
	hub    *Hub
	logger *zap.Logger
}

// NewService constructs the notification service.
func NewService(db *gorm.DB, hub *Hub, logger *zap.Logger) *Service {
	return &Service{db: db, hub: hub, logger: logger.Named("notify")}
}

// Create persists a notification and pushes it to live subscribers.
// Push failures are swallowed by the hub; persistence errors surface.
func (s *Service) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Type == "" {
		n.Type = models.NotifyInfo
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.hub.Publish(n)
	return &n, nil
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var rows []models.Notification
	if err := q.Limit(100).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UnreadCount returns how many unread notifications a user has.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead flips is_read on one notification. Only the owner may do
// this; a mismatched owner gets not-found rather than a hint that the
// id exists.
func (s *Service) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	var n models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
}

// MarkAllRead flips is_read on every unread notification of a user and
// returns how many were updated.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

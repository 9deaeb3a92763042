package notify

import (
	"context"
	"fmt"

	"github.com/meridian/supplyhub/internal/events"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Worker consumes domain events and turns them into inbox rows and
// real-time pushes. It runs on the consumer side of the event queue so
// delivery problems never reach the mutation that emitted the event.
type Worker struct {
	db      *gorm.DB
	service *Service
	logger  *zap.Logger
}

// NewWorker constructs the notification worker.
func NewWorker(db *gorm.DB, service *Service, logger *zap.Logger) *Worker {
	return &Worker{db: db, service: service, logger: logger.Named("notify_worker")}
}

// Handle dispatches one event. Unknown kinds are logged and dropped.
func (w *Worker) Handle(ctx context.Context, ev events.Event) error {
	switch ev.Kind {
	case events.KindReportReady:
		return w.handleReportReady(ctx, ev.ReportReady)
	case events.KindRoleChanged:
		return w.handleRoleChanged(ctx, ev.RoleChanged)
	case events.KindPermissionDenied:
		return w.handlePermissionDenied(ctx, ev.PermissionDenied)
	default:
		w.logger.Warn("unknown event kind", zap.String("kind", string(ev.Kind)))
		return nil
	}
}

func (w *Worker) handleReportReady(ctx context.Context, p *events.ReportReady) error {
	title := "AI Report Ready"
	if p.AgentName != "" {
		title = fmt.Sprintf("AI Report Ready - %s", p.AgentName)
	}
	_, err := w.service.Create(ctx, models.Notification{
		UserID:      p.UserID,
		Title:       title,
		Message:     fmt.Sprintf("Your report %q has been generated successfully.", p.Title),
		Type:        models.NotifyReportReady,
		RelatedKind: models.RelatedChatMessage,
		RelatedID:   p.MessageID.String(),
		RedirectURL: fmt.Sprintf("/reports/#report-%s", p.SessionID),
	})
	return err
}

func (w *Worker) handleRoleChanged(ctx context.Context, p *events.RoleChanged) error {
	_, err := w.service.Create(ctx, models.Notification{
		UserID:      p.UserID,
		Title:       "Your Role Has Been Updated",
		Message:     fmt.Sprintf("Your role is now: %s", p.RoleName),
		Type:        models.NotifyRoleChanged,
		RelatedKind: models.RelatedUserRole,
		RelatedID:   fmt.Sprintf("%d", p.UserRoleID),
		RedirectURL: "/dashboard/",
	})
	return err
}

// handlePermissionDenied notifies every user holding the Admin role.
func (w *Worker) handlePermissionDenied(ctx context.Context, p *events.PermissionDenied) error {
	var admins []models.User
	err := w.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ? AND user_roles.is_active = ?", "Admin", true).
		Find(&admins).Error
	if err != nil {
		return err
	}

	for _, admin := range admins {
		_, err := w.service.Create(ctx, models.Notification{
			UserID:      admin.ID,
			Title:       "Permission Violation Detected",
			Message:     fmt.Sprintf("User %s attempted unauthorized action: %s", p.Username, p.Permission),
			Type:        models.NotifyPermissionDenied,
			RelatedKind: models.RelatedAuditLog,
			RelatedID:   p.AuditLogID.String(),
			RedirectURL: "/rbac/audit-logs/",
		})
		if err != nil {
			w.logger.Error("failed to notify admin",
				zap.Error(err),
				zap.String("admin_id", admin.ID.String()),
			)
		}
	}
	return nil
}

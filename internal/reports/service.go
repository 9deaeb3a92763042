package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/events"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns chat sessions and generated reports.
type Service struct {
	db       *gorm.DB
	producer events.Producer
	logger   *zap.Logger
}

// NewService constructs the reports service.
func NewService(db *gorm.DB, producer events.Producer, logger *zap.Logger) *Service {
	return &Service{db: db, producer: producer, logger: logger.Named("reports")}
}

// session loads a session owned by the user; any other user's session
// reads as not found.
func (s *Service) session(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
		}
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns the user's sessions, active ones first, newest
// to oldest. Archived sessions are included only when requested.
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.ChatSession, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("is_archived = ?", false)
	}
	var sessions []models.ChatSession
	if err := q.Order("is_archived, updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession opens a new conversation thread.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*models.ChatSession, error) {
	if title == "" {
		title = "New Conversation"
	}
	sess := models.ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &sess, nil
}

// GetSession returns one session with its message history.
func (s *Service) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	sess, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&sess.Messages).Error
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// SessionUpdate is a partial patch for a session.
type SessionUpdate struct {
	Title      *string
	IsArchived *bool
}

// UpdateSession renames or (un)archives a session.
func (s *Service) UpdateSession(ctx context.Context, userID, sessionID uuid.UUID, in SessionUpdate) (*models.ChatSession, error) {
	sess, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title required", apperrors.ErrInvalidInput)
		}
		sess.Title = *in.Title
	}
	if in.IsArchived != nil {
		sess.IsArchived = *in.IsArchived
	}
	if err := s.db.WithContext(ctx).Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// DeleteSession removes a session with its messages and reports.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	sess, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.GeneratedReport{}).Error; err != nil {
			return err
		}
		return tx.Delete(sess).Error
	})
}

// ClearSessions deletes all of a user's sessions and returns how many
// were removed.
func (s *Service) ClearSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.ChatSession{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&models.GeneratedReport{}).Error; err != nil {
			return err
		}
		result := tx.Where("user_id = ?", userID).Delete(&models.ChatSession{})
		removed = result.RowsAffected
		return result.Error
	})
	return removed, err
}

// MessageResult is the outcome of one user message: the stored AI
// response plus the report it produced.
type MessageResult struct {
	UserMessage *models.ChatMessage     `json:"user_message"`
	AIMessage   *models.ChatMessage     `json:"ai_message"`
	Report      *models.GeneratedReport `json:"report"`
	Errors      []string                `json:"errors,omitempty"`
}

// SendMessage stores the user's message, runs the report pipeline and
// stores the AI response together with the generated report. The
// first message of a session becomes its title. A report_ready event
// is emitted so the user gets notified when viewing elsewhere.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*MessageResult, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: message content required", apperrors.ErrInvalidInput)
	}

	sess, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      models.MessageUser,
		Content:   content,
		Status:    models.MessageStatusComplete,
	}
	if err := s.db.WithContext(ctx).Create(&userMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	var msgCount int64
	if err := s.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("session_id = ?", sessionID).Count(&msgCount).Error; err == nil && msgCount == 1 {
		sess.Title = sessionTitle(content)
		if err := s.db.WithContext(ctx).Save(sess).Error; err != nil {
			s.logger.Warn("failed to set session title", zap.Error(err))
		}
	}

	start := time.Now()
	state := Run(content, userID.String(), sessionID.String())
	elapsed := int(time.Since(start).Milliseconds())

	agentName, _ := s.activeAgentName(ctx)

	report := models.GeneratedReport{
		ID:              uuid.New(),
		SessionID:       sessionID,
		Title:           state.ReportTitle,
		Description:     fmt.Sprintf("Generated from: %s", content),
		ReportData:      models.JSONB(state.ReportData),
		Insights:        models.StringArray(state.Insights),
		Recommendations: models.StringArray(state.Recommendations),
		ExportedFormats: models.StringArray{},
	}
	aiMsg := models.ChatMessage{
		ID:               uuid.New(),
		SessionID:        sessionID,
		Type:             models.MessageAI,
		Content:          fmt.Sprintf("Report ready: %s", state.ReportTitle),
		Status:           models.MessageStatusComplete,
		ProcessingTimeMS: &elapsed,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		return tx.Create(&aiMsg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	s.producer.Produce(events.NewReportReady(events.ReportReady{
		UserID:    userID,
		SessionID: sessionID,
		MessageID: aiMsg.ID,
		Title:     state.ReportTitle,
		AgentName: agentName,
	}))

	return &MessageResult{
		UserMessage: &userMsg,
		AIMessage:   &aiMsg,
		Report:      &report,
		Errors:      state.Errors,
	}, nil
}

// sessionTitle derives a session title from its first message.
func sessionTitle(content string) string {
	const max = 50
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}

func (s *Service) activeAgentName(ctx context.Context) (string, error) {
	var cfg models.AgentConfig
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").First(&cfg).Error
	if err != nil {
		return "Supply Chain Analyst", err
	}
	return cfg.Name, nil
}

// ListReports returns the reports generated in one session.
func (s *Service) ListReports(ctx context.Context, userID, sessionID uuid.UUID) ([]models.GeneratedReport, error) {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	var reports []models.GeneratedReport
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

// exportFormats maps the accepted format names to content types.
var exportFormats = map[string]string{
	"json":  "application/json",
	"pdf":   "application/pdf",
	"excel": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Export serializes a report and records the format on it. JSON is a
// real serialization; pdf and excel produce a plain-text rendering
// under the corresponding content type, kept as placeholders until a
// document engine is wired in.
func (s *Service) Export(ctx context.Context, userID, reportID uuid.UUID, format string) ([]byte, string, error) {
	contentType, ok := exportFormats[format]
	if !ok {
		return nil, "", fmt.Errorf("%w: unsupported export format %q", apperrors.ErrInvalidInput, format)
	}

	var report models.GeneratedReport
	err := s.db.WithContext(ctx).
		Joins("JOIN chat_sessions ON chat_sessions.id = generated_reports.session_id").
		Where("generated_reports.id = ? AND chat_sessions.user_id = ?", reportID, userID).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: report %s", apperrors.ErrNotFound, reportID)
		}
		return nil, "", err
	}

	var payload []byte
	switch format {
	case "json":
		payload, err = json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", err
		}
	default:
		payload = renderTextual(&report)
	}

	if !containsFormat(report.ExportedFormats, format) {
		report.ExportedFormats = append(report.ExportedFormats, format)
		if err := s.db.WithContext(ctx).Model(&report).Update("exported_formats", report.ExportedFormats).Error; err != nil {
			return nil, "", err
		}
	}
	return payload, contentType, nil
}

func containsFormat(formats models.StringArray, format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

func renderTextual(report *models.GeneratedReport) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n%s\n\nInsights:\n", report.Title, report.Description)
	for _, in := range report.Insights {
		fmt.Fprintf(&buf, "- %s\n", in)
	}
	buf.WriteString("\nRecommendations:\n")
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&buf, "- %s\n", rec)
	}
	return buf.Bytes()
}

// Agents lists the configured report agents.
func (s *Service) Agents(ctx context.Context) ([]models.AgentConfig, error) {
	var agents []models.AgentConfig
	err := s.db.WithContext(ctx).Order("id").Find(&agents).Error
	return agents, err
}

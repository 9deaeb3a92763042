// Package api - AI Reports handlers
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meridian/supplyhub/internal/audit"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/meridian/supplyhub/internal/reports"
)

// ReportHandler serves chat sessions and generated reports.
type ReportHandler struct {
	svc      *reports.Service
	auditSvc *audit.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(svc *reports.Service, auditSvc *audit.Service) *ReportHandler {
	return &ReportHandler{svc: svc, auditSvc: auditSvc}
}

// ListSessions returns the caller's chat sessions
// GET /api/reports/sessions?archived=true
func (h *ReportHandler) ListSessions(c *gin.Context) {
	user := currentUser(c)
	sessions, err := h.svc.ListSessions(c.Request.Context(), user.ID, c.Query("archived") == "true")
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSessionRequest optionally names a new session.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// CreateSession opens a new conversation
// POST /api/reports/sessions
func (h *ReportHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	_ = c.ShouldBindJSON(&req)

	user := currentUser(c)
	sess, err := h.svc.CreateSession(c.Request.Context(), user.ID, req.Title)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GetSession returns one session with its messages
// GET /api/reports/sessions/:id
func (h *ReportHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	user := currentUser(c)
	sess, err := h.svc.GetSession(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateSessionRequest renames or archives a session.
type UpdateSessionRequest struct {
	Title      *string `json:"title"`
	IsArchived *bool   `json:"is_archived"`
}

// UpdateSession patches a session
// PATCH /api/reports/sessions/:id
func (h *ReportHandler) UpdateSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	user := currentUser(c)
	sess, err := h.svc.UpdateSession(c.Request.Context(), user.ID, sessionID, reports.SessionUpdate{
		Title:      req.Title,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSession removes a session with its history
// DELETE /api/reports/sessions/:id
func (h *ReportHandler) DeleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	user := currentUser(c)
	if err := h.svc.DeleteSession(c.Request.Context(), user.ID, sessionID); err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// ClearSessions deletes all of the caller's sessions
// DELETE /api/reports/sessions
func (h *ReportHandler) ClearSessions(c *gin.Context) {
	user := currentUser(c)
	removed, err := h.svc.ClearSessions(c.Request.Context(), user.ID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// SendMessageRequest carries a report request.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage runs the report pipeline on a user message
// POST /api/reports/sessions/:id/messages
func (h *ReportHandler) SendMessage(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	user := currentUser(c)
	result, err := h.svc.SendMessage(c.Request.Context(), user.ID, sessionID, req.Content)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditCreate,
		ObjectType:  "GeneratedReport",
		ObjectID:    result.Report.ID.String(),
		Description: fmt.Sprintf("Generated report %q", result.Report.Title),
		IPAddress:   c.ClientIP(),
	})
	c.JSON(http.StatusCreated, result)
}

// ListReports returns a session's generated reports
// GET /api/reports/sessions/:id/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	user := currentUser(c)
	list, err := h.svc.ListReports(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": list})
}

// Export downloads a report in the requested format
// GET /api/reports/:id/export?format=json
func (h *ReportHandler) Export(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	format := c.DefaultQuery("format", "json")

	user := currentUser(c)
	payload, contentType, err := h.svc.Export(c.Request.Context(), user.ID, reportID, format)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditExport,
		ObjectType:  "GeneratedReport",
		ObjectID:    reportID.String(),
		Description: fmt.Sprintf("Exported report as %s", format),
		IPAddress:   c.ClientIP(),
	})

	filename := fmt.Sprintf("report-%s-%s.%s", reportID, time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// Agents lists the configured report agents
// GET /api/reports/agents
func (h *ReportHandler) Agents(c *gin.Context) {
	agents, err := h.svc.Agents(c.Request.Context())
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

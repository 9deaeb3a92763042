// Package api - Notification handlers, including the SSE stream
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/notify"
)

// NotificationHandler serves the per-user notification endpoints.
type NotificationHandler struct {
	svc *notify.Service
	hub *notify.Hub
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(svc *notify.Service, hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{svc: svc, hub: hub}
}

// List returns the caller's notifications
// GET /api/notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	user := currentUser(c)
	notifications, err := h.svc.List(c.Request.Context(), user.ID, c.Query("unread") == "true")
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

// UnreadCount returns the caller's unread notification count
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := currentUser(c)
	count, err := h.svc.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkAsRead marks one notification read
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	user := currentUser(c)
	if err := h.svc.MarkAsRead(c.Request.Context(), user.ID, id); err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllRead marks every unread notification read
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := currentUser(c)
	updated, err := h.svc.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Stream pushes the caller's notifications over server-sent events
// GET /api/notifications/stream
func (h *NotificationHandler) Stream(c *gin.Context) {
	user := currentUser(c)

	ch, cancel := h.hub.Subscribe(user.ID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: notification\ndata: %s\n\n", payload)
			c.Writer.Flush()
		}
	}
}

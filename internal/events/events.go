// Package events defines the domain events emitted by mutation paths
// and the queue they travel through. Delivery is best effort: emitting
// never blocks or fails the triggering operation.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the event union.
type Kind string

const (
	KindReportReady      Kind = "report_ready"
	KindRoleChanged      Kind = "role_changed"
	KindPermissionDenied Kind = "permission_denied"
)

// ReportReady fires when the report pipeline finishes a chat message.
type ReportReady struct {
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	MessageID uuid.UUID `json:"message_id"`
	Title     string    `json:"title"`
	AgentName string    `json:"agent_name"`
}

// RoleChanged fires when a user's active role assignment changes.
type RoleChanged struct {
	UserID     uuid.UUID `json:"user_id"`
	UserRoleID uint      `json:"user_role_id"`
	RoleName   string    `json:"role_name"`
}

// PermissionDenied fires after a denied mutating request was audited.
type PermissionDenied struct {
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	AuditLogID uuid.UUID `json:"audit_log_id"`
	Permission string    `json:"permission"`
}

// Event is a tagged union over the known event kinds. Exactly one
// payload pointer is non-nil, matching Kind.
type Event struct {
	Kind             Kind              `json:"kind"`
	OccurredAt       time.Time         `json:"occurred_at"`
	ReportReady      *ReportReady      `json:"report_ready,omitempty"`
	RoleChanged      *RoleChanged      `json:"role_changed,omitempty"`
	PermissionDenied *PermissionDenied `json:"permission_denied,omitempty"`
}

// SubjectID returns the user the event is keyed by, used for partition
// assignment so one user's events stay ordered.
func (e Event) SubjectID() uuid.UUID {
	switch e.Kind {
	case KindReportReady:
		return e.ReportReady.UserID
	case KindRoleChanged:
		return e.RoleChanged.UserID
	case KindPermissionDenied:
		return e.PermissionDenied.UserID
	}
	return uuid.Nil
}

// NewReportReady wraps a ReportReady payload into an Event.
func NewReportReady(p ReportReady) Event {
	return Event{Kind: KindReportReady, OccurredAt: time.Now(), ReportReady: &p}
}

// NewRoleChanged wraps a RoleChanged payload into an Event.
func NewRoleChanged(p RoleChanged) Event {
	return Event{Kind: KindRoleChanged, OccurredAt: time.Now(), RoleChanged: &p}
}

// NewPermissionDenied wraps a PermissionDenied payload into an Event.
func NewPermissionDenied(p PermissionDenied) Event {
	return Event{Kind: KindPermissionDenied, OccurredAt: time.Now(), PermissionDenied: &p}
}

// Producer is implemented by the Kafka producer and by test fakes.
type Producer interface {
	Produce(ev Event)
}

// NopProducer drops every event. Used where event delivery is not
// wired, e.g. one-off CLI commands.
type NopProducer struct{}

// Produce implements Producer.
func (NopProducer) Produce(Event) {}

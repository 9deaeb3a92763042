package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectID(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name string
		ev   Event
	}{
		{"report ready", NewReportReady(ReportReady{UserID: userID})},
		{"role changed", NewRoleChanged(RoleChanged{UserID: userID})},
		{"permission denied", NewPermissionDenied(PermissionDenied{UserID: userID})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, userID, tt.ev.SubjectID())
			assert.False(t, tt.ev.OccurredAt.IsZero())
		})
	}

	assert.Equal(t, uuid.Nil, Event{Kind: "mystery"}.SubjectID())
}

func TestEventRoundTrip(t *testing.T) {
	original := NewRoleChanged(RoleChanged{
		UserID:     uuid.New(),
		UserRoleID: 7,
		RoleName:   "Manager",
	})

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	// Only the matching payload is serialized.
	assert.Contains(t, string(raw), "role_changed")
	assert.NotContains(t, string(raw), "report_ready")

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, KindRoleChanged, decoded.Kind)
	require.NotNil(t, decoded.RoleChanged)
	assert.Equal(t, original.RoleChanged.UserID, decoded.RoleChanged.UserID)
	assert.Equal(t, "Manager", decoded.RoleChanged.RoleName)
	assert.Nil(t, decoded.ReportReady)
	assert.Nil(t, decoded.PermissionDenied)
}

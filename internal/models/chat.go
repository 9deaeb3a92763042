// Package models - AI Reports chat sessions, messages and generated
// report payloads.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is a user's AI Reports conversation thread.
type ChatSession struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	User       *User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Title      string        `json:"title" gorm:"size:255"`
	IsArchived bool          `json:"is_archived" gorm:"default:false"`
	Messages   []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// MessageType distinguishes user prompts from AI responses.
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageAI   MessageType = "ai"
)

// MessageStatus mirrors the pipeline stage a response was produced in.
type MessageStatus string

const (
	MessageStatusComplete MessageStatus = "complete"
)

// ChatMessage is a single message inside a session.
type ChatMessage struct {
	ID               uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID        uuid.UUID     `json:"session_id" gorm:"type:uuid;not null;index"`
	Session          *ChatSession  `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Type             MessageType   `json:"message_type" gorm:"size:10;not null"`
	Content          string        `json:"content"`
	Status           MessageStatus `json:"status" gorm:"size:20"`
	ProcessingTimeMS *int          `json:"processing_time_ms"`
	CreatedAt        time.Time     `json:"created_at"`
}

// GeneratedReport stores the structured output of one pipeline run.
type GeneratedReport struct {
	ID              uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID       uuid.UUID    `json:"session_id" gorm:"type:uuid;not null;index"`
	Session         *ChatSession `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Title           string       `json:"title" gorm:"size:255"`
	Description     string       `json:"description"`
	ReportData      JSONB        `json:"report_data" gorm:"type:jsonb"`
	Insights        StringArray  `json:"insights" gorm:"type:jsonb"`
	Recommendations StringArray  `json:"recommendations" gorm:"type:jsonb"`
	ExportedFormats StringArray  `json:"exported_formats" gorm:"type:jsonb"`
	CreatedAt       time.Time    `json:"created_at"`
}

// AgentConfig holds the tunables for the report agent. The pipeline is
// scripted, so these are descriptive rather than behavioral, but they
// are kept editable for the admin surface.
type AgentConfig struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	ModelName    string    `json:"model_name" gorm:"size:100;default:gpt-4"`
	Temperature  float64   `json:"temperature" gorm:"default:0.7"`
	MaxTokens    int       `json:"max_tokens" gorm:"default:2000"`
	SystemPrompt string    `json:"system_prompt"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

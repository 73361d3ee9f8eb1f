package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status tracks the delivery state of a message.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
	StatusError      Status = "error"
)

// Content type markers recorded in message metadata by the extractor.
const (
	ContentTypeSVG               = "svg"
	ContentTypeCode              = "code"
	ContentTypeSystemInstruction = "system_instruction"
)

// Reference values for synthesized context messages so they can be located
// later and excluded from display.
const (
	ReferenceSVGContext  = "svg_context"
	ReferenceCodeContext = "code_context"
)

// SVGAnalysis holds heuristics derived from a generated SVG. Advisory only.
type SVGAnalysis struct {
	HasButtons bool     `json:"has_buttons"`
	Colors     []string `json:"colors,omitempty"`
	IsMockup   bool     `json:"is_mockup"`
}

// MessageMetadata carries provenance and display hints for a message.
type MessageMetadata struct {
	ContentType     string       `json:"content_type,omitempty"`
	Reference       string       `json:"reference,omitempty"`
	ParentMessageID string       `json:"parent_message_id,omitempty"`
	BranchID        string       `json:"branch_id,omitempty"`
	SVGAnalysis     *SVGAnalysis `json:"svg_analysis,omitempty"`
}

// Message is a single entry in a conversation. The role is fixed at creation;
// only Content (user edits) and Status may change afterwards.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Status    Status           `json:"status,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Status:    StatusComplete,
	}
}

// IsSystemInstruction reports whether the message is a synthesized system
// message that must be sent to the model but never shown in a UI.
func (m *Message) IsSystemInstruction() bool {
	return m.Metadata != nil && m.Metadata.ContentType == ContentTypeSystemInstruction
}

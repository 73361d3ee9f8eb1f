package models

import (
	"strings"
	"time"
)

// GeneratedContent tracks artifacts extracted across a conversation's lifetime.
// Lists are append-only and chronological; the most recent artifact is the
// last element.
type GeneratedContent struct {
	SVG   []string            `json:"svg,omitempty"`
	Code  []string            `json:"code,omitempty"`
	Other map[string][]string `json:"other,omitempty"`
}

// LatestSVG returns the most recently generated SVG, or "" if none exists.
func (g *GeneratedContent) LatestSVG() string {
	if g == nil || len(g.SVG) == 0 {
		return ""
	}
	return g.SVG[len(g.SVG)-1]
}

// LatestCode returns the most recently generated code block, or "" if none.
func (g *GeneratedContent) LatestCode() string {
	if g == nil || len(g.Code) == 0 {
		return ""
	}
	return g.Code[len(g.Code)-1]
}

// Conversation represents a persisted chat thread. Messages are the source of
// truth for history; Summary and GeneratedContent are derived state.
type Conversation struct {
	ID           string            `json:"id"`
	Title        string            `json:"title,omitempty"`
	Messages     []Message         `json:"messages"`
	Summary      string            `json:"summary,omitempty"`
	// SummarizedAt records the message count when Summary was last generated,
	// used to decide when a refresh is due.
	SummarizedAt int               `json:"summarized_at,omitempty"`
	Generated    *GeneratedContent `json:"generated_content,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastModified time.Time         `json:"last_modified"`
}

// Touch updates the modification timestamp.
func (c *Conversation) Touch() {
	c.LastModified = time.Now()
}

// AppendMessage adds a message and updates LastModified.
func (c *Conversation) AppendMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.Touch()
}

// MessageIndex returns the index of the message with the given id, or -1.
func (c *Conversation) MessageIndex(messageID string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the conversation. Used by stores that hand out
// records to callers who may mutate them.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	if c.Generated != nil {
		gen := GeneratedContent{
			SVG:  append([]string(nil), c.Generated.SVG...),
			Code: append([]string(nil), c.Generated.Code...),
		}
		if c.Generated.Other != nil {
			gen.Other = make(map[string][]string, len(c.Generated.Other))
			for k, v := range c.Generated.Other {
				gen.Other[k] = append([]string(nil), v...)
			}
		}
		out.Generated = &gen
	}
	for i := range out.Messages {
		if meta := out.Messages[i].Metadata; meta != nil {
			cp := *meta
			out.Messages[i].Metadata = &cp
		}
	}
	return &out
}

// ReviewPromptMarker prefixes prompts assembled by the review collector so
// title derivation can special-case them.
const ReviewPromptMarker = "[code-review]"

const maxTitleLength = 50

// DeriveTitle builds a conversation title from the first user message.
// Code-review conversations get a fixed title instead of raw file content.
func DeriveTitle(firstMessage string) string {
	text := strings.TrimSpace(firstMessage)
	if text == "" {
		return "New Conversation"
	}
	if strings.HasPrefix(text, ReviewPromptMarker) {
		return "Code Review"
	}
	// Collapse to a single line before capping.
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	runes := []rune(text)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength]) + "..."
	}
	return text
}

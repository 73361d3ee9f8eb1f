// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/chatmem-go/internal/review"
	"github.com/raphaelgruber/chatmem-go/internal/service"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Conversations *service.ConversationService
	Chat          *service.ChatService
	Fork          *service.ForkService
	Review        *review.Collector
	Logger        *slog.Logger
}

package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/chatmem-go/internal/service"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

// SendMessageInput defines the input schema for the send_message tool.
type SendMessageInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"Existing conversation ID, omit to start a new conversation"`
	Text           string `json:"text" jsonschema:"required,The user message text"`
	Model          string `json:"model,omitempty" jsonschema:"Model ID to use for this turn"`
}

// SendMessageResult is the response from the send_message tool.
type SendMessageResult struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageID      string `json:"message_id"`
	Reply          string `json:"reply"`
	Status         string `json:"status"`
	Summary        string `json:"summary,omitempty"`
}

// NewSendMessageHandler creates the send_message tool handler. Runs one full
// chat turn; turn-level model failures surface as an error-status reply, not
// a tool error.
func NewSendMessageHandler(deps *Dependencies) mcp.ToolHandlerFor[SendMessageInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Text == "" {
			return ErrorResult("Message text is required", "Provide a non-empty text field"), nil, nil
		}

		reply, conv, err := deps.Chat.SendMessage(ctx, input.ConversationID, input.Text, input.Model)
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			return ErrorResult("Message text is required", "Provide a non-empty text field"), nil, nil
		case errors.Is(err, service.ErrRateLimited):
			return ErrorResult("Sending too quickly", "Wait a moment and resend"), nil, nil
		case errors.Is(err, service.ErrNoModel):
			return ErrorResult("No model selected", "Provide a model field or configure a default model"), nil, nil
		case errors.Is(err, store.ErrNotFound):
			return ErrorResult("Conversation not found", "Omit conversation_id to start a new conversation"), nil, nil
		case err != nil:
			deps.Logger.Error("send_message failed", "conversation_id", input.ConversationID, "error", err)
			return ErrorResult("Failed to complete the turn", "Storage may be unavailable"), nil, nil
		}

		result := SendMessageResult{
			ConversationID: conv.ID,
			Title:          conv.Title,
			MessageID:      reply.ID,
			Reply:          reply.Content,
			Status:         string(reply.Status),
			Summary:        conv.Summary,
		}
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}

package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

// ForkConversationInput defines the input schema for fork_conversation.
type ForkConversationInput struct {
	ConversationID   string `json:"conversation_id" jsonschema:"required,Conversation to fork"`
	MessageID        string `json:"message_id,omitempty" jsonschema:"Anchor message, the fork copies history up to and including it"`
	StartFromMessage bool   `json:"start_from_message,omitempty" jsonschema:"Copy from the anchor message onward instead of up to it"`
	VisibleOnly      bool   `json:"visible_only,omitempty" jsonschema:"Exclude hidden system context messages from the copy"`
}

// ForkConversationResult is the response from the fork_conversation tool.
type ForkConversationResult struct {
	ForkID   string `json:"fork_id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
}

// NewForkConversationHandler creates the fork_conversation tool handler.
func NewForkConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[ForkConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ForkConversationInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ConversationID == "" {
			return ErrorResult("Conversation ID is required", "Provide a conversation_id field"), nil, nil
		}

		fork, err := deps.Fork.Fork(ctx, input.ConversationID, models.ForkOptions{
			MessageID:           input.MessageID,
			StartFromMessage:    input.StartFromMessage,
			VisibleMessagesOnly: input.VisibleOnly,
			IncludeAllBranches:  true,
		})
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResult("Conversation not found", "Use list_conversations to find valid IDs"), nil, nil
		}
		if err != nil {
			deps.Logger.Error("fork failed", "conversation_id", input.ConversationID, "error", err)
			return ErrorResult("Failed to fork conversation", "Storage may be unavailable"), nil, nil
		}

		result := ForkConversationResult{
			ForkID:   fork.ID,
			Title:    fork.Title,
			Messages: len(fork.Messages),
		}
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}

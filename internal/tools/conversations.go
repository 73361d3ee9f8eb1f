package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

// ListConversationsInput defines the input schema for list_conversations.
type ListConversationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of conversations to return"`
}

// ConversationSummary is one row of the list_conversations output.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     int       `json:"messages"`
	LastModified time.Time `json:"last_modified"`
}

// NewListConversationsHandler creates the list_conversations tool handler.
// Conversations are returned newest first.
func NewListConversationsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListConversationsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListConversationsInput) (
		*mcp.CallToolResult, any, error,
	) {
		convs, err := deps.Conversations.List(ctx)
		if err != nil {
			deps.Logger.Error("list failed", "error", err)
			return ErrorResult("Failed to list conversations", "Storage may be unavailable"), nil, nil
		}

		if input.Limit > 0 && len(convs) > input.Limit {
			convs = convs[:input.Limit]
		}

		rows := make([]ConversationSummary, 0, len(convs))
		for _, conv := range convs {
			rows = append(rows, ConversationSummary{
				ID:           conv.ID,
				Title:        conv.Title,
				Messages:     len(conv.Messages),
				LastModified: conv.LastModified,
			})
		}

		jsonBytes, _ := json.MarshalIndent(rows, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}

// GetConversationInput defines the input schema for get_conversation.
type GetConversationInput struct {
	ID            string `json:"id" jsonschema:"required,Conversation ID"`
	IncludeHidden bool   `json:"include_hidden,omitempty" jsonschema:"Include synthesized system context messages"`
}

// NewGetConversationHandler creates the get_conversation tool handler.
// Hidden system context messages are omitted unless requested.
func NewGetConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[GetConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetConversationInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ID == "" {
			return ErrorResult("Conversation ID is required", "Provide an id field"), nil, nil
		}

		conv, err := deps.Conversations.Get(ctx, input.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResult(fmt.Sprintf("Conversation %s not found", input.ID), "Use list_conversations to find valid IDs"), nil, nil
		}
		if err != nil {
			deps.Logger.Error("get failed", "conversation_id", input.ID, "error", err)
			return ErrorResult("Failed to load conversation", "Storage may be unavailable"), nil, nil
		}

		if !input.IncludeHidden {
			visible := make([]models.Message, 0, len(conv.Messages))
			for _, msg := range conv.Messages {
				if msg.IsSystemInstruction() {
					continue
				}
				visible = append(visible, msg)
			}
			conv.Messages = visible
		}

		jsonBytes, _ := json.MarshalIndent(conv, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}

// DeleteConversationInput defines the input schema for delete_conversation.
type DeleteConversationInput struct {
	ID string `json:"id" jsonschema:"required,Conversation ID to delete"`
}

// NewDeleteConversationHandler creates the delete_conversation tool handler.
func NewDeleteConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[DeleteConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteConversationInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ID == "" {
			return ErrorResult("Conversation ID is required", "Provide an id field"), nil, nil
		}

		err := deps.Conversations.Delete(ctx, input.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResult(fmt.Sprintf("Conversation %s not found", input.ID), "It may already be deleted"), nil, nil
		}
		if err != nil {
			deps.Logger.Error("delete failed", "conversation_id", input.ID, "error", err)
			return ErrorResult("Failed to delete conversation", "Storage may be unavailable"), nil, nil
		}

		return TextResult(fmt.Sprintf("Deleted conversation %s", input.ID)), nil, nil
	}
}

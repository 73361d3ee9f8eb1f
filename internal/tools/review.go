package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/chatmem-go/internal/review"
)

// CollectReviewInput defines the input schema for the collect_review tool.
type CollectReviewInput struct {
	Dirs    []string `json:"dirs" jsonschema:"required,Directories to collect source files from"`
	Model   string   `json:"model,omitempty" jsonschema:"Model ID for the review turn"`
	Collect bool     `json:"collect_only,omitempty" jsonschema:"Return the assembled prompt without starting a conversation"`
}

// CollectReviewResult is the response from the collect_review tool.
type CollectReviewResult struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	Reply          string   `json:"reply,omitempty"`
	Files          []string `json:"files"`
	Skipped        int      `json:"skipped"`
}

// NewCollectReviewHandler creates the collect_review tool handler. Gathers
// source files and starts a code-review conversation with them, or just
// returns the assembled prompt when collect_only is set.
func NewCollectReviewHandler(deps *Dependencies) mcp.ToolHandlerFor[CollectReviewInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CollectReviewInput) (
		*mcp.CallToolResult, any, error,
	) {
		if len(input.Dirs) == 0 {
			return ErrorResult("At least one directory is required", "Provide a dirs array"), nil, nil
		}

		report, err := deps.Review.Collect(ctx, input.Dirs)
		if errors.Is(err, review.ErrAccessDenied) {
			return ErrorResult("Directory not allowed", "Add it to the configured review paths"), nil, nil
		}
		if err != nil {
			return ErrorResult("Failed to collect files", err.Error()), nil, nil
		}

		result := CollectReviewResult{Files: report.Files, Skipped: report.Skipped}

		if input.Collect {
			jsonBytes, _ := json.MarshalIndent(result, "", "  ")
			return TextResult(string(jsonBytes)), nil, nil
		}

		reply, conv, err := deps.Chat.SendMessage(ctx, "", report.Prompt, input.Model)
		if err != nil {
			deps.Logger.Error("review turn failed", "error", err)
			return ErrorResult("Failed to start the review conversation", "Try again with collect_only to inspect the prompt"), nil, nil
		}

		result.ConversationID = conv.ID
		result.Reply = reply.Content
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return TextResult(string(jsonBytes)), nil, nil
	}
}

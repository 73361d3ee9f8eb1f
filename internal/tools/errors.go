package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrorResult builds a tool result flagged as an error. The hint, when
// non-empty, tells the caller how to recover and is appended after the
// message.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// TextResult builds a plain-text success result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

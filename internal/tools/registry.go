package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Ping tool - test/placeholder
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	// The full chat turn: persist user message, build context, invoke model
	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send a message in a conversation (or start a new one) and get the assistant reply",
	}, NewSendMessageHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_conversations",
		Description: "List stored conversations, newest first",
	}, NewListConversationsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_conversation",
		Description: "Retrieve a conversation with its full message history",
	}, NewGetConversationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fork_conversation",
		Description: "Duplicate a conversation into an independent copy, optionally up to or from a message",
	}, NewForkConversationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_conversation",
		Description: "Delete a conversation permanently",
	}, NewDeleteConversationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collect_review",
		Description: "Collect source files from allowed directories and start a code-review conversation",
	}, NewCollectReviewHandler(deps))
}

// Package prompt assembles the context window submitted to a model: the
// bounded subset of a conversation's history plus synthesized system messages
// that re-inject the most recent generated artifacts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/chatmem-go/internal/llm"
	"github.com/raphaelgruber/chatmem-go/internal/models"
)

// SummaryThreshold is the message count at which a conversation gains a
// running summary. Once a summary exists, the window becomes the summary plus
// the most recent SummaryThreshold messages.
const SummaryThreshold = 8

// EstimateTokens approximates the token cost of text as ceil(len/4). A fixed
// deterministic approximation; no external tokenizer.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

const svgInstruction = `The conversation has an active SVG artifact. It is shown below.
When the user asks for changes, apply them to this SVG and return the complete
modified SVG element, not a fragment or a diff.`

const codeInstruction = `The conversation has an active code artifact. It is shown below.
When the user asks for changes, return the complete modified code block, not a diff.`

// Build produces the ordered message list for submission to the model
// gateway. Artifact context messages come first and are exempt from the token
// budget; the caller appends the new user message last.
//
// The stored conversation is never mutated.
func Build(conv *models.Conversation, budget int) []llm.ChatMessage {
	var out []llm.ChatMessage

	// Artifact context is assumed to dominate relevance, so it is injected
	// ahead of history and ignores the budget.
	if svg := conv.Generated.LatestSVG(); svg != "" {
		out = append(out, llm.ChatMessage{
			Role:    string(models.RoleSystem),
			Content: svgInstruction + "\n\n" + svg,
		})
	}
	if code := conv.Generated.LatestCode(); code != "" {
		out = append(out, llm.ChatMessage{
			Role:    string(models.RoleSystem),
			Content: codeInstruction + "\n\n" + code,
		})
	}

	if conv.Summary != "" && len(conv.Messages) > SummaryThreshold {
		// Fixed window: summary plus the most recent threshold-many messages,
		// taken verbatim rather than token-budgeted.
		out = append(out, llm.ChatMessage{
			Role:    string(models.RoleSystem),
			Content: "Summary of the earlier conversation:\n" + conv.Summary,
		})
		for _, msg := range conv.Messages[len(conv.Messages)-SummaryThreshold:] {
			if msg.IsSystemInstruction() {
				// Superseded by the artifact context injected above.
				continue
			}
			out = append(out, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
		}
		return out
	}

	// No summary: walk newest to oldest accumulating estimates, then restore
	// chronological order.
	var history []llm.ChatMessage
	total := 0
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.IsSystemInstruction() {
			continue
		}
		cost := EstimateTokens(msg.Content)
		if total+cost > budget {
			break
		}
		total += cost
		history = append([]llm.ChatMessage{{Role: string(msg.Role), Content: msg.Content}}, history...)
	}
	return append(out, history...)
}

// Keywords in user text that indicate intent to modify an active SVG.
var modificationKeywords = []string{"button", "color", "change", "modify", "update", "svg", "mockup"}

// RewriteUserText prepends a hidden instruction block to the user's text when
// the conversation has an active SVG and the text looks like a modification
// request. The wrapped block goes to the model only; display code strips it
// via extract.StripHidden.
func RewriteUserText(conv *models.Conversation, userText string) string {
	svg := conv.Generated.LatestSVG()
	if svg == "" {
		return userText
	}

	lower := strings.ToLower(userText)
	matched := false
	for _, kw := range modificationKeywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return userText
	}

	return fmt.Sprintf("<context>The user is asking to modify the existing SVG. "+
		"Edit the current SVG immediately and return the full result; do not ask for confirmation.</context>\n%s",
		userText)
}

package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

func conversationWith(n int) *models.Conversation {
	conv := &models.Conversation{ID: "c"}
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		conv.Messages = append(conv.Messages, models.Message{
			ID:      fmt.Sprintf("msg_%d", i),
			Role:    role,
			Content: fmt.Sprintf("message number %d with some padding text", i),
		})
	}
	return conv
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildRespectsBudget(t *testing.T) {
	conv := conversationWith(20)
	budget := 30

	out := Build(conv, budget)

	total := 0
	for _, msg := range out {
		total += EstimateTokens(msg.Content)
	}
	if total > budget {
		t.Errorf("window of %d estimated tokens exceeds budget %d", total, budget)
	}
	if len(out) == 0 {
		t.Error("expected at least the newest message to fit")
	}
}

func TestBuildPreservesChronologicalOrder(t *testing.T) {
	conv := conversationWith(10)

	out := Build(conv, 1_000_000)

	if len(out) != 10 {
		t.Fatalf("expected all 10 messages under a huge budget, got %d", len(out))
	}
	for i, msg := range out {
		want := conv.Messages[i].Content
		if msg.Content != want {
			t.Errorf("position %d: got %q, want %q", i, msg.Content, want)
		}
	}
}

func TestBuildDropsOldestFirst(t *testing.T) {
	conv := conversationWith(10)

	// Budget for exactly the newest few messages.
	newest := conv.Messages[len(conv.Messages)-1].Content
	out := Build(conv, EstimateTokens(newest))

	if len(out) != 1 || out[0].Content != newest {
		t.Errorf("expected only the newest message, got %d messages", len(out))
	}
}

func TestBuildSummaryWindow(t *testing.T) {
	conv := conversationWith(12)
	conv.Summary = "they discussed many things"

	out := Build(conv, 50)

	if out[0].Role != "system" || !strings.Contains(out[0].Content, conv.Summary) {
		t.Fatalf("first message should carry the summary: %+v", out[0])
	}
	// Summary plus the fixed window of the 8 most recent messages.
	if len(out) != 1+SummaryThreshold {
		t.Fatalf("expected %d messages, got %d", 1+SummaryThreshold, len(out))
	}
	if out[1].Content != conv.Messages[len(conv.Messages)-SummaryThreshold].Content {
		t.Errorf("window does not start at the right message: %q", out[1].Content)
	}
	if out[len(out)-1].Content != conv.Messages[len(conv.Messages)-1].Content {
		t.Errorf("window does not end at the newest message")
	}
}

func TestBuildSummaryIgnoredBelowThreshold(t *testing.T) {
	conv := conversationWith(4)
	conv.Summary = "premature summary"

	out := Build(conv, 1_000_000)
	for _, msg := range out {
		if strings.Contains(msg.Content, "premature summary") {
			t.Error("summary must not be injected below the threshold")
		}
	}
}

func TestBuildArtifactContextBudgetExempt(t *testing.T) {
	conv := conversationWith(6)
	conv.Generated = &models.GeneratedContent{
		SVG: []string{"<svg>old</svg>", "<svg>" + strings.Repeat("big", 500) + "</svg>"},
	}

	out := Build(conv, 10)

	if out[0].Role != "system" {
		t.Fatal("artifact context must come first")
	}
	if !strings.Contains(out[0].Content, "<svg>"+strings.Repeat("big", 500)) {
		t.Error("artifact context must carry the most recent SVG in full")
	}
	if strings.Contains(out[0].Content, "<svg>old</svg>") {
		t.Error("only the most recent artifact is injected")
	}
}

func TestBuildCodeArtifactContext(t *testing.T) {
	conv := conversationWith(2)
	conv.Generated = &models.GeneratedContent{Code: []string{"print(1)", "print(2)"}}

	out := Build(conv, 1_000_000)

	if out[0].Role != "system" || !strings.Contains(out[0].Content, "print(2)") {
		t.Errorf("code context missing or wrong: %+v", out[0])
	}
}

func TestBuildDoesNotMutateConversation(t *testing.T) {
	conv := conversationWith(5)
	conv.Generated = &models.GeneratedContent{SVG: []string{"<svg/>"}}
	before := len(conv.Messages)

	_ = Build(conv, 100)

	if len(conv.Messages) != before {
		t.Error("Build mutated the conversation")
	}
}

func TestRewriteUserText(t *testing.T) {
	withSVG := &models.Conversation{Generated: &models.GeneratedContent{SVG: []string{"<svg/>"}}}
	plain := &models.Conversation{}

	tests := []struct {
		name      string
		conv      *models.Conversation
		in        string
		rewritten bool
	}{
		{"no artifact", plain, "change the color", false},
		{"artifact plus keyword", withSVG, "make the Button red", true},
		{"artifact plus color keyword", withSVG, "different COLOR please", true},
		{"artifact without keyword", withSVG, "tell me a joke", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteUserText(tt.conv, tt.in)
			if tt.rewritten {
				if !strings.HasPrefix(got, "<context>") || !strings.HasSuffix(got, tt.in) {
					t.Errorf("expected hidden instruction prefix, got %q", got)
				}
			} else if got != tt.in {
				t.Errorf("expected unchanged text, got %q", got)
			}
		})
	}
}

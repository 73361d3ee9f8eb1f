package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/chatmem-go/internal/llm"
	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/prompt"
)

// SummaryRefreshInterval is how many messages may accrue after a summary
// before it is regenerated. Keeps long conversations from outgrowing a stale
// summary.
const SummaryRefreshInterval = 16

// Summaries keep the last keepRecent messages out so the model still sees
// them verbatim; at most maxSummarized old messages are compressed per call.
const (
	keepRecent    = 2
	maxSummarized = 10
)

const summaryInstruction = `Summarize the conversation below concisely. Emphasize any generated
content (SVG mockups, code), decisions that were made, and specific user requests. Reply with
the summary text only.`

// Summarizer compresses older conversation messages into a running summary.
type Summarizer struct {
	gateway llm.Gateway
	model   string
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewSummarizer creates a summarizer that invokes the gateway with the given
// model id.
func NewSummarizer(gateway llm.Gateway, model string, logger *slog.Logger, collector *metrics.Collector) *Summarizer {
	return &Summarizer{gateway: gateway, model: model, logger: logger, metrics: collector}
}

// Due reports whether the conversation needs a (re)generated summary: the
// threshold is crossed and either no summary exists or the refresh interval
// has elapsed.
func (s *Summarizer) Due(conv *models.Conversation) bool {
	if len(conv.Messages) < prompt.SummaryThreshold {
		return false
	}
	if conv.Summary == "" {
		return true
	}
	return len(conv.Messages)-conv.SummarizedAt >= SummaryRefreshInterval
}

// Summarize compresses the oldest messages (all but the last two, capped at
// ten) into a short summary. Fails soft: any error yields "" and the
// conversation proceeds without a summary.
func (s *Summarizer) Summarize(ctx context.Context, messages []models.Message) string {
	if len(messages) <= keepRecent {
		return ""
	}

	oldest := messages[:len(messages)-keepRecent]
	if len(oldest) > maxSummarized {
		oldest = oldest[:maxSummarized]
	}

	request := make([]llm.ChatMessage, 0, len(oldest)+1)
	request = append(request, llm.ChatMessage{
		Role:    string(models.RoleSystem),
		Content: summaryInstruction,
	})
	for _, msg := range oldest {
		request = append(request, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	start := time.Now()
	resp, err := s.gateway.Invoke(ctx, s.model, request)
	if err != nil {
		s.logger.Warn("summarization failed, continuing without summary", "error", err)
		return ""
	}
	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpLLMSummarize, time.Since(start))
	}
	return resp.Flatten()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/chatmem-go/internal/config"
	"github.com/raphaelgruber/chatmem-go/internal/extract"
	"github.com/raphaelgruber/chatmem-go/internal/llm"
	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/prompt"
)

// Sentinel errors surfaced to callers as user-visible conditions.
var (
	// ErrRateLimited rejects a send that arrives before the minimum interval
	// since the previous accepted send has elapsed.
	ErrRateLimited = errors.New("sending messages too quickly, wait a moment and try again")

	// ErrNoModel means no model could be resolved from any selection source.
	ErrNoModel = errors.New("no model selected")

	// ErrEmptyMessage rejects a send whose text is empty or whitespace only.
	ErrEmptyMessage = errors.New("message text is empty")
)

// seedGuardTTL bounds the create-idempotency guard: an identical initial
// message reuses the just-created conversation only within this window, so
// a genuinely new chat started later with the same opening text gets its
// own record.
const seedGuardTTL = 5 * time.Second

// errorReplyText is the fixed assistant-visible reply persisted when the
// model invocation fails. Turn-level failures appear as a normal chat bubble,
// never as an exception.
const errorReplyText = "Sorry, I ran into a problem generating a response. Please try again."

// PendingPrompt is an initial message hand-off (the quick-start path).
// Queued explicitly and consumed exactly once.
type PendingPrompt struct {
	Text  string
	Model string
}

// ChatService is the per-turn orchestrator: it owns the full user-message-in,
// assistant-message-out cycle.
type ChatService struct {
	conversations *ConversationService
	gateway       llm.Gateway
	summarizer    *Summarizer
	logger        *slog.Logger
	metrics       *metrics.Collector

	budget       int
	sendInterval time.Duration
	defaultModel string
	settingsFile string

	mu       sync.Mutex
	lastSend time.Time
	pending  *PendingPrompt

	// Guards against creating two conversations for the same initial message
	// when overlapping sends race. Expires after seedGuard.
	seedGuard    time.Duration
	lastSeedText string
	lastSeedID   string
	lastSeedAt   time.Time
}

// NewChatService wires the turn orchestrator.
func NewChatService(
	conversations *ConversationService,
	gateway llm.Gateway,
	summarizer *Summarizer,
	cfg config.Config,
	logger *slog.Logger,
	collector *metrics.Collector,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		gateway:       gateway,
		summarizer:    summarizer,
		logger:        logger,
		metrics:       collector,
		budget:        cfg.ContextBudget,
		sendInterval:  cfg.SendInterval,
		seedGuard:     seedGuardTTL,
		defaultModel:  cfg.DefaultModel,
		settingsFile:  cfg.SettingsFile,
	}
}

// QueuePrompt stores an initial message payload for the next SendMessage
// call. Replaces any previously queued prompt.
func (s *ChatService) QueuePrompt(p PendingPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &p
}

// takePending consumes the queued prompt, if any.
func (s *ChatService) takePending() *PendingPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

// SendMessage runs one full turn. conversationID may be empty to start a new
// conversation. modelID may be empty; the selection chain is queued prompt >
// explicit id > persisted last choice > configured default.
//
// Gateway failures do not propagate: they are converted to a persisted
// assistant-role error message and the turn completes normally.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, userText, modelID string) (*models.Message, *models.Conversation, error) {
	turnStart := time.Now()

	if strings.TrimSpace(userText) == "" {
		return nil, nil, ErrEmptyMessage
	}

	// Rate check: user-visible rejection, not a crash.
	s.mu.Lock()
	if !s.lastSend.IsZero() && time.Since(s.lastSend) < s.sendInterval {
		s.mu.Unlock()
		return nil, nil, ErrRateLimited
	}
	s.lastSend = time.Now()
	s.mu.Unlock()

	pending := s.takePending()

	// Resolve or create the conversation.
	conv, created, err := s.resolve(ctx, conversationID, userText)
	if err != nil {
		return nil, nil, err
	}

	// The user message is persisted immediately, independent of whether the
	// assistant reply succeeds. Create already seeded it.
	if !created {
		conv.AppendMessage(models.NewMessage(models.RoleUser, userText))
		if err := s.conversations.Update(ctx, conv); err != nil {
			return nil, nil, fmt.Errorf("persist user message: %w", err)
		}
	}

	// Refresh artifact bookkeeping before building the window.
	extract.TagMessages(conv.Messages)
	s.refreshGenerated(conv)

	// The window covers history up to but not including this turn's user
	// message; that message goes in last, possibly rewritten.
	history := *conv
	history.Messages = conv.Messages[:len(conv.Messages)-1]
	window := prompt.Build(&history, s.budget)
	window = append(window, llm.ChatMessage{
		Role:    string(models.RoleUser),
		Content: prompt.RewriteUserText(conv, userText),
	})

	model, err := s.selectModel(pending, modelID)
	if err != nil {
		return nil, nil, err
	}

	// Transient placeholder: replaced by the reply or by the error message.
	placeholder := models.NewMessage(models.RoleAssistant, "")
	placeholder.Status = models.StatusIncomplete
	conv.Messages = append(conv.Messages, placeholder)

	invokeStart := time.Now()
	resp, invokeErr := s.gateway.Invoke(ctx, model, window)
	invokeDur := time.Since(invokeStart)

	// Drop transient placeholders before recording the outcome.
	filtered := conv.Messages[:0:0]
	for _, msg := range conv.Messages {
		if msg.Role == models.RoleAssistant && msg.Status == models.StatusIncomplete {
			continue
		}
		filtered = append(filtered, msg)
	}
	conv.Messages = filtered

	if invokeErr != nil {
		s.logger.Error("model invocation failed", "conversation_id", conv.ID, "model", model, "error", invokeErr)
		errMsg := models.NewMessage(models.RoleAssistant, errorReplyText)
		errMsg.Status = models.StatusError
		conv.AppendMessage(errMsg)
		if err := s.conversations.Update(ctx, conv); err != nil {
			return nil, nil, fmt.Errorf("persist error reply: %w", err)
		}
		return &conv.Messages[len(conv.Messages)-1], conv, nil
	}

	cleaned := extract.StripHidden(resp.Flatten())
	if s.metrics != nil {
		s.metrics.RecordLLMUsage(metrics.OpLLMInvoke, invokeDur,
			int64(estimateWindow(window)), int64(prompt.EstimateTokens(cleaned)))
	}

	// Defensive dedupe against double-invocation races: an identical
	// assistant reply already in the filtered list is not appended again.
	assistant := s.appendReply(conv, cleaned)

	// Re-extract so a new artifact becomes durable context for future turns.
	extract.TagMessages(conv.Messages)
	s.recordNewArtifacts(conv)

	s.maybeSummarize(ctx, conv)

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, nil, fmt.Errorf("persist assistant message: %w", err)
	}

	s.persistModelChoice(model)

	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpTurn, time.Since(turnStart))
	}
	return assistant, conv, nil
}

// resolve loads the conversation, or creates one seeded with the user text
// when no id is given. The created flag tells the caller the user message is
// already present.
func (s *ChatService) resolve(ctx context.Context, conversationID, userText string) (*models.Conversation, bool, error) {
	if conversationID != "" {
		conv, err := s.conversations.Get(ctx, conversationID)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}

	// Idempotency guard: a racing second create for the same initial message
	// reuses the conversation the first one made. The guard is transient; a
	// new chat opened with the same text after the window creates its own
	// record.
	s.mu.Lock()
	if s.lastSeedID != "" && s.lastSeedText == userText && time.Since(s.lastSeedAt) < s.seedGuard {
		id := s.lastSeedID
		s.mu.Unlock()
		conv, err := s.conversations.Get(ctx, id)
		if err == nil {
			return conv, false, nil
		}
	} else {
		s.mu.Unlock()
	}

	conv, err := s.conversations.Create(ctx, userText)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.lastSeedText = userText
	s.lastSeedID = conv.ID
	s.lastSeedAt = time.Now()
	s.mu.Unlock()

	return conv, true, nil
}

// selectModel resolves the model id: queued prompt > explicit argument >
// persisted last choice > configured default.
func (s *ChatService) selectModel(pending *PendingPrompt, modelID string) (string, error) {
	if pending != nil && pending.Model != "" {
		return pending.Model, nil
	}
	if modelID != "" {
		return modelID, nil
	}
	if settings, err := config.LoadSettings(s.settingsFile); err == nil && settings.LastModel != "" {
		return settings.LastModel, nil
	}
	if s.defaultModel != "" {
		return s.defaultModel, nil
	}
	return "", ErrNoModel
}

// appendReply appends the cleaned assistant reply unless an identical one
// already exists, and returns the message that represents the reply.
func (s *ChatService) appendReply(conv *models.Conversation, cleaned string) *models.Message {
	for i := range conv.Messages {
		msg := &conv.Messages[i]
		if msg.Role == models.RoleAssistant && msg.Content == cleaned {
			s.logger.Debug("duplicate assistant reply skipped", "conversation_id", conv.ID)
			return msg
		}
	}
	reply := models.NewMessage(models.RoleAssistant, cleaned)
	conv.AppendMessage(reply)
	return &conv.Messages[len(conv.Messages)-1]
}

// refreshGenerated rebuilds the conversation's generated content from its
// messages, preserving append order.
func (s *ChatService) refreshGenerated(conv *models.Conversation) {
	content := extract.Extract(conv.Messages)
	if content.Empty() && conv.Generated == nil {
		return
	}
	gen := conv.Generated
	if gen == nil {
		gen = &models.GeneratedContent{}
		conv.Generated = gen
	}
	gen.SVG = content.SVG
	gen.Code = content.Code
}

// recordNewArtifacts refreshes generated content and, when a new artifact
// appeared this turn, appends a hidden system message documenting it so
// later turns inherit it as durable context.
func (s *ChatService) recordNewArtifacts(conv *models.Conversation) {
	prevSVG, prevCode := 0, 0
	if conv.Generated != nil {
		prevSVG = len(conv.Generated.SVG)
		prevCode = len(conv.Generated.Code)
	}

	s.refreshGenerated(conv)
	if conv.Generated == nil {
		return
	}

	if len(conv.Generated.SVG) > prevSVG {
		conv.AppendMessage(contextNote(models.ReferenceSVGContext,
			"An SVG artifact was generated in this conversation:\n\n"+conv.Generated.LatestSVG()))
	}
	if len(conv.Generated.Code) > prevCode {
		conv.AppendMessage(contextNote(models.ReferenceCodeContext,
			"A code artifact was generated in this conversation:\n\n"+conv.Generated.LatestCode()))
	}
}

// contextNote builds a hidden system message: sent to the model, never shown.
func contextNote(reference, content string) models.Message {
	msg := models.NewMessage(models.RoleSystem, content)
	msg.Metadata = &models.MessageMetadata{
		ContentType: models.ContentTypeSystemInstruction,
		Reference:   reference,
	}
	return msg
}

// maybeSummarize generates or refreshes the running summary when due. A
// conversation carries at most one summary; regeneration replaces it.
func (s *ChatService) maybeSummarize(ctx context.Context, conv *models.Conversation) {
	if s.summarizer == nil || !s.summarizer.Due(conv) {
		return
	}
	if summary := s.summarizer.Summarize(ctx, conv.Messages); summary != "" {
		conv.Summary = summary
		conv.SummarizedAt = len(conv.Messages)
		conv.Touch()
	}
}

// persistModelChoice records the model used so later sessions fall back to
// it. Best effort.
func (s *ChatService) persistModelChoice(model string) {
	settings, err := config.LoadSettings(s.settingsFile)
	if err == nil && settings.LastModel == model {
		return
	}
	settings.LastModel = model
	if err := config.SaveSettings(s.settingsFile, settings); err != nil {
		s.logger.Warn("failed to persist model choice", "error", err)
	}
}

func estimateWindow(window []llm.ChatMessage) int {
	total := 0
	for _, msg := range window {
		total += prompt.EstimateTokens(msg.Content)
	}
	return total
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/chatmem-go/internal/extract"
	"github.com/raphaelgruber/chatmem-go/internal/models"
)

// ForkService duplicates conversations into independent copies. The source
// conversation is never modified.
type ForkService struct {
	conversations *ConversationService
	logger        *slog.Logger
}

func NewForkService(conversations *ConversationService, logger *slog.Logger) *ForkService {
	return &ForkService{conversations: conversations, logger: logger}
}

// Fork creates a new conversation from the source's history. The copy gets
// a fresh identity and evolves independently: edits to either side never
// affect the other.
func (s *ForkService) Fork(ctx context.Context, sourceID string, opts models.ForkOptions) (*models.Conversation, error) {
	source, err := s.conversations.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load fork source: %w", err)
	}

	clone := source.Clone()
	clone.Messages = selectMessages(clone.Messages, opts)
	partial := len(clone.Messages) != len(source.Messages)

	now := time.Now().UTC()
	fork := &models.Conversation{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Title:        forkTitle(source.Title),
		Messages:     clone.Messages,
		CreatedAt:    now,
		LastModified: now,
	}

	if partial {
		// A sliced history invalidates both the running summary and the
		// artifact inventory; rebuild the latter from what survived.
		content := extract.Extract(fork.Messages)
		if !content.Empty() {
			fork.Generated = &models.GeneratedContent{SVG: content.SVG, Code: content.Code}
		}
	} else {
		fork.Summary = clone.Summary
		fork.SummarizedAt = clone.SummarizedAt
		fork.Generated = clone.Generated
	}

	if err := s.conversations.Update(ctx, fork); err != nil {
		return nil, fmt.Errorf("persist fork: %w", err)
	}

	s.logger.Info("forked conversation",
		"source_id", sourceID, "fork_id", fork.ID, "messages", len(fork.Messages))
	return fork, nil
}

// selectMessages applies the fork options to an already-cloned message list.
// An unknown anchor message id falls back to the full list.
func selectMessages(messages []models.Message, opts models.ForkOptions) []models.Message {
	if opts.VisibleMessagesOnly {
		visible := messages[:0:0]
		for _, msg := range messages {
			if msg.IsSystemInstruction() {
				continue
			}
			visible = append(visible, msg)
		}
		messages = visible
	}

	if opts.MessageID == "" {
		return messages
	}
	anchor := -1
	for i, msg := range messages {
		if msg.ID == opts.MessageID {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return messages
	}
	if opts.StartFromMessage {
		return messages[anchor:]
	}
	return messages[:anchor+1]
}

func forkTitle(source string) string {
	if source == "" {
		source = "Untitled"
	}
	return "Fork of " + source
}

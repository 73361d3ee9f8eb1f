// Package service provides business logic for conversation turns, summaries,
// and forks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

// ConversationService handles conversation record operations.
type ConversationService struct {
	store        store.Store
	logger       *slog.Logger
	metrics      *metrics.Collector
	fetchRetries int
	fetchBackoff time.Duration
}

// NewConversationService creates a new conversation service. retries and
// backoff bound the fetch-after-create retry loop for eventually-visible
// stores. collector may be nil.
func NewConversationService(s store.Store, logger *slog.Logger, collector *metrics.Collector, retries int, backoff time.Duration) *ConversationService {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return &ConversationService{
		store:        s,
		logger:       logger,
		metrics:      collector,
		fetchRetries: retries,
		fetchBackoff: backoff,
	}
}

// put persists the conversation and records the store timing.
func (s *ConversationService) put(ctx context.Context, conv *models.Conversation) error {
	start := time.Now()
	err := s.store.Put(ctx, conv)
	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpStorePut, time.Since(start))
	}
	return err
}

// Create creates and persists a new conversation. seedText, when non-empty,
// becomes the sole seed user message and drives title derivation.
func (s *ConversationService) Create(ctx context.Context, seedText string) (*models.Conversation, error) {
	now := time.Now()
	conv := &models.Conversation{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Title:        models.DeriveTitle(seedText),
		CreatedAt:    now,
		LastModified: now,
	}
	if seedText != "" {
		conv.Messages = []models.Message{models.NewMessage(models.RoleUser, seedText)}
	}

	if err := s.put(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.logger.Info("conversation created", "conversation_id", conv.ID, "title", conv.Title)
	return conv, nil
}

// Get fetches a conversation, retrying with exponential backoff while the
// record is not yet visible. Exhausted retries surface as ErrNotFound.
func (s *ConversationService) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var lastErr error
	backoff := s.fetchBackoff

	for attempt := 0; attempt <= s.fetchRetries; attempt++ {
		start := time.Now()
		conv, err := s.store.Get(ctx, id)
		if s.metrics != nil {
			s.metrics.RecordTiming(metrics.OpStoreGet, time.Since(start))
		}
		if err == nil {
			return conv, nil
		}
		lastErr = err

		if !errors.Is(err, store.ErrNotYetVisible) && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if attempt == s.fetchRetries {
			break
		}

		s.logger.Debug("conversation not visible yet, retrying",
			"conversation_id", id, "attempt", attempt+1, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if errors.Is(lastErr, store.ErrNotYetVisible) {
		return nil, fmt.Errorf("%w: %v", store.ErrNotFound, lastErr)
	}
	return nil, lastErr
}

// List returns all conversations sorted by last modification, newest first.
// The store does not guarantee ordering, so sorting happens here.
func (s *ConversationService) List(ctx context.Context) ([]models.Conversation, error) {
	convs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastModified.After(convs[j].LastModified)
	})
	return convs, nil
}

// Update persists the conversation.
func (s *ConversationService) Update(ctx context.Context, conv *models.Conversation) error {
	if err := s.put(ctx, conv); err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	return nil
}

// Delete removes a conversation permanently.
func (s *ConversationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	s.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

// Memory is an in-process Store with read-after-write consistency. It backs
// the orchestrator tests and serves as the default store when no database is
// configured.
//
// VisibilityLag simulates an eventually-visible backend: records written less
// than the lag ago return ErrNotYetVisible from Get. Zero means immediate
// visibility.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	writtenAt     map[string]time.Time

	VisibilityLag time.Duration
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*models.Conversation),
		writtenAt:     make(map[string]time.Time),
	}
}

// Get returns a deep copy of the stored conversation.
func (m *Memory) Get(ctx context.Context, id string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	if m.VisibilityLag > 0 && time.Since(m.writtenAt[id]) < m.VisibilityLag {
		return nil, fmt.Errorf("get %q: %w", id, ErrNotYetVisible)
	}
	return conv.Clone(), nil
}

// List returns copies of all stored conversations in unspecified order.
func (m *Memory) List(ctx context.Context) ([]models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		out = append(out, *conv.Clone())
	}
	return out, nil
}

// Put stores a deep copy of the conversation, creating or overwriting.
func (m *Memory) Put(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		return fmt.Errorf("put: conversation id is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// First write starts the visibility clock; overwrites of an already
	// visible record stay visible.
	if _, exists := m.conversations[conv.ID]; !exists {
		m.writtenAt[conv.ID] = time.Now()
	}
	m.conversations[conv.ID] = conv.Clone()
	return nil
}

// Delete removes the conversation. Deleting an absent id is an error.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(m.conversations, id)
	delete(m.writtenAt, id)
	return nil
}

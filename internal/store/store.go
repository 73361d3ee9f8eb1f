// Package store provides durable conversation record persistence.
package store

import (
	"context"
	"errors"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrNotYetVisible indicates a written record has not become readable yet.
	// Backends with read-after-write consistency never return it; callers that
	// must tolerate eventually-visible backends retry on it with backoff.
	ErrNotYetVisible = errors.New("conversation not yet visible")

	// ErrConflict indicates a backend-level write conflict. Callers should
	// retry or surface the failure.
	ErrConflict = errors.New("store write conflict")
)

// Store is the durable conversation store. Records are addressed by
// conversation id; Put has upsert semantics. List ordering is not guaranteed
// by the store, callers re-sort by LastModified.
type Store interface {
	Get(ctx context.Context, id string) (*models.Conversation, error)
	List(ctx context.Context) ([]models.Conversation, error)
	Put(ctx context.Context, conv *models.Conversation) error
	Delete(ctx context.Context, id string) error
}

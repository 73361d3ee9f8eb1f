package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	conv := &models.Conversation{
		ID:    "conv-1",
		Title: "hello",
		Messages: []models.Message{
			models.NewMessage(models.RoleUser, "hi"),
		},
		CreatedAt:    time.Now(),
		LastModified: time.Now(),
	}

	if err := m.Put(ctx, conv); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := m.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "hello" || len(got.Messages) != 1 {
		t.Errorf("unexpected record: %+v", got)
	}

	// Returned copies must not alias the stored record.
	got.Messages[0].Content = "mutated"
	again, err := m.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Messages[0].Content != "hi" {
		t.Error("Get returned an aliased record")
	}
}

func TestMemoryGetNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryVisibilityLag(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.VisibilityLag = 50 * time.Millisecond

	conv := &models.Conversation{ID: "conv-1"}
	if err := m.Put(ctx, conv); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, err := m.Get(ctx, "conv-1")
	if !errors.Is(err, ErrNotYetVisible) {
		t.Fatalf("Get before lag = %v, want ErrNotYetVisible", err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := m.Get(ctx, "conv-1"); err != nil {
		t.Fatalf("Get after lag: %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, &models.Conversation{ID: "conv-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "conv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := m.Delete(ctx, "conv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, id := range []string{"a", "b", "c"} {
		if err := m.Put(ctx, &models.Conversation{ID: id}); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}

	convs, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(convs) != 3 {
		t.Errorf("List returned %d records, want 3", len(convs))
	}
}

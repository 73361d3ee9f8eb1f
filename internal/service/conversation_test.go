package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

func TestConversationCreate(t *testing.T) {
	svc := NewConversationService(store.NewMemory(), testLogger(), nil, 3, time.Millisecond)

	conv, err := svc.Create(context.Background(), "How do I parse YAML in Go?")
	require.NoError(t, err)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "How do I parse YAML in Go?", conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, models.RoleUser, conv.Messages[0].Role)
	assert.False(t, conv.CreatedAt.IsZero())
}

func TestConversationGetRetriesUntilVisible(t *testing.T) {
	mem := store.NewMemory()
	mem.VisibilityLag = 20 * time.Millisecond
	svc := NewConversationService(mem, testLogger(), nil, 5, 10*time.Millisecond)

	conv, err := svc.Create(context.Background(), "hello")
	require.NoError(t, err)

	// The backing store has not made the write visible yet; the retry loop
	// rides out the lag instead of reporting a missing conversation.
	got, err := svc.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestConversationGetExhaustsRetries(t *testing.T) {
	svc := NewConversationService(store.NewMemory(), testLogger(), nil, 2, time.Millisecond)

	_, err := svc.Get(context.Background(), "never-existed")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationGetHonorsContext(t *testing.T) {
	mem := store.NewMemory()
	mem.VisibilityLag = time.Minute
	svc := NewConversationService(mem, testLogger(), nil, 10, 50*time.Millisecond)

	conv, err := svc.Create(context.Background(), "hello")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Get(ctx, conv.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConversationListNewestFirst(t *testing.T) {
	svc := NewConversationService(store.NewMemory(), testLogger(), nil, 3, time.Millisecond)
	ctx := context.Background()

	first, err := svc.Create(ctx, "first")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "second")
	require.NoError(t, err)

	// Touch the older one so it moves to the front.
	first.AppendMessage(models.NewMessage(models.RoleUser, "update"))
	first.LastModified = second.LastModified.Add(time.Second)
	require.NoError(t, svc.Update(ctx, first))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestConversationDelete(t *testing.T) {
	svc := NewConversationService(store.NewMemory(), testLogger(), nil, 2, time.Millisecond)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "to delete")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, conv.ID))

	_, err = svc.Get(ctx, conv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, conv.ID), store.ErrNotFound)
}

func TestConversationRecordsStoreMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	svc := NewConversationService(store.NewMemory(), testLogger(), collector, 3, time.Millisecond)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "metrics check")
	require.NoError(t, err)
	_, err = svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Update(ctx, conv))

	snap := collector.Snapshot()
	require.NotNil(t, snap.StorePut, "create and update must record put timings")
	assert.Equal(t, int64(2), snap.StorePut.Count)
	require.NotNil(t, snap.StoreGet, "get must record a timing per store read")
	assert.GreaterOrEqual(t, snap.StoreGet.Count, int64(1))
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

func newForkFixture(t *testing.T) (*ForkService, *ConversationService, *models.Conversation) {
	t.Helper()
	conversations := NewConversationService(store.NewMemory(), testLogger(), nil, 3, time.Millisecond)
	forks := NewForkService(conversations, testLogger())

	conv, err := conversations.Create(context.Background(), "let's design a logo")
	require.NoError(t, err)
	for _, text := range []string{"sure, here is a draft", "make it rounder", "rounder version"} {
		conv.AppendMessage(models.NewMessage(models.RoleAssistant, text))
	}
	hidden := models.NewMessage(models.RoleSystem, "artifact context")
	hidden.Metadata = &models.MessageMetadata{
		ContentType: models.ContentTypeSystemInstruction,
		Reference:   models.ReferenceSVGContext,
	}
	conv.AppendMessage(hidden)
	conv.Summary = "logo design discussion"
	conv.SummarizedAt = 4
	require.NoError(t, conversations.Update(context.Background(), conv))
	return forks, conversations, conv
}

func TestForkFullCopy(t *testing.T) {
	forks, conversations, source := newForkFixture(t)

	fork, err := forks.Fork(context.Background(), source.ID, models.ForkOptions{IncludeAllBranches: true})
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, fork.ID)
	assert.Equal(t, "Fork of let's design a logo", fork.Title)
	assert.Len(t, fork.Messages, len(source.Messages))
	assert.Equal(t, source.Summary, fork.Summary)
	assert.Equal(t, source.SummarizedAt, fork.SummarizedAt)

	// Both sides are durable and independent records.
	stored, err := conversations.Get(context.Background(), fork.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, len(source.Messages))
}

func TestForkUpToMessage(t *testing.T) {
	forks, _, source := newForkFixture(t)
	anchor := source.Messages[1].ID

	fork, err := forks.Fork(context.Background(), source.ID, models.ForkOptions{MessageID: anchor})
	require.NoError(t, err)

	require.Len(t, fork.Messages, 2)
	assert.Equal(t, anchor, fork.Messages[1].ID)
	// A partial copy does not inherit a summary that covers messages it dropped.
	assert.Empty(t, fork.Summary)
	assert.Zero(t, fork.SummarizedAt)
}

func TestForkFromMessage(t *testing.T) {
	forks, _, source := newForkFixture(t)
	anchor := source.Messages[2].ID

	fork, err := forks.Fork(context.Background(), source.ID, models.ForkOptions{
		MessageID:        anchor,
		StartFromMessage: true,
	})
	require.NoError(t, err)

	require.Len(t, fork.Messages, 3)
	assert.Equal(t, anchor, fork.Messages[0].ID)
}

func TestForkUnknownAnchorCopiesAll(t *testing.T) {
	forks, _, source := newForkFixture(t)

	fork, err := forks.Fork(context.Background(), source.ID, models.ForkOptions{MessageID: "no-such-message"})
	require.NoError(t, err)
	assert.Len(t, fork.Messages, len(source.Messages))
}

func TestForkVisibleMessagesOnly(t *testing.T) {
	forks, _, source := newForkFixture(t)

	fork, err := forks.Fork(context.Background(), source.ID, models.ForkOptions{VisibleMessagesOnly: true})
	require.NoError(t, err)

	require.Len(t, fork.Messages, len(source.Messages)-1)
	for _, msg := range fork.Messages {
		assert.False(t, msg.IsSystemInstruction())
	}
}

func TestForkLeavesSourceUntouched(t *testing.T) {
	forks, conversations, source := newForkFixture(t)
	before := source.Clone()

	fork, err := forks.Fork(context.Background(), source.ID, models.ForkOptions{})
	require.NoError(t, err)

	// Mutating the fork does not leak into the source.
	fork.Messages[0].Content = "tampered"
	fork.Title = "tampered"
	require.NoError(t, conversations.Update(context.Background(), fork))

	after, err := conversations.Get(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Title, after.Title)
	require.Len(t, after.Messages, len(before.Messages))
	assert.Equal(t, before.Messages[0].Content, after.Messages[0].Content)
}

func TestForkMissingSource(t *testing.T) {
	forks, _, _ := newForkFixture(t)

	_, err := forks.Fork(context.Background(), "missing", models.ForkOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestForkUntitledSource(t *testing.T) {
	assert.Equal(t, "Fork of Untitled", forkTitle(""))
	assert.Equal(t, "Fork of Sketches", forkTitle("Sketches"))
}

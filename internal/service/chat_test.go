package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/chatmem-go/internal/config"
	"github.com/raphaelgruber/chatmem-go/internal/llm"
	"github.com/raphaelgruber/chatmem-go/internal/metrics"
	"github.com/raphaelgruber/chatmem-go/internal/models"
	"github.com/raphaelgruber/chatmem-go/internal/store"
)

type fakeGateway struct {
	mu         sync.Mutex
	replies    []string
	err        error
	calls      int
	lastModel  string
	lastWindow []llm.ChatMessage
}

func (g *fakeGateway) Invoke(_ context.Context, model string, messages []llm.ChatMessage) (llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastModel = model
	g.lastWindow = messages
	if g.err != nil {
		return llm.Response{}, g.err
	}
	reply := "ok"
	if len(g.replies) > 0 {
		reply = g.replies[0]
		if len(g.replies) > 1 {
			g.replies = g.replies[1:]
		}
	}
	return llm.TextResponse(reply), nil
}

func (g *fakeGateway) Name() string { return "fake" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChat(t *testing.T, gateway *fakeGateway) (*ChatService, *ConversationService) {
	t.Helper()
	conversations := NewConversationService(store.NewMemory(), testLogger(), nil, 3, time.Millisecond)
	cfg := config.Config{
		ContextBudget: 2048,
		DefaultModel:  "test-model",
		SettingsFile:  filepath.Join(t.TempDir(), "settings.yaml"),
	}
	chat := NewChatService(conversations, gateway, nil, cfg, testLogger(), metrics.NewCollector())
	return chat, conversations
}

func TestSendMessageCreatesConversation(t *testing.T) {
	gateway := &fakeGateway{replies: []string{"hello there"}}
	chat, conversations := newTestChat(t, gateway)

	reply, conv, err := chat.SendMessage(context.Background(), "", "Hello, can you help me?", "")
	require.NoError(t, err)

	assert.Equal(t, "Hello, can you help me?", conv.Title)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "hello there", reply.Content)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.RoleUser, conv.Messages[0].Role)

	stored, err := conversations.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 2)
}

func TestSendMessageAppendsToExisting(t *testing.T) {
	gateway := &fakeGateway{replies: []string{"first", "second"}}
	chat, conversations := newTestChat(t, gateway)

	_, conv, err := chat.SendMessage(context.Background(), "", "start", "")
	require.NoError(t, err)

	reply, conv, err := chat.SendMessage(context.Background(), conv.ID, "and then?", "")
	require.NoError(t, err)
	assert.Equal(t, "second", reply.Content)
	require.Len(t, conv.Messages, 4)

	stored, err := conversations.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 4)
}

func TestSendMessageGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("connection refused")}
	chat, conversations := newTestChat(t, gateway)

	reply, conv, err := chat.SendMessage(context.Background(), "", "hi", "")
	require.NoError(t, err, "gateway failure must not surface as turn error")

	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, models.StatusError, reply.Status)
	assert.Equal(t, errorReplyText, reply.Content)

	// Both the user message and the error reply are durable.
	stored, err := conversations.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, models.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, models.StatusError, stored.Messages[1].Status)

	// The conversation stays usable afterwards.
	gateway.err = nil
	gateway.replies = []string{"recovered"}
	reply, _, err = chat.SendMessage(context.Background(), conv.ID, "try again", "")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Content)
}

func TestSendMessageRateLimited(t *testing.T) {
	gateway := &fakeGateway{}
	chat, _ := newTestChat(t, gateway)
	chat.sendInterval = time.Minute

	_, conv, err := chat.SendMessage(context.Background(), "", "one", "")
	require.NoError(t, err)

	_, _, err = chat.SendMessage(context.Background(), conv.ID, "two", "")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, gateway.calls)
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	gateway := &fakeGateway{}
	chat, conversations := newTestChat(t, gateway)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, _, err := chat.SendMessage(context.Background(), "", text, "")
		assert.ErrorIs(t, err, ErrEmptyMessage, "text %q", text)
	}
	assert.Equal(t, 0, gateway.calls)

	convs, err := conversations.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, convs, "rejected sends must not create conversations")
}

func TestSendMessageSeedGuard(t *testing.T) {
	gateway := &fakeGateway{}
	chat, _ := newTestChat(t, gateway)

	// A racing duplicate create for the same initial message reuses the
	// conversation the first one made.
	_, first, err := chat.SendMessage(context.Background(), "", "hi", "")
	require.NoError(t, err)
	_, second, err := chat.SendMessage(context.Background(), "", "hi", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Once the guard window has passed, the same opening text starts a
	// fresh conversation.
	chat.mu.Lock()
	chat.lastSeedAt = time.Now().Add(-time.Minute)
	chat.mu.Unlock()

	_, third, err := chat.SendMessage(context.Background(), "", "hi", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	require.Len(t, third.Messages, 2)
}

func TestSendMessageSVGArtifact(t *testing.T) {
	svg := `<svg width="100"><rect fill="blue"/><text>OK</text></svg>`
	gateway := &fakeGateway{replies: []string{"Here you go:\n" + svg, "done"}}
	chat, _ := newTestChat(t, gateway)

	_, conv, err := chat.SendMessage(context.Background(), "", "draw a login mockup", "")
	require.NoError(t, err)

	require.NotNil(t, conv.Generated)
	require.Len(t, conv.Generated.SVG, 1)
	assert.Equal(t, svg, conv.Generated.LatestSVG())

	// A hidden system message carries the artifact forward.
	var hidden *models.Message
	for i := range conv.Messages {
		if conv.Messages[i].IsSystemInstruction() {
			hidden = &conv.Messages[i]
		}
	}
	require.NotNil(t, hidden)
	assert.Equal(t, models.ReferenceSVGContext, hidden.Metadata.Reference)
	assert.Contains(t, hidden.Content, svg)

	// The next turn sends the artifact to the model but the edit-keyword
	// rewrite only touches the outgoing copy, not the stored message.
	_, conv, err = chat.SendMessage(context.Background(), conv.ID, "change the button color", "")
	require.NoError(t, err)
	last := gateway.lastWindow[len(gateway.lastWindow)-1]
	assert.Contains(t, last.Content, "<context>")
	assert.Contains(t, last.Content, "change the button color")
	assert.Equal(t, "change the button color", conv.Messages[len(conv.Messages)-2].Content)
}

func TestSendMessageDeduplicatesReply(t *testing.T) {
	gateway := &fakeGateway{replies: []string{"same answer", "same answer"}}
	chat, _ := newTestChat(t, gateway)

	_, conv, err := chat.SendMessage(context.Background(), "", "q", "")
	require.NoError(t, err)
	_, conv, err = chat.SendMessage(context.Background(), conv.ID, "q again", "")
	require.NoError(t, err)

	count := 0
	for _, msg := range conv.Messages {
		if msg.Role == models.RoleAssistant && msg.Content == "same answer" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSendMessageStripsHiddenRegions(t *testing.T) {
	gateway := &fakeGateway{replies: []string{"<think>planning...</think>the answer"}}
	chat, _ := newTestChat(t, gateway)

	reply, _, err := chat.SendMessage(context.Background(), "", "q", "")
	require.NoError(t, err)
	assert.Equal(t, "the answer", reply.Content)
}

func TestSendMessageSummarizesWhenDue(t *testing.T) {
	gateway := &fakeGateway{replies: []string{"a concise summary"}}
	chat, conversations := newTestChat(t, gateway)
	chat.summarizer = NewSummarizer(gateway, "test-model", testLogger(), metrics.NewCollector())

	conv, err := conversations.Create(context.Background(), "first")
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		conv.AppendMessage(models.NewMessage(models.RoleUser, "filler"))
	}
	require.NoError(t, conversations.Update(context.Background(), conv))

	gateway.replies = []string{"reply", "a concise summary"}
	_, conv, err = chat.SendMessage(context.Background(), conv.ID, "latest", "")
	require.NoError(t, err)

	assert.Equal(t, "a concise summary", conv.Summary)
	assert.Equal(t, len(conv.Messages), conv.SummarizedAt)

	stored, err := conversations.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "a concise summary", stored.Summary)
}

func TestSendMessageModelSelection(t *testing.T) {
	t.Run("pending prompt wins", func(t *testing.T) {
		gateway := &fakeGateway{}
		chat, _ := newTestChat(t, gateway)
		chat.QueuePrompt(PendingPrompt{Text: "hi", Model: "queued-model"})

		_, _, err := chat.SendMessage(context.Background(), "", "hi", "explicit-model")
		require.NoError(t, err)
		assert.Equal(t, "queued-model", gateway.lastModel)

		// Consumed exactly once.
		_, _, err = chat.SendMessage(context.Background(), "", "again", "explicit-model")
		require.NoError(t, err)
		assert.Equal(t, "explicit-model", gateway.lastModel)
	})

	t.Run("persisted choice over default", func(t *testing.T) {
		gateway := &fakeGateway{}
		chat, _ := newTestChat(t, gateway)
		require.NoError(t, config.SaveSettings(chat.settingsFile, config.Settings{LastModel: "remembered"}))

		_, _, err := chat.SendMessage(context.Background(), "", "hi", "")
		require.NoError(t, err)
		assert.Equal(t, "remembered", gateway.lastModel)
	})

	t.Run("no model anywhere", func(t *testing.T) {
		gateway := &fakeGateway{}
		chat, _ := newTestChat(t, gateway)
		chat.defaultModel = ""

		_, _, err := chat.SendMessage(context.Background(), "", "hi", "")
		assert.ErrorIs(t, err, ErrNoModel)
	})
}

func TestSendMessagePersistsModelChoice(t *testing.T) {
	gateway := &fakeGateway{}
	chat, _ := newTestChat(t, gateway)

	_, _, err := chat.SendMessage(context.Background(), "", "hi", "picked-model")
	require.NoError(t, err)

	settings, err := config.LoadSettings(chat.settingsFile)
	require.NoError(t, err)
	assert.Equal(t, "picked-model", settings.LastModel)
}

package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	// WebSocket upgrade requires HTTP/1.1 semantics which fail under HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// Surreal is a SurrealDB-backed Store with auto-reconnect. One record per
// conversation id in the conversation table.
type Surreal struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	cfg    Config
	logger logger.Logger
}

// schemaSQL defines the conversation table. Messages and generated content are
// flexible objects so the record layout can evolve without migrations.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS messages ON conversation TYPE array<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS summary ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS summarized_at ON conversation TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS generated_content ON conversation TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS last_modified ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_last_modified ON conversation FIELDS last_modified;
`

// NewSurreal creates a SurrealDB store with an auto-reconnecting WebSocket.
func NewSurreal(ctx context.Context, cfg Config, log *slog.Logger) (*Surreal, error) {
	// Create logger adapter for SurrealDB SDK
	var sdkLogger logger.Logger
	if log != nil {
		sdkLogger = logger.New(log.Handler())
	} else {
		sdkLogger = logger.New(slog.Default().Handler())
	}

	// surrealcbor handles SurrealDB custom CBOR tags (datetimes, record ids)
	codec := surrealcbor.New()

	// gorillaws requires ws:// or wss:// URL without /rpc suffix (it adds /rpc internally)
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			ws := gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			})
			return ws, nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	sdkLogger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	sdkLogger.Info("authenticating", "user", cfg.Username, "auth_level", cfg.AuthLevel)
	if cfg.AuthLevel == "database" {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
	} else {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	sdkLogger.Info("SurrealDB connection established")
	return &Surreal{conn: conn, db: db, cfg: cfg, logger: sdkLogger}, nil
}

// InitSchema initializes the conversation table.
func (s *Surreal) InitSchema(ctx context.Context) error {
	s.logger.Info("initializing conversation schema")
	if _, err := surrealdb.Query[any](ctx, s.db, schemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the SurrealDB connection.
func (s *Surreal) Close(ctx context.Context) error {
	s.logger.Info("closing SurrealDB connection")
	return s.conn.Close(ctx)
}

// conversationRecord is the persisted layout of a conversation. The id lives
// in the record key rather than the payload.
type conversationRecord struct {
	ID           surrealmodels.RecordID   `json:"id"`
	Title        string                   `json:"title,omitempty"`
	Messages     []models.Message         `json:"messages"`
	Summary      string                   `json:"summary,omitempty"`
	SummarizedAt int                      `json:"summarized_at,omitempty"`
	Generated    *models.GeneratedContent `json:"generated_content,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	LastModified time.Time                `json:"last_modified"`
}

func (r *conversationRecord) toModel() (*models.Conversation, error) {
	id, ok := r.ID.ID.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected record id type: %T (expected string)", r.ID.ID)
	}
	return &models.Conversation{
		ID:           id,
		Title:        r.Title,
		Messages:     r.Messages,
		Summary:      r.Summary,
		SummarizedAt: r.SummarizedAt,
		Generated:    r.Generated,
		CreatedAt:    r.CreatedAt,
		LastModified: r.LastModified,
	}, nil
}

// Get retrieves a conversation by id.
func (s *Surreal) Get(ctx context.Context, id string) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]conversationRecord](ctx, s.db, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return (*results)[0].Result[0].toModel()
}

// List returns all conversations. Ordering is left to the caller.
func (s *Surreal) List(ctx context.Context) ([]models.Conversation, error) {
	results, err := surrealdb.Query[[]conversationRecord](ctx, s.db, `
		SELECT * FROM conversation
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Conversation{}, nil
	}

	records := (*results)[0].Result
	out := make([]models.Conversation, 0, len(records))
	for i := range records {
		conv, err := records[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		out = append(out, *conv)
	}
	return out, nil
}

// Put upserts the conversation record.
func (s *Surreal) Put(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		return fmt.Errorf("put: conversation id is empty")
	}

	_, err := surrealdb.Query[any](ctx, s.db, `
		UPSERT type::record("conversation", $id) CONTENT {
			title: $title,
			messages: $messages,
			summary: $summary,
			summarized_at: $summarized_at,
			generated_content: $generated,
			created_at: <datetime>$created_at,
			last_modified: <datetime>$last_modified
		}
	`, map[string]any{
		"id":            conv.ID,
		"title":         conv.Title,
		"messages":      conv.Messages,
		"summary":       conv.Summary,
		"summarized_at": conv.SummarizedAt,
		"generated":     conv.Generated,
		"created_at":    conv.CreatedAt,
		"last_modified": conv.LastModified,
	})
	if err != nil {
		return fmt.Errorf("put conversation: %w", wrapQueryError(err))
	}
	return nil
}

// Delete removes the conversation record. Deleting an absent id is an error.
func (s *Surreal) Delete(ctx context.Context, id string) error {
	// DELETE on a missing record is a no-op in SurrealDB, check first.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	_, err := surrealdb.Query[any](ctx, s.db, `
		DELETE type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete conversation: %w", wrapQueryError(err))
	}
	return nil
}

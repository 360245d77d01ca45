// Package app contains the ChatKit application API. It orchestrates the
// client core (URL building, dispatch, classification) and token issuance
// into user, room, message, role and cursor operations.
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters/clients)
//   - URL layout and status classification (that's chatkit)
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
)

// DefaultDeleteWorkers bounds concurrent deletes in DeleteAllUsers.
const DefaultDeleteWorkers = 8

// ChatKit exposes the platform operations. It depends on the client core and
// a token issuer, not on a concrete transport.
//
// Example usage:
//
//	transport, _ := clients.New(&clients.Config{ServiceName: "chatkit"})
//	client, _ := chatkit.New(transport, cfg.Instance.Locator)
//	tokens, _ := app.NewTokenIssuer(client.Locator().InstanceID, cfg.Instance.APIKey)
//	ck := app.NewChatKit(app.ChatKitConfig{Client: client, Tokens: tokens})
//
//	user, err := ck.GetUser(ctx, "alice")
type ChatKit struct {
	client        *chatkit.Client
	tokens        *TokenIssuer
	deleteWorkers int
	logger        *slog.Logger
}

// ChatKitConfig contains the dependencies of the ChatKit service.
type ChatKitConfig struct {
	Client *chatkit.Client
	Tokens *TokenIssuer

	// DeleteWorkers bounds concurrent deletes; defaults to DefaultDeleteWorkers.
	DeleteWorkers int

	Logger *slog.Logger
}

// NewChatKit creates the service. It panics when Client or Tokens is nil,
// since every operation needs both.
func NewChatKit(cfg ChatKitConfig) *ChatKit {
	if cfg.Client == nil {
		panic("app: ChatKitConfig.Client is required")
	}

	if cfg.Tokens == nil {
		panic("app: ChatKitConfig.Tokens is required")
	}

	workers := cfg.DeleteWorkers
	if workers <= 0 {
		workers = DefaultDeleteWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ChatKit{
		client:        cfg.Client,
		tokens:        cfg.Tokens,
		deleteWorkers: workers,
		logger:        logger.With(slog.String("component", "app.ChatKit")),
	}
}

// Client returns the underlying client core.
func (s *ChatKit) Client() *chatkit.Client {
	return s.client
}

// Tokens returns the token issuer.
func (s *ChatKit) Tokens() *TokenIssuer {
	return s.tokens
}

// call describes one platform request made on behalf of an operation.
type call struct {
	op       string
	method   string
	service  string
	endpoint string
	query    chatkit.Query
	body     any

	// userID and su select the token the request is signed with.
	userID string
	su     bool
}

// run dispatches c and decodes the classified response into T.
func run[T any](ctx context.Context, s *ChatKit, c call) (T, error) {
	var zero T

	tok, err := s.tokens.Generate(c.userID, c.su)
	if err != nil {
		return zero, fmt.Errorf("%s: issuing token: %w", c.op, err)
	}

	opts := []chatkit.RequestOption{chatkit.WithToken(tok.AccessToken)}
	if c.body != nil {
		opts = append(opts, chatkit.WithBody(c.body))
	}

	resp, err := s.client.Do(ctx, c.method, c.service, c.endpoint, c.query, opts...)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", c.op, err)
	}

	out, err := chatkit.Decode[T](resp)
	if err != nil {
		s.logger.DebugContext(ctx, "operation failed",
			slog.String("op", c.op),
			slog.Int("status", resp.StatusCode),
			slog.Any("error", err),
		)

		return zero, fmt.Errorf("%s: %w", c.op, err)
	}

	return out, nil
}

// exec is run for operations whose success body is ignored. The body must
// still be valid JSON when present.
func exec(ctx context.Context, s *ChatKit, c call) error {
	_, err := run[json.RawMessage](ctx, s, c)
	return err
}

// seg escapes a caller-supplied identifier for use as one path segment.
func seg(id string) string {
	return url.PathEscape(id)
}

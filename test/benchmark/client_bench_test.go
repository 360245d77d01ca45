package benchmark

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jsamuelsen/go-chatkit/internal/app"
	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

const benchLocator = "v1:us1:instance-123"

var userBody = []byte(`{"id":"alice","name":"Alice","avatar_url":"https://example.com/a.png",` +
	`"custom_data":{"team":"blue","level":3},"created_at":"2026-01-01T00:00:00Z"}`)

// okTransport answers every request with a fixed user body.
var okTransport = ports.TransportFunc(func(context.Context, string, string, any, string) (*ports.Response, error) {
	return &ports.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: userBody}, nil
})

func newBenchClient(b *testing.B) *chatkit.Client {
	b.Helper()

	client, err := chatkit.New(okTransport, benchLocator,
		chatkit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		b.Fatal(err)
	}

	return client
}

// BenchmarkBuildEndpoint measures URL construction, the hot path of every
// request.
func BenchmarkBuildEndpoint(b *testing.B) {
	client := newBenchClient(b)

	b.Run("no query", func(b *testing.B) {
		b.ReportAllocs()

		for b.Loop() {
			_, _ = client.BuildEndpoint(chatkit.ServiceAPI, "/users/alice", nil)
		}
	})

	b.Run("with query", func(b *testing.B) {
		q := chatkit.NewQuery("from_id", "1234").AddBool("include_private", true).AddInt("limit", 100)

		b.ReportAllocs()

		for b.Loop() {
			_, _ = client.BuildEndpoint(chatkit.ServiceCursors, "/cursors/0/rooms/1234", q)
		}
	})
}

// BenchmarkQueryEncode measures query encoding including escaping.
func BenchmarkQueryEncode(b *testing.B) {
	q := chatkit.NewQuery("id", "alice", "id", "bob smith", "id", "carol&co", "limit", "50")

	b.ReportAllocs()

	for b.Loop() {
		_ = q.Encode()
	}
}

// BenchmarkClassify measures response classification for success and
// failure statuses.
func BenchmarkClassify(b *testing.B) {
	b.Run("success object", func(b *testing.B) {
		b.ReportAllocs()

		for b.Loop() {
			_, _ = chatkit.Classify(http.StatusOK, userBody, "200 OK")
		}
	})

	b.Run("not found", func(b *testing.B) {
		b.ReportAllocs()

		for b.Loop() {
			_, _ = chatkit.Classify(http.StatusNotFound, nil, "404 Not Found")
		}
	})

	b.Run("bad status", func(b *testing.B) {
		body := []byte(`{"error":"services/chatkit/internal_error"}`)

		b.ReportAllocs()

		for b.Loop() {
			_, _ = chatkit.Classify(http.StatusBadGateway, body, "502 Bad Gateway")
		}
	})
}

// BenchmarkOperation measures one application call end to end over an
// in-memory transport: token signing, dispatch and decoding.
func BenchmarkOperation(b *testing.B) {
	client := newBenchClient(b)

	tokens, err := app.NewTokenIssuer(client.Locator().InstanceID, "key-id:key-secret")
	if err != nil {
		b.Fatal(err)
	}

	ck := app.NewChatKit(app.ChatKitConfig{
		Client: client,
		Tokens: tokens,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx := context.Background()

	b.ReportAllocs()

	for b.Loop() {
		if _, err := ck.GetUser(ctx, "alice"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTokenGenerate measures JWT signing.
func BenchmarkTokenGenerate(b *testing.B) {
	tokens, err := app.NewTokenIssuer("instance-123", "key-id:key-secret", app.WithTokenTTL(time.Hour))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()

	for b.Loop() {
		_, _ = tokens.Generate("alice", true)
	}
}

// BenchmarkProbes measures a full health pass over every service.
func BenchmarkProbes(b *testing.B) {
	client := newBenchClient(b)

	tokens, err := app.NewTokenIssuer(client.Locator().InstanceID, "key-id:key-secret")
	if err != nil {
		b.Fatal(err)
	}

	ck := app.NewChatKit(app.ChatKitConfig{Client: client, Tokens: tokens})

	registry := ports.NewHealthRegistry(time.Second)
	if err := ck.RegisterProbes(registry); err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()

	b.ReportAllocs()

	for b.Loop() {
		_ = registry.CheckAll(ctx)
	}
}

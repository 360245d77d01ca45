// Package ports defines the contracts between the ChatKit client core and its
// collaborators. Adapters implement these interfaces so the core depends on
// abstractions rather than on net/http directly.
package ports

import (
	"context"
	"net/http"
)

// Response is the raw result of a transport call.
// It is returned unchanged by the dispatcher and classified separately.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the reason phrase (e.g. "500 Internal Server Error").
	// It is used as the diagnostic detail for unexpected statuses.
	Status string

	// Header holds the response headers.
	Header http.Header

	// Body is the fully read response body. Empty for bodiless responses.
	Body []byte
}

// Transport issues a single request to the platform.
//
// body is opaque to callers of the transport: implementations decide how to
// serialize it. token is a bearer credential; an empty token means the
// request is sent unauthenticated.
//
// Implementations own connection pooling, TLS and timeouts, and must honour
// ctx cancellation. Errors are returned to the caller unchanged.
type Transport interface {
	ProcessRequest(ctx context.Context, method, url string, body any, token string) (*Response, error)
}

// TransportFunc adapts an ordinary function to the Transport interface.
type TransportFunc func(ctx context.Context, method, url string, body any, token string) (*Response, error)

// ProcessRequest calls f.
func (f TransportFunc) ProcessRequest(ctx context.Context, method, url string, body any, token string) (*Response, error) {
	return f(ctx, method, url, body, token)
}

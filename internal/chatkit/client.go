package chatkit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/go-chatkit/internal/platform/logging"
	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

// Client builds platform URLs and dispatches requests to a Transport.
// The resolved locator and the registry are fixed at construction, so a
// Client is safe for concurrent use.
type Client struct {
	transport ports.Transport
	locator   Locator
	host      string
	registry  Registry
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry replaces the default service registry.
func WithRegistry(r Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithLogger sets the logger used for trace-level dispatch lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New resolves instanceLocator and returns a client dispatching to transport.
// A malformed locator fails here rather than on first use.
func New(transport ports.Transport, instanceLocator string, opts ...Option) (*Client, error) {
	if f, ok := transport.(ports.TransportFunc); transport == nil || (ok && f == nil) {
		return nil, errors.New("transport is required")
	}

	loc, err := ParseLocator(instanceLocator)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport: transport,
		locator:   loc,
		host:      loc.Host(),
		registry:  DefaultRegistry(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With(slog.String("component", "chatkit.Client"))

	return c, nil
}

// Locator returns the resolved instance locator.
func (c *Client) Locator() Locator {
	return c.locator
}

// Host returns the API host derived from the locator.
func (c *Client) Host() string {
	return c.host
}

// Registry returns the client's service registry.
func (c *Client) Registry() Registry {
	return c.registry
}

// BuildEndpoint composes
//
//	https://{host}/services/{name}/{version}/{instance_id}{endpoint}[?{query}]
//
// endpoint is appended verbatim: callers supply the leading "/" themselves.
// No "?" is emitted for an empty query.
func (c *Client) BuildEndpoint(service, endpoint string, query Query) (string, error) {
	svc, err := c.registry.Lookup(service)
	if err != nil {
		return "", err
	}

	u := Scheme + "://" + c.host + "/services/" + svc.PathFragment() + "/" + c.locator.InstanceID + endpoint
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	return u, nil
}

// requestOptions holds the optional parts of a request.
type requestOptions struct {
	body  any
	token string
}

// RequestOption sets an optional part of a request.
type RequestOption func(*requestOptions)

// WithBody attaches a body, handed to the transport verbatim.
func WithBody(body any) RequestOption {
	return func(o *requestOptions) {
		o.body = body
	}
}

// WithToken attaches a bearer token, handed to the transport verbatim.
func WithToken(token string) RequestOption {
	return func(o *requestOptions) {
		o.token = token
	}
}

// Do builds the URL and issues exactly one transport call. The transport's
// response and error are returned unchanged; use Classify or Decode to
// interpret the response. An unknown service fails before the transport is
// touched.
func (c *Client) Do(ctx context.Context, method, service, endpoint string, query Query, opts ...RequestOption) (*ports.Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	u, err := c.BuildEndpoint(service, endpoint, query)
	if err != nil {
		return nil, err
	}

	c.logger.Log(ctx, logging.LevelTrace, "dispatching request",
		slog.String("method", method),
		slog.String("service", service),
		slog.String("url", u),
		slog.Bool("authenticated", ro.token != ""))

	return c.transport.ProcessRequest(ctx, method, u, ro.body, ro.token)
}

// Get dispatches a GET request.
func (c *Client) Get(ctx context.Context, service, endpoint string, query Query, opts ...RequestOption) (*ports.Response, error) {
	return c.Do(ctx, http.MethodGet, service, endpoint, query, opts...)
}

// Put dispatches a PUT request.
func (c *Client) Put(ctx context.Context, service, endpoint string, query Query, opts ...RequestOption) (*ports.Response, error) {
	return c.Do(ctx, http.MethodPut, service, endpoint, query, opts...)
}

// Post dispatches a POST request.
func (c *Client) Post(ctx context.Context, service, endpoint string, query Query, opts ...RequestOption) (*ports.Response, error) {
	return c.Do(ctx, http.MethodPost, service, endpoint, query, opts...)
}

// Delete dispatches a DELETE request.
func (c *Client) Delete(ctx context.Context, service, endpoint string, query Query, opts ...RequestOption) (*ports.Response, error) {
	return c.Do(ctx, http.MethodDelete, service, endpoint, query, opts...)
}

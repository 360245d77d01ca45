package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/go-chatkit/internal/platform/config"
	"github.com/jsamuelsen/go-chatkit/internal/platform/logging"
	"github.com/jsamuelsen/go-chatkit/internal/platform/telemetry"
	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

const (
	// instrumentationName is used for OpenTelemetry tracer and meter.
	instrumentationName = "github.com/jsamuelsen/go-chatkit/internal/adapters/clients"

	// httpStatusCategoryDivisor divides status code to get category (2xx, 4xx, 5xx).
	httpStatusCategoryDivisor = 100

	// defaultTimeout is the default request timeout if not configured.
	defaultTimeout = 30 * time.Second

	// defaultMaxResponseSize caps response bodies when not configured (10MB).
	defaultMaxResponseSize = 10 << 20

	contentTypeJSON = "application/json"
)

// Config configures the HTTP transport.
type Config struct {
	// ServiceName labels spans and metrics (peer.service).
	ServiceName string

	// Timeout bounds a single request including reading the body.
	Timeout time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// MaxResponseSize caps the bytes read from a response body.
	MaxResponseSize int64

	// Transport configures the connection pool. Ignored when HTTPClient is set.
	Transport config.TransportConfig

	// HTTPClient overrides the underlying client, e.g. to point requests at a
	// test server.
	HTTPClient *http.Client

	// Logger is an optional logger. If nil, a default logger is used.
	Logger *slog.Logger
}

// Client is an instrumented HTTP transport for the platform. It implements
// ports.Transport: one call is one HTTP exchange, with no retries. It adds
//   - JSON body encoding and bearer authentication
//   - Request/correlation ID propagation
//   - OpenTelemetry tracing and metrics
//   - Structured logging
type Client struct {
	http            *http.Client
	serviceName     string
	userAgent       string
	maxResponseSize int64
	logger          *slog.Logger

	tracer  trace.Tracer
	metrics *telemetry.ClientMetrics
}

var _ ports.Transport = (*Client)(nil)

// New creates a new instrumented HTTP transport.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = defaultMaxResponseSize
	}

	// Set up logger
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	metrics, err := telemetry.NewClientMetrics(instrumentationName)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Transport.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
			},
		}
	}

	return &Client{
		http:            httpClient,
		serviceName:     cfg.ServiceName,
		userAgent:       cfg.UserAgent,
		maxResponseSize: cfg.MaxResponseSize,
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
		metrics:         metrics,
	}, nil
}

// ProcessRequest performs one HTTP exchange. Any status is returned as a
// response; only transport failures are errors. A nil body sends no body,
// []byte, json.RawMessage and string are sent verbatim, anything else is
// JSON-encoded. A non-empty token is sent as a bearer credential.
func (c *Client) ProcessRequest(ctx context.Context, method, url string, body any, token string) (*ports.Response, error) {
	startTime := time.Now()

	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := c.injectHeaders(ctx, req, body != nil, token)
	ctx = logging.WithRequestID(ctx, requestID)

	// Create span
	ctx, span := c.tracer.Start(ctx, "HTTP "+method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	if sc := span.SpanContext(); sc.HasTraceID() {
		ctx = logging.WithTraceID(ctx, sc.TraceID().String())
	}

	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", method),
		slog.String("path", req.URL.Path),
	)

	// Propagate trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	done := c.metrics.Start(ctx, method, c.serviceName)
	defer done()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, c.fail(ctx, span, logger, method, 0, startTime, "error", fmt.Errorf("%w: %w", ErrRequestFailed, err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close response body", slog.Any("error", closeErr))
		}
	}()

	data, err := c.readBody(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, span, logger, method, resp.StatusCode, startTime, "read_error", err)
	}

	duration := time.Since(startTime)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	statusCategory := fmt.Sprintf("%dxx", resp.StatusCode/httpStatusCategoryDivisor)
	c.metrics.Record(ctx, method, c.serviceName, resp.StatusCode, duration, statusCategory)

	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", duration),
	)

	return &ports.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// fail records a failed exchange and returns err.
func (c *Client) fail(ctx context.Context, span trace.Span, logger *slog.Logger, method string, status int, startTime time.Time, result string, err error) error {
	duration := time.Since(startTime)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.metrics.Record(ctx, method, c.serviceName, status, duration, result)

	logger.Error("request failed",
		slog.Duration("duration", duration),
		slog.Any("error", err),
	)

	return err
}

// injectHeaders sets content, auth and ID headers and returns the request ID.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request, hasBody bool, token string) string {
	req.Header.Set("Accept", contentTypeJSON)

	if hasBody {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, requestID)

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(HeaderCorrelationID, correlationID)
	}

	return requestID
}

// readBody reads at most maxResponseSize bytes.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadBody, err)
	}

	if int64(len(data)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxResponseSize)
	}

	return data, nil
}

// encodeBody converts a request body into a reader.
func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return http.NoBody, nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case string:
		return bytes.NewReader([]byte(b)), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
		}
		return bytes.NewReader(data), nil
	}
}

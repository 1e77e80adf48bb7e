// Package apiclient is the typed client for the remote store API. It owns
// the cross-cutting 401 interception: when a call made with the session
// token is rejected, every registered UnauthorizedHandler is told which
// token was rejected.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/httpclient"
	"github.com/utafrali/laptopstore/pkg/tracing"
)

const serviceName = "store-api"

// TokenSource supplies the bearer token of the current session, or "".
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// UnauthorizedHandler is called with the token the API rejected.
type UnauthorizedHandler func(ctx context.Context, rejectedToken string)

// Client calls the store API.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized []UnauthorizedHandler
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTokenSource sets the session token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a client for baseURL sending requests through doer.
func New(baseURL string, doer httpclient.Doer, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		timeout: 10 * time.Second,
		logger:  logger,
		tracer:  tracing.Tracer("github.com/utafrali/laptopstore/internal/apiclient"),
		tokens:  TokenFunc(func() string { return "" }),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource replaces the token source. The session manager is built
// after the client, so it registers itself here.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers h to run whenever an authenticated call gets a 401.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, h)
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens.Token()
}

func (c *Client) notifyUnauthorized(ctx context.Context, token string) {
	c.mu.RLock()
	handlers := make([]UnauthorizedHandler, len(c.onUnauthorized))
	copy(handlers, c.onUnauthorized)
	c.mu.RUnlock()

	unauthorizedTotal.Inc()
	for _, h := range handlers {
		h(ctx, token)
	}
}

// authMode says where the bearer token of a request comes from.
type authMode int

const (
	authNone    authMode = iota // no Authorization header
	authSession                 // token from the TokenSource; 401 is intercepted
	authExplicit                // caller-supplied token; 401 is returned as is
)

type call struct {
	op     string
	method string
	path   string
	auth   authMode
	token  string
	body   io.Reader
	ctype  string
	out    any
}

// do executes c and decodes a 2xx JSON body into call.out.
func (c *Client) do(ctx context.Context, cl call) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "storeapi."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPMethod(cl.method),
			attribute.String("http.route", cl.path),
		),
	)
	defer span.End()

	start := time.Now()
	outcome, err := c.roundTrip(ctx, cl)
	requestsTotal.WithLabelValues(cl.op, outcome).Inc()
	requestDuration.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())

	span.SetAttributes(attribute.String("storeapi.outcome", outcome))
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.DebugContext(ctx, "store api call failed",
			slog.String("operation", cl.op),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, cl call) (string, error) {
	token := cl.token
	if cl.auth == authSession {
		token = c.currentToken()
		if token == "" {
			return "no_session", apperrors.Unauthorized("sign in required")
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return "client_error", fmt.Errorf("build %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.ctype != "" {
		req.Header.Set("Content-Type", cl.ctype)
	}
	if cl.auth != authNone {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return transportOutcome(ctx, err)
	}
	trace.SpanFromContext(ctx).SetAttributes(semconv.HTTPStatusCode(resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		perr := httpclient.ParseResponseError(resp, serviceName)
		if cl.auth == authSession {
			c.notifyUnauthorized(ctx, token)
		}
		return "unauthorized", perr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := "client_error"
		if resp.StatusCode >= 500 {
			outcome = "server_error"
		}
		return outcome, httpclient.ParseResponseError(resp, serviceName)
	}

	defer resp.Body.Close()
	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "ok", nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "network", apperrors.Network(fmt.Errorf("read %s response: %w", cl.op, err))
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return "malformed", fmt.Errorf("decode %s response: %w", cl.op, err)
	}
	return "ok", nil
}

func transportOutcome(ctx context.Context, err error) (string, error) {
	switch {
	case errors.Is(err, httpclient.ErrCircuitOpen), errors.Is(err, httpclient.ErrTooManyRequests):
		return "circuit_open", &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "the store is temporarily unavailable, please try again",
			Status:  http.StatusServiceUnavailable,
			Err:     errors.Join(apperrors.ErrServiceUnavail, err),
		}
	case errors.Is(ctx.Err(), context.Canceled):
		return "canceled", err
	default:
		return "network", apperrors.Network(err)
	}
}

func (c *Client) getJSON(ctx context.Context, op, path string, auth authMode, out any) error {
	return c.do(ctx, call{op: op, method: http.MethodGet, path: path, auth: auth, out: out})
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	cl := call{op: op, method: method, path: path, auth: authSession, out: out}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		cl.body = bytes.NewReader(payload)
		cl.ctype = "application/json"
	}
	return c.do(ctx, cl)
}

func pathID(id string) string {
	return url.PathEscape(id)
}

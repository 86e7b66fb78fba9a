// Package transport builds the HTTP clients used for every outbound call.
package transport

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "moneymanager/internal/log"
)

// RequestIDHeader carries the per-request id to the remote side.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// Options tunes NewHTTPClient. Zero values fall back to defaults.
type Options struct {
	Timeout time.Duration
	Logger  *applog.Logger
	// Base is the underlying round tripper; tests inject httptest transports.
	Base http.RoundTripper
}

// NewHTTPClient returns a client with connection pooling and keep-alive
// settings, wrapped with request tracing.
func NewHTTPClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := opts.Base
	if base == nil {
		base = newPooledTransport()
	}
	return &http.Client{
		Transport: NewTracer(base, opts.Logger),
		Timeout:   timeout,
	}
}

func newPooledTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableKeepAlives: false,
		ForceAttemptHTTP2: true,
	}
}

// WithRequestID returns a context carrying id; outbound requests made with
// it reuse the id instead of generating a new one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request id from ctx.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GenerateRequestID creates a unique request id for tracing.
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

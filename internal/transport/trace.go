package transport

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	applog "moneymanager/internal/log"
)

// Tracer is an http.RoundTripper that tags each request with an id and logs
// its outcome.
type Tracer struct {
	next    http.RoundTripper
	logger  *applog.Logger
	metrics *Metrics
}

// Metrics tracks outbound request counts.
type Metrics struct {
	TotalRequests  int64
	FailedRequests int64
	// LastDuration is in microseconds.
	LastDuration int64
}

// NewTracer wraps next. A nil logger discards.
func NewTracer(next http.RoundTripper, logger *applog.Logger) *Tracer {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Tracer{
		next:    next,
		logger:  logger.WithComponent(applog.ComponentTransport),
		metrics: &Metrics{},
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Tracer) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = GenerateRequestID()
		ctx = WithRequestID(ctx, requestID)
	}
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(ctx)
	req.Header.Set(RequestIDHeader, requestID)
	logger := applog.Scoped(ctx, t.logger)

	logger.DebugContext(ctx, "HTTP request started",
		applog.FieldRequestID, requestID,
		applog.FieldMethod, req.Method,
		applog.FieldURL, redact(req),
	)

	atomic.AddInt64(&t.metrics.TotalRequests, 1)
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.LastDuration, duration.Microseconds())

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		logger.WarnContext(ctx, "HTTP request failed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, req.Method,
			applog.FieldURL, redact(req),
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldError, err.Error(),
		)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		level = slog.LevelWarn
	} else if resp.StatusCode >= 500 {
		level = slog.LevelError
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
	}
	logger.Log(ctx, level, "HTTP request completed",
		applog.FieldComponent, logger.Component(),
		applog.FieldRequestID, requestID,
		applog.FieldMethod, req.Method,
		applog.FieldURL, redact(req),
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, duration.Milliseconds(),
		applog.FieldSuccess, resp.StatusCode < 400,
	)
	return resp, nil
}

// GetMetrics returns current metrics
func (t *Tracer) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests: atomic.LoadInt64(&t.metrics.FailedRequests),
		LastDuration:   atomic.LoadInt64(&t.metrics.LastDuration),
	}
}

// redact drops the query string, which may carry API keys.
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

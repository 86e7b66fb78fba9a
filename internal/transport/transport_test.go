package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "moneymanager/internal/log"
)

func TestTracer_SetsRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient(Options{Timeout: 5 * time.Second, Base: srv.Client().Transport})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, strings.HasPrefix(got, "req_"), "request id %q", got)
	assert.Empty(t, req.Header.Get(RequestIDHeader), "caller's request must not be mutated")
}

func TestTracer_ReusesContextRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
	}))
	defer srv.Close()

	client := NewHTTPClient(Options{Base: srv.Client().Transport})
	ctx := WithRequestID(context.Background(), "req_fixed")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req_fixed", got)
}

func TestTracer_Metrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tracer := NewTracer(srv.Client().Transport, nil)
	client := &http.Client{Transport: tracer}

	for _, path := range []string{"/ok", "/fail", "/ok"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	m := tracer.GetMetrics()
	assert.Equal(t, int64(3), m.TotalRequests)
	assert.Equal(t, int64(1), m.FailedRequests)
}

func TestTracer_LogsThroughContextLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	cmdLogger := applog.New(applog.Config{Format: "json", Output: &buf}).With("command", "moneymanager rates")
	ctx := applog.WithLogger(context.Background(), cmdLogger)

	client := &http.Client{Transport: NewTracer(srv.Client().Transport, nil)}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/latest/MYR?key=secret", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "moneymanager rates", line["command"])
	assert.Equal(t, applog.ComponentTransport, line[applog.FieldComponent])
	assert.Equal(t, float64(http.StatusBadGateway), line[applog.FieldStatusCode])
	assert.NotContains(t, buf.String(), "secret")
}

func TestRedactDropsQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://example.com/v1/latest/MYR?key=secret", nil)
	assert.Equal(t, "https://example.com/v1/latest/MYR", redact(req))
}

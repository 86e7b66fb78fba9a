// Package remote is the REST adapter for the expense store:
//
//	GET    /expenses       -> [{id, title, amount, date, imageurl}]
//	POST   /expenses       -> {id}
//	PUT    /expenses/{id}
//	DELETE /expenses/{id}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
	"moneymanager/internal/transport"
)

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the remote expense API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *applog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client rooted at baseURL; "/expenses" is appended per call.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid expenses API url %q", baseURL)
	}
	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = applog.Discard()
	}
	c.logger = c.logger.WithComponent(applog.ComponentRemote)
	if c.http == nil {
		c.http = transport.NewHTTPClient(transport.Options{Timeout: timeout, Logger: c.logger})
	}
	return c, nil
}

// wireID decodes an id sent either as a JSON number or a string.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = wireID(n.String())
	return nil
}

type wireExpense struct {
	ID       wireID          `json:"id,omitempty"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
	Month    string          `json:"month,omitempty"`
	ImageURL *string         `json:"imageurl"`
}

type createResponse struct {
	ID wireID `json:"id"`
}

func toWire(e core.Expense) wireExpense {
	w := wireExpense{
		Title:  e.Title,
		Amount: e.Amount,
		Date:   e.Date.Display(),
		Month:  e.Month,
	}
	if e.ImageURL != "" {
		img := e.ImageURL
		w.ImageURL = &img
	}
	return w
}

// List implements ports.ExpenseStore.
func (c *Client) List(ctx context.Context) ([]core.RawExpense, error) {
	var rows []wireExpense
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.RawExpense, 0, len(rows))
	for _, r := range rows {
		raw := core.RawExpense{
			ID:     string(r.ID),
			Title:  r.Title,
			Amount: r.Amount,
			Date:   r.Date,
		}
		if r.ImageURL != nil {
			raw.ImageURL = *r.ImageURL
		}
		out = append(out, raw)
	}
	c.logger.DebugContext(ctx, "Listed expenses", applog.FieldCount, len(out))
	return out, nil
}

// Create implements ports.ExpenseStore.
func (c *Client) Create(ctx context.Context, e core.Expense) (string, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/expenses", toWire(e), &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("create response carried no id")
	}
	return string(resp.ID), nil
}

// Replace implements ports.ExpenseStore.
func (c *Client) Replace(ctx context.Context, e core.Expense) error {
	if e.ID == "" {
		return core.ErrMissingID
	}
	return c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(e.ID), toWire(e), nil)
}

// Delete implements ports.ExpenseStore.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrMissingID
	}
	return c.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Code returns the HTTP status carried by err, or 0.
func Code(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

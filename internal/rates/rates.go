// Package rates fetches currency conversion tables from an exchange-rate
// service exposing GET {base url}/latest/{BASE}.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"moneymanager/internal/cache"
	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
	"moneymanager/internal/transport"
)

// AvailableCurrencies are the base currencies offered for selection.
var AvailableCurrencies = []string{"MYR", "USD", "EUR", "GBP", "JPY", "AUD", "CAD", "SGD"}

var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	codePattern        = regexp.MustCompile(`^[A-Z]{3}$`)
)

const (
	maxCachedBases = 32
	// maxConcurrentFetches bounds Tables.
	maxConcurrentFetches = 4
)

// Client is a caching ports.RateFetcher.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.LRUCache[core.RateTable]
	flight  singleflight.Group
	timeout time.Duration
	logger  *applog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithLogger(l *applog.Logger) Option { return func(c *Client) { c.logger = l } }

// New returns a client. A zero ttl disables caching.
func New(baseURL string, timeout, ttl time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("exchange rate API url is not configured (set EXCHANGE_API_URL)")
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid exchange rate API url %q", baseURL)
	}
	c := &Client{
		baseURL: baseURL,
		cache:   cache.NewLRUCache[core.RateTable](maxCachedBases, ttl),
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = applog.Discard()
	}
	c.logger = c.logger.WithComponent(applog.ComponentRates)
	if c.http == nil {
		c.http = transport.NewHTTPClient(transport.Options{Timeout: timeout, Logger: c.logger})
	}
	return c, nil
}

// Cache exposes the table cache for registration with a cache.Manager.
func (c *Client) Cache() cache.Cleaner { return c.cache }

// NormalizeCode upper-cases and validates a currency code.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return code, nil
}

// Latest implements ports.RateFetcher. Errors wrap core.ErrRateFetchFailure.
func (c *Client) Latest(ctx context.Context, base string) (core.RateTable, error) {
	code, err := NormalizeCode(base)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("%w: %w", core.ErrRateFetchFailure, err)
	}
	if t, ok := c.cache.Get(code); ok {
		c.logger.DebugContext(ctx, "Rates served from cache", applog.FieldCurrency, code)
		return t, nil
	}

	// The shared fetch is detached from every caller; each caller stops
	// waiting only when its own ctx ends.
	var res singleflight.Result
	select {
	case res = <-c.flight.DoChan(code, func() (any, error) {
		fctx, cancel := c.fetchContext(ctx)
		defer cancel()
		return c.cache.GetOrLoad(code, func() (core.RateTable, error) {
			return c.fetch(fctx, code)
		})
	}):
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	err = res.Err
	if err != nil {
		c.logger.WarnContext(ctx, "Exchange rate fetch failed",
			applog.NewFields().
				WithOperation(applog.OpFetchRates).
				WithError(err).
				With(applog.FieldCurrency, code).
				ToSlice()...)
		return core.RateTable{}, fmt.Errorf("%w: %w", core.ErrRateFetchFailure, err)
	}
	return res.Val.(core.RateTable), nil
}

func (c *Client) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Tables fetches several bases concurrently. It fails if any base fails.
func (c *Client) Tables(ctx context.Context, bases []string) (map[string]core.RateTable, error) {
	results := make([]core.RateTable, len(bases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, base := range bases {
		g.Go(func() error {
			t, err := c.Latest(gctx, base)
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]core.RateTable, len(results))
	for _, t := range results {
		out[t.Base] = t
	}
	return out, nil
}

// latestResponse accepts the ExchangeRate-API shape ("conversion_rates")
// and the open variant ("rates").
type latestResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
	Rates           map[string]decimal.Decimal `json:"rates"`
	LastUpdateUnix  int64                      `json:"time_last_update_unix"`
}

func (c *Client) fetch(ctx context.Context, code string) (core.RateTable, error) {
	endpoint := c.baseURL + "/latest/" + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.RateTable{}, fmt.Errorf("GET latest/%s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return core.RateTable{}, fmt.Errorf("GET latest/%s: unexpected status %d: %s",
			code, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return core.RateTable{}, fmt.Errorf("decode rates: %w", err)
	}
	if body.Result == "error" {
		return core.RateTable{}, fmt.Errorf("rate service error: %s", body.ErrorType)
	}
	table := body.ConversionRates
	if len(table) == 0 {
		table = body.Rates
	}
	if len(table) == 0 {
		return core.RateTable{}, errors.New("rate service returned no rates")
	}

	fetched := c.now().UTC()
	if body.LastUpdateUnix > 0 {
		fetched = time.Unix(body.LastUpdateUnix, 0).UTC()
	}
	c.logger.InfoContext(ctx, "Exchange rates fetched",
		applog.FieldOperation, applog.OpFetchRates,
		applog.FieldCurrency, code,
		applog.FieldCount, len(table))
	return core.RateTable{Base: code, Rates: table, FetchedAt: fetched}, nil
}

// FormatRate renders a rate with two decimals, as shown in the rate table.
func FormatRate(rate decimal.Decimal) string {
	return rate.StringFixed(2)
}

// Convert multiplies amount by rate, rounding to two decimals.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// Select returns the rows of t for codes, in the order given; an empty
// codes list selects every currency, sorted. Unknown codes are skipped.
func Select(t core.RateTable, codes []string) []Row {
	if len(codes) == 0 {
		codes = t.Codes()
	}
	rows := make([]Row, 0, len(codes))
	for _, code := range codes {
		if r, ok := t.Rate(code); ok {
			rows = append(rows, Row{Currency: code, Rate: r})
		}
	}
	return rows
}

// Row is one line of a rate table.
type Row struct {
	Currency string          `json:"currency" yaml:"currency"`
	Rate     decimal.Decimal `json:"rate" yaml:"rate"`
}

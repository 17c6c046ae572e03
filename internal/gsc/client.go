// Package gsc fetches per-query search performance rows from the Google
// Search Console API for two adjacent reporting windows.
package gsc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"

	"github.com/babybento/aeo-command/internal/config"
	"github.com/babybento/aeo-command/internal/pkg/httpretry"
	"github.com/babybento/aeo-command/internal/pkg/logger"
)

const (
	defaultBaseURL = "https://searchconsole.googleapis.com"
	readonlyScope  = "https://www.googleapis.com/auth/webmasters.readonly"
)

// ErrNotConfigured is returned when the required GSC credentials are absent.
var ErrNotConfigured = fmt.Errorf("gsc: client email, private key and site URL are required")

// Client is the Search Console API client
type Client struct {
	baseURL    string
	siteURL    string
	rowLimit   int
	windowDays int
	lagDays    int
	httpClient httpretry.HTTPDoer
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
}

// NewClient creates a new Search Console client authenticated with a
// service-account JWT. The cache may be nil to disable response caching.
func NewClient(cfg config.GSCConfig, cache Cache, cacheTTL time.Duration) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 20
	}

	jwtCfg := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{readonlyScope},
		TokenURL:   google.JWTTokenURL,
	}
	authClient := jwtCfg.Client(context.Background())
	authClient.Timeout = cfg.Timeout()

	return &Client{
		baseURL:    defaultBaseURL,
		siteURL:    cfg.SiteURL,
		rowLimit:   cfg.RowLimit,
		windowDays: cfg.WindowDays,
		lagDays:    cfg.LagDays,
		httpClient: httpretry.NewRetryClient(authClient, 3),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SetBaseURL overrides the API base URL (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchCurrentAndPrevious fetches validated rows for the current and
// previous reporting windows relative to now.
func (c *Client) FetchCurrentAndPrevious(ctx context.Context, now time.Time) (current, previous []PerformanceRow, err error) {
	curWin, prevWin := Windows(now, c.windowDays, c.lagDays)

	current, err = c.FetchWindow(ctx, curWin)
	if err != nil {
		return nil, nil, fmt.Errorf("current window %s..%s: %w", curWin.StartDate, curWin.EndDate, err)
	}
	previous, err = c.FetchWindow(ctx, prevWin)
	if err != nil {
		return nil, nil, fmt.Errorf("previous window %s..%s: %w", prevWin.StartDate, prevWin.EndDate, err)
	}
	return current, previous, nil
}

// FetchWindow fetches validated performance rows for one window, consulting
// the response cache first. A cached window never spends API quota.
func (c *Client) FetchWindow(ctx context.Context, w Window) ([]PerformanceRow, error) {
	key := c.cacheKey(w)

	if c.cache != nil {
		if rows, ok := c.cacheGet(ctx, key); ok {
			logger.Debug("gsc cache hit", "key", key, "rows", len(rows))
			return rows, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rows, err := c.query(ctx, w)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cacheSet(ctx, key, rows)
	}
	return rows, nil
}

func (c *Client) query(ctx context.Context, w Window) ([]PerformanceRow, error) {
	body, err := json.Marshal(queryRequest{
		StartDate:  w.StartDate,
		EndDate:    w.EndDate,
		Dimensions: []string{"query"},
		RowLimit:   c.rowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/webmasters/v3/sites/%s/searchAnalytics/query",
		c.baseURL, url.PathEscape(c.siteURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed queryResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	rows := normalizeRows(parsed.Rows)
	logger.Info("gsc window fetched",
		"start", w.StartDate, "end", w.EndDate,
		"raw_rows", len(parsed.Rows), "valid_rows", len(rows))
	return rows, nil
}

func (c *Client) cacheKey(w Window) string {
	return fmt.Sprintf("gsc:perf:%s:%s:%s:%d", c.siteURL, w.StartDate, w.EndDate, c.rowLimit)
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]PerformanceRow, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var rows []PerformanceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		logger.Warn("gsc cache entry corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	return rows, true
}

func (c *Client) cacheSet(ctx context.Context, key string, rows []PerformanceRow) {
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		logger.Warn("gsc cache write failed", "key", key, "error", err)
	}
}

package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Sheets API host.
const DefaultBaseURL = "https://sheets.googleapis.com"

// Client reads tab grids through the Google Sheets values API using an API
// key, which is sufficient for published read-only sheets. Requests are
// paced with a token bucket so a burst of stream loads stays inside the
// per-minute quota.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sheetID    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a values-API client with rate limiting.
func NewClient(baseURL, sheetID, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		sheetID:    sheetID,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// valueRange is the values API response wrapper. Cells decode as any:
// formatted reads return strings, but unformatted reads and some locales
// produce raw numbers or booleans.
type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// FetchRows returns the raw grid for one tab. Every failure mode — bad tab,
// auth rejection, transport error, undecodable body — wraps
// ErrSourceUnavailable so callers can treat them uniformly per stream.
func (c *Client) FetchRows(ctx context.Context, tab string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s", c.baseURL, url.PathEscape(c.sheetID), url.PathEscape(tab))
	params := url.Values{}
	params.Set("majorDimension", "ROWS")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u += "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tab %q: %v: %w", tab, err, ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body for tab %q: %v: %w", tab, err, ErrSourceUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tab %q: status %d: %s: %w", tab, resp.StatusCode, truncate(body, 200), ErrSourceUnavailable)
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decode values for tab %q: %v: %w", tab, err, ErrSourceUnavailable)
	}

	grid := make([][]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, cellString(v))
		}
		grid = append(grid, cells)
	}

	c.logger.Debug("fetched tab", "tab", tab, "rows", len(grid), "duration", time.Since(start))
	return grid, nil
}

// cellString renders one decoded cell as raw text. Non-string cells keep
// their literal representation; downstream coercion treats everything as
// untyped text anyway.
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

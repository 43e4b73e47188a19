package fullbay

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
)

const (
	// DefaultBaseURL is the production Fullbay services endpoint.
	DefaultBaseURL = "https://app.fullbay.com/services"

	ipLookupURL = "https://api.ipify.org"

	maxRetries     = 3
	retryBaseDelay = 1 * time.Second
)

// ErrMissingAPIKey is returned when a client is constructed without an API key.
var ErrMissingAPIKey = errors.New("fullbay: API key is required")

// APIError is an error reported by the Fullbay API itself (an "error" field
// in an otherwise successful response).
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fullbay: API error: %s", e.Message)
}

// Document pairs one decoded invoice with the raw bytes it was decoded
// from, so the caller can persist the untouched payload.
type Document struct {
	Invoice *Invoice
	Raw     json.RawMessage
}

// Client fetches invoice documents from the Fullbay API for a single shop.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// now is swappable for tests; token generation depends on today's date.
	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the time source used for token generation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Fullbay API client for the given shop API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateToken builds the daily authentication token:
// SHA1(apiKey + today's UTC date + public IP).
func (c *Client) GenerateToken(ctx context.Context) string {
	today := c.now().UTC().Format("2006-01-02")
	ip := c.publicIP(ctx)

	sum := sha1.Sum([]byte(c.apiKey + today + ip))
	return hex.EncodeToString(sum[:])
}

// publicIP looks up the caller's public IP address. Failures fall back to
// "unknown" so a lookup outage never blocks ingestion outright.
func (c *Client) publicIP(ctx context.Context) string {
	log := logger.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ipLookupURL, nil)
	if err != nil {
		return "unknown"
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to look up public IP")
		return "unknown"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Public IP lookup returned no usable address")
		return "unknown"
	}
	return string(body)
}

// FetchInvoicesForDate fetches all invoice documents for one calendar date.
// Documents missing a primaryKey are dropped here with a warning; everything
// else is passed through for the flattener to deal with.
func (c *Client) FetchInvoicesForDate(ctx context.Context, date time.Time) ([]Document, error) {
	log := logger.FromContext(ctx)
	dateStr := date.Format("2006-01-02")

	token := c.GenerateToken(ctx)

	url := fmt.Sprintf("%s/getInvoices.php?key=%s&token=%s&startDate=%s&endDate=%s",
		c.baseURL, c.apiKey, token, dateStr, dateStr)

	log.Info().Str("date", dateStr).Msg("Fetching invoices")

	body, err := c.getWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("FetchInvoicesForDate: %w", err)
	}

	rawDocs, err := extractInvoicePayloads(body)
	if err != nil {
		return nil, fmt.Errorf("FetchInvoicesForDate: %w", err)
	}

	docs := make([]Document, 0, len(rawDocs))
	for i, raw := range rawDocs {
		var inv Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			log.Warn().Int("index", i).Err(err).Msg("Skipping undecodable invoice document")
			continue
		}
		docs = append(docs, Document{Invoice: &inv, Raw: raw})
	}

	log.Info().Str("date", dateStr).Int("count", len(docs)).Msg("Retrieved invoices")
	return docs, nil
}

// getWithRetry performs a GET with bounded retries. 429 responses honor
// Retry-After; 5xx responses back off linearly.
func (c *Client) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "FullbayIngestion/1.0.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				delay := retryAfter(resp, 60*time.Second)
				log.Warn().Dur("retry_after", delay).Msg("Rate limited by Fullbay API")
				lastErr = fmt.Errorf("rate limited (status 429)")
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				continue
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("server error (status %d)", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
			case readErr != nil:
				lastErr = readErr
			default:
				return body, nil
			}
		}

		if attempt < maxRetries {
			delay := retryBaseDelay * time.Duration(attempt+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// extractInvoicePayloads pulls the invoice array out of the API response.
// Responses are usually {"resultSet": [...]} but older endpoints used
// "invoices" or "data", and some return a bare array.
func extractInvoicePayloads(body []byte) ([]json.RawMessage, error) {
	trimmed := bytesTrimLeft(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("invalid JSON array response: %w", err)
		}
		return list, nil
	}

	var envelope struct {
		Error     string            `json:"error"`
		ResultSet []json.RawMessage `json:"resultSet"`
		Invoices  []json.RawMessage `json:"invoices"`
		Data      []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if envelope.Error != "" {
		return nil, &APIError{Message: envelope.Error}
	}

	switch {
	case envelope.ResultSet != nil:
		return envelope.ResultSet, nil
	case envelope.Invoices != nil:
		return envelope.Invoices, nil
	case envelope.Data != nil:
		return envelope.Data, nil
	}
	return nil, nil
}

func bytesTrimLeft(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\n' || b[0] == '\r') {
		b = b[1:]
	}
	return b
}

// TestConnection fetches today's invoices to verify the key and token work.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.FetchInvoicesForDate(ctx, c.now().UTC())
	if err != nil {
		return fmt.Errorf("TestConnection: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

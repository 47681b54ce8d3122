// Package platform delivers finished audience scores to the AI platform's
// ingest endpoint.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// DefaultSupportedSites is the ingest allow-list. The platform rejects rows
// for any other audience, so they are filtered out before the push.
var DefaultSupportedSites = []string{
	"allas.se",
	"billedbladet.dk",
	"dagbladet.no",
	"elbil24.no",
	"elle.se",
	"femina.dk",
	"femina.se",
	"hant.se",
	"isabellas.dk",
	"kk.no",
	"mabra.com",
	"residencemagazine.se",
	"seher.no",
	"seiska.fi",
	"seoghoer.dk",
	"sol.no",
	"vielskerserier.dk",
}

// ClientOptions configures the platform client.
type ClientOptions struct {
	// Endpoint is the full ingest URL.
	Endpoint string
	// APIKey is sent as the x-api-key header.
	APIKey string
	// SupportedSites overrides DefaultSupportedSites when non-nil.
	SupportedSites []string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds)
	Timeout time.Duration
	// RequestsPerSecond throttles outbound pushes (default: 5).
	RequestsPerSecond float64
}

// Client pushes score rows to the AI platform with retries and a client-side
// rate limit.
type Client struct {
	endpoint   string
	apiKey     string
	supported  map[string]struct{}
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
}

// NewClient creates a platform client.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 5
	}

	sites := opts.SupportedSites
	if sites == nil {
		sites = DefaultSupportedSites
	}

	supported := make(map[string]struct{}, len(sites))
	for _, s := range sites {
		supported[s] = struct{}{}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		supported:  supported,
		httpClient: retryClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// TransformRow shapes one score row into the platform's ingest format. All
// matched entities are person tags; the quartile is sent as a string.
func TransformRow(row models.ScoreRow) models.PlatformRow {
	entities := make([]models.Entity, 0, len(row.Entities))
	for _, name := range row.Entities {
		entities = append(entities, models.Entity{Type: "PERSON", Name: name})
	}

	return models.PlatformRow{
		ID:                row.EventID,
		Entities:          entities,
		PageviewRange:     models.PageviewRange{Min: row.PageviewRange[0], Max: row.PageviewRange[1]},
		PotentialQuartile: strconv.Itoa(row.Quartile),
		Relevance:         row.Score,
		AudienceSite:      row.Audience,
	}
}

// Filter drops rows for audiences outside the allow-list.
func (c *Client) Filter(rows []models.PlatformRow) []models.PlatformRow {
	out := make([]models.PlatformRow, 0, len(rows))

	for _, row := range rows {
		if _, ok := c.supported[row.AudienceSite]; ok {
			out = append(out, row)
		}
	}

	return out
}

// Push transforms, filters and delivers the given score rows in one request.
// A payload that filters down to nothing is not sent.
func (c *Client) Push(ctx context.Context, rows []models.ScoreRow) error {
	payload := make([]models.PlatformRow, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, TransformRow(row))
	}

	payload = c.Filter(payload)
	if len(payload) == 0 {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			slog.Error("Failed to read error response body", "error", readErr)
		}

		return fmt.Errorf("platform push failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

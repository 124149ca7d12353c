package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
)

// maxErrorBody caps how much of an error response is kept for logging.
const maxErrorBody = 2048

// Client talks to the Colhub (DHuS) archive: OpenSearch for resolving
// product names to UUIDs, OData for downloading the SAFE archives.
type Client struct {
	// config contains the hub endpoint and credentials
	config config.HubConfig

	// client handles metadata requests
	client *http.Client

	// downloader handles archive downloads, which run to several GB and
	// need a much larger timeout
	downloader *http.Client

	// logger receives request logs
	logger *slog.Logger

	// retryDelay is the backoff base. Shortened by tests.
	retryDelay time.Duration
}

// NewClient creates a hub client with connection pooling.
func NewClient(cfg config.HubConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultHubTimeout
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = config.DefaultHubDownloadTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		downloader: &http.Client{
			Transport: transport,
			Timeout:   cfg.DownloadTimeout,
		},
		logger:     logger.With("component", "hub"),
		retryDelay: time.Second,
	}
}

// searchResponse is the OpenSearch JSON feed. The hub serializes a
// single match as a bare object and multiple matches as an array, so
// entry is decoded in a second step.
type searchResponse struct {
	Feed struct {
		TotalResults string          `json:"opensearch:totalResults"`
		Entry        json.RawMessage `json:"entry"`
	} `json:"feed"`
}

// searchEntry is one OpenSearch result.
type searchEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Resolve looks up the hub UUID for a product name. A name matching
// nothing returns ErrNotFound; a name matching more than one dataset
// returns ErrAmbiguous. Both are terminal for the product.
func (c *Client) Resolve(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("filename:%s*", name))
	params.Set("format", "json")
	params.Set("rows", "2")

	searchURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.config.URL, "/"), params.Encode())

	c.logger.Debug("resolving product on hub",
		"product", name,
		"url", c.config.URL,
	)

	resp, err := c.doRequest(ctx, c.client, searchURL)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("resolve %s: read response: %w", name, err)
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return "", fmt.Errorf("resolve %s: decode response: %w", name, err)
	}

	entries, err := decodeEntries(search.Feed.Entry)
	if err != nil {
		return "", fmt.Errorf("resolve %s: decode entries: %w", name, err)
	}

	switch len(entries) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	case 1:
		c.logger.Debug("resolved product",
			"product", name,
			"uuid", entries[0].ID,
		)
		return entries[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, name)
	}
}

// decodeEntries handles the hub's one-vs-many entry serialization.
func decodeEntries(raw json.RawMessage) ([]searchEntry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var many []searchEntry
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one searchEntry
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []searchEntry{one}, nil
}

// Ping checks that the hub answers an authenticated search. The health
// checker calls this on readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("q", "*")
	params.Set("rows", "0")
	params.Set("format", "json")

	pingURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.config.URL, "/"), params.Encode())

	resp, err := c.doRequest(ctx, c.client, pingURL)
	if err != nil {
		return fmt.Errorf("hub ping: %w", err)
	}
	resp.Body.Close()
	return nil
}

// doRequest performs an authenticated GET with bounded retries. Network
// errors and 5xx responses are retried with exponential backoff; every
// other non-2xx response is terminal. The caller owns the response body
// on success.
func (c *Client) doRequest(ctx context.Context, client *http.Client, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			c.logger.Debug("retrying hub request",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.SetBasicAuth(c.config.User, c.config.Password)

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.Warn("hub request failed, will retry",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errorBody)),
		}

		if resp.StatusCode >= 500 {
			lastErr = statusErr
			c.logger.Warn("hub returned server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
			continue
		}

		return nil, statusErr
	}

	return nil, lastErr
}

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/karlseguin/ccache/v3"

	"nowplaying/internal/logging"
	"nowplaying/internal/metrics"
	"nowplaying/internal/track"
)

// DefaultWatchURLPrefix is prepended to an identifier to form the query.
const DefaultWatchURLPrefix = "https://www.youtube.com/watch?v="

// maxResponseBytes caps how much of a lookup response is read.
const maxResponseBytes = 4 << 20

var (
	// ErrNotConfigured is returned by every lookup when no service URL is set.
	ErrNotConfigured = errors.New("search service URL not configured")
	// ErrNoResults is returned when the service found nothing for the query.
	ErrNoResults = errors.New("search returned no results")
)

// Config holds search client settings.
type Config struct {
	// BaseURL of the search endpoint. Empty disables lookups.
	BaseURL string
	// WatchURLPrefix is prepended to the identifier to build the query.
	WatchURLPrefix string
	// DefaultCoverURL is used when a result has no thumbnail.
	DefaultCoverURL string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// Retries is the number of retries after a failed attempt.
	Retries int
	// MemoTTL is how long a successful lookup is reused. Zero disables the memo.
	MemoTTL time.Duration
}

// Client queries the search service.
type Client struct {
	config Config
	http   *retryablehttp.Client
	memo   *ccache.Cache[track.Metadata]
}

// NewClient creates a search client.
func NewClient(config Config) *Client {
	if config.WatchURLPrefix == "" {
		config.WatchURLPrefix = DefaultWatchURLPrefix
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = config.Retries
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.Logger = logging.Leveled{Prefix: "search"}
	if config.Timeout > 0 {
		httpClient.HTTPClient.Timeout = config.Timeout
	}

	c := &Client{
		config: config,
		http:   httpClient,
	}
	if config.MemoTTL > 0 {
		c.memo = ccache.New(
			ccache.Configure[track.Metadata]().
				MaxSize(1000).
				GetsPerPromote(3).
				ItemsToPrune(10),
		)
	}
	return c
}

// Search returns metadata for the track with the given identifier.
func (c *Client) Search(ctx context.Context, id string) (track.Metadata, error) {
	if c.config.BaseURL == "" {
		return track.Metadata{}, ErrNotConfigured
	}

	if c.memo != nil {
		if item := c.memo.Get(id); item != nil && !item.Expired() {
			metrics.LookupsTotal.WithLabelValues("memo").Inc()
			logging.Debug("Lookup memo hit for %s", id)
			return item.Value(), nil
		}
	}

	meta, err := c.lookup(ctx, id)
	if err != nil {
		return track.Metadata{}, err
	}

	if c.memo != nil {
		c.memo.Set(id, meta, c.config.MemoTTL)
	}
	return meta, nil
}

// Stop releases the memo's background goroutine.
func (c *Client) Stop() {
	if c.memo != nil {
		c.memo.Stop()
	}
}

func (c *Client) queryURL(id string) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search URL: %w", err)
	}
	q := u.Query()
	q.Set("query", c.config.WatchURLPrefix+id)
	q.Set("limit", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) lookup(ctx context.Context, id string) (track.Metadata, error) {
	reqURL, err := c.queryURL(id)
	if err != nil {
		return track.Metadata{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return track.Metadata{}, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return track.Metadata{}, fmt.Errorf("search request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Debug("failed to close search response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return track.Metadata{}, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return track.Metadata{}, fmt.Errorf("failed to read search response: %w", err)
	}

	return parseResponse(body, c.config.DefaultCoverURL)
}

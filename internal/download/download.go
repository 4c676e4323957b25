// Package download fetches cover art to a local scratch file.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"nowplaying/internal/logging"
)

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsStatusError reports whether err carries a non-200 HTTP status.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Config holds downloader settings.
type Config struct {
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// Retries is the number of retries after a failed attempt. Zero means
	// a single attempt.
	Retries int
}

// Downloader writes remote images to disk.
type Downloader struct {
	client *retryablehttp.Client
}

// New creates a Downloader.
func New(config Config) *Downloader {
	client := retryablehttp.NewClient()
	client.RetryMax = config.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = logging.Leveled{Prefix: "download"}
	// Hand the last response back so the status can be reported.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}
	return &Downloader{client: client}
}

// Download GETs url and streams the body into dst, creating or truncating
// it. Only status 200 counts as success. On any failure dst does not exist
// afterwards.
func (d *Downloader) Download(ctx context.Context, url, dst string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s failed: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Debug("failed to close download response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Debug("failed to remove partial download %s: %v", dst, rmErr)
		}
		if copyErr != nil {
			return fmt.Errorf("failed to write %s: %w", dst, copyErr)
		}
		return fmt.Errorf("failed to close %s: %w", dst, closeErr)
	}

	logging.Debug("Downloaded %d bytes from %s to %s", n, url, dst)
	return nil
}

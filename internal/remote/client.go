// Package remote talks to the remote file service: it resolves remote refs
// to byte streams for the export engine and hands off download requests to
// the external download service.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/filedrop/filedrop/internal/export"
	"github.com/filedrop/filedrop/internal/logging"
)

// Client is an HTTP client with retry/backoff for the remote file service.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	logger  *logging.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, logger *logging.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = &leveledLogger{logger: logger}

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Open resolves a remote ref to a readable byte stream. The ref is either an
// absolute URL or a path relative to the service base URL. The caller must
// close the returned stream.
func (c *Client) Open(ctx context.Context, ref export.RemoteRef) (io.ReadCloser, error) {
	target, err := c.resolve(string(ref))
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", target, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", target, resp.Status)
	}
	return resp.Body, nil
}

// Dispatch hands a file identifier to the external download service, tagged
// for export-on-completion. Fire-and-forget: the result of the download
// itself is never awaited here; a non-nil error only means the hand-off
// could not be made.
func (c *Client) Dispatch(ctx context.Context, fileID, intent string) error {
	if c.baseURL == "" {
		return fmt.Errorf("dispatch %s: no download service configured", fileID)
	}

	form := url.Values{}
	form.Set("file", fileID)
	form.Set("intent", intent)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/downloads", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch %s: unexpected status %s", fileID, resp.Status)
	}

	c.logger.Debug().
		Str("file", fileID).
		Str("intent", intent).
		Msg("Download dispatched")
	return nil
}

func (c *Client) resolve(ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("relative ref %q without a base URL", ref)
	}
	return c.baseURL + "/" + strings.TrimLeft(ref, "/"), nil
}

// leveledLogger adapts the filedrop logger to retryablehttp's LeveledLogger.
type leveledLogger struct {
	logger *logging.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

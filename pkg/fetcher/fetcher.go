// Package fetcher performs resilient artifact retrieval: a streaming GET
// that sniffs the leading bytes, follows cloud storage confirmation
// interstitials once, and commits verified payloads to disk, wrapped in a
// bounded retry loop with exponential backoff.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/common"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/confirm"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/mirror"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/namer"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/sniff"
)

// DebugHTMLDir is the per-group subdirectory holding interstitial bodies
// kept for diagnosis.
const DebugHTMLDir = "_debug_html"

const (
	defaultTimeout     = 60 * time.Second
	defaultRetries     = 3
	defaultBackoffUnit = time.Second
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// Interstitial pages are small; cap how much HTML we keep in memory.
	maxHTMLBytes = 2 << 20
)

// AttemptRecorder receives one call per network attempt, success or failure.
// Implementations must be safe for concurrent use.
type AttemptRecorder interface {
	RecordAttempt(itemID int64, url, provider, kind, note string, ok bool)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each individual request. Default: 60s.
	Timeout time.Duration

	// Retries is the attempt budget per URL. Default: 3.
	Retries int

	// BackoffUnit scales the exponential backoff between attempts
	// (1, 2, 4... units after each failed attempt, no jitter). Default: 1s.
	BackoffUnit time.Duration

	// Insecure disables TLS certificate verification.
	Insecure bool

	UserAgent string
	Logger    *slog.Logger
	Recorder  AttemptRecorder
}

// Client retrieves artifacts over HTTP.
type Client struct {
	http     *http.Client
	opts     Options
	logger   *slog.Logger
	recorder AttemptRecorder
}

// New creates a Client, applying defaults for unset options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = defaultBackoffUnit
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:     opts,
		logger:   logger,
		recorder: opts.Recorder,
	}
}

// Request describes one retrieval target.
type Request struct {
	// ItemID keys provenance rows; zero when no recorder is set.
	ItemID int64

	URL      string
	Provider mirror.Provider

	// DestDir is the directory the artifact is committed to.
	DestDir string

	// FallbackBase names the artifact when the server supplies no filename.
	FallbackBase string
}

// FetchWithRetry runs Fetch up to the configured budget, sleeping
// 2^attempt backoff units between attempts. Every failure kind is
// retryable; exhaustion returns the last observed outcome unchanged.
func (c *Client) FetchWithRetry(ctx context.Context, req Request) models.FetchOutcome {
	var last models.FetchOutcome
	for attempt := 0; attempt < c.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return last
			}
		}

		last = c.Fetch(ctx, req)
		c.record(req, last)
		if last.OK {
			return last
		}
		c.logger.Warn("fetch attempt failed",
			"url", req.URL, "attempt", attempt+1, "kind", last.Kind, "note", last.Note)
	}
	return last
}

// Fetch performs a single retrieval attempt: stream the response, peek and
// sniff the leading bytes, follow a confirmation interstitial at most once,
// then commit the payload to DestDir under a derived name.
func (c *Client) Fetch(ctx context.Context, req Request) models.FetchOutcome {
	resp, err := c.get(ctx, req.URL)
	if err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}
	defer resp.Body.Close()

	peek, err := peekBody(resp.Body)
	if err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}

	contentType := resp.Header.Get("Content-Type")
	res := sniff.Detect(peek, contentType)

	if !res.IsPayload {
		// Google Drive serves an HTML warning page for files it cannot
		// virus-scan; the real payload sits behind a confirm URL.
		if req.Provider == mirror.GDrive {
			html, readErr := readAllHTML(peek, resp.Body)
			if readErr != nil {
				return models.Failed(models.FailTransport, transportNote(readErr))
			}
			if followURL, ok := confirm.Resolve(string(html), finalURL(resp, req.URL)); ok {
				return c.fetchConfirmed(ctx, req, followURL)
			}
			c.saveDebugHTML(req, html)
			return models.Failed(models.FailHTMLNotFile, models.FailHTMLNotFile)
		}

		html, readErr := readAllHTML(peek, resp.Body)
		if readErr != nil {
			return models.Failed(models.FailTransport, transportNote(readErr))
		}
		c.saveDebugHTML(req, html)
		return models.Failed(models.FailHTMLNotFile, models.FailHTMLNotFile)
	}

	return c.commit(req, resp, peek, res, contentType)
}

// fetchConfirmed repeats the fetch against the confirmation URL. This runs
// at most once per attempt; a second interstitial is a dead end.
func (c *Client) fetchConfirmed(ctx context.Context, req Request, followURL string) models.FetchOutcome {
	c.logger.Info("following confirmation interstitial", "url", req.URL, "follow", followURL)

	resp, err := c.get(ctx, followURL)
	if err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}
	defer resp.Body.Close()

	peek, err := peekBody(resp.Body)
	if err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}

	contentType := resp.Header.Get("Content-Type")
	res := sniff.Detect(peek, contentType)
	if !res.IsPayload {
		html, readErr := readAllHTML(peek, resp.Body)
		if readErr != nil {
			return models.Failed(models.FailTransport, transportNote(readErr))
		}
		c.saveDebugHTML(req, html)
		return models.Failed(models.FailHTMLNotFile, models.FailHTMLNotFile)
	}

	return c.commit(req, resp, peek, res, contentType)
}

// commit writes the peeked bytes plus the remaining stream to the
// destination path. Writes truncate, so a retried attempt fully replaces any
// partial file from an earlier one.
func (c *Client) commit(req Request, resp *http.Response, peek []byte, res sniff.Result, contentType string) models.FetchOutcome {
	name := namer.FromHeaders(resp.Header, req.FallbackBase, res.Extension)
	if err := os.MkdirAll(req.DestDir, 0750); err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}
	path := filepath.Join(req.DestDir, name)

	f, err := os.Create(path)
	if err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}

	written := int64(0)
	n, err := f.Write(peek)
	written += int64(n)
	if err == nil {
		var m int64
		m, err = io.Copy(f, resp.Body)
		written += m
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return models.Failed(models.FailTransport, transportNote(err))
	}

	// A zero-byte file is not a save; remove it rather than leave evidence
	// of a success that never happened.
	if written == 0 {
		os.Remove(path)
		return models.Failed(models.FailZeroByte, models.FailZeroByte)
	}

	c.logger.Info("artifact saved", "path", path, "bytes", written, "content_type", contentType)
	return models.FetchOutcome{
		OK:          true,
		SavedPath:   path,
		SavedName:   name,
		ContentType: contentType,
	}
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	return c.http.Do(req)
}

// saveDebugHTML persists an interstitial body for diagnosis, keyed by a
// short hash of the URL plus the provider tag. Last writer wins on the rare
// hash collision; acceptable for a diagnostic artifact.
func (c *Client) saveDebugHTML(req Request, html []byte) {
	dir := filepath.Join(req.DestDir, DebugHTMLDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		c.logger.Warn("failed to create debug HTML directory", "dir", dir, "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s.html", common.ShortHash(req.URL), req.Provider)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, html, 0644); err != nil {
		c.logger.Warn("failed to write debug HTML", "path", path, "error", err)
		return
	}
	c.logger.Info("saved interstitial body", "path", path, "url", req.URL)
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	sleep := c.opts.BackoffUnit * time.Duration(1<<uint(attempt-1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}

func (c *Client) record(req Request, out models.FetchOutcome) {
	if c.recorder == nil {
		return
	}
	kind, note := "", ""
	if !out.OK {
		kind, note = out.Kind, out.Note
	}
	c.recorder.RecordAttempt(req.ItemID, req.URL, string(req.Provider), kind, note, out.OK)
}

// peekBody reads up to sniff.PeekSize leading bytes. The returned slice must
// still be written ahead of the remaining stream, since response bodies are
// not re-readable.
func peekBody(body io.Reader) ([]byte, error) {
	buf := make([]byte, sniff.PeekSize)
	n, err := io.ReadFull(body, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// readAllHTML reassembles the full interstitial body from the peeked prefix
// and the unread remainder, bounded by maxHTMLBytes.
func readAllHTML(peek []byte, body io.Reader) ([]byte, error) {
	rest, err := io.ReadAll(io.LimitReader(body, maxHTMLBytes))
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), peek...), rest...), nil
}

func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}

func transportNote(err error) string {
	return fmt.Sprintf("%s:%s", models.FailTransport, err)
}

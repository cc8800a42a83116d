package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "vidconv/1.0"

// Client fetches direct media URLs and small assets such as thumbnails.
//
// Client implements pipeline.Acquirer for URLs that point straight at a
// media file:
//
//	client := NewClient(WithTimeout(10 * time.Minute))
//	acquired, err := client.Acquire(ctx, pipeline.Request{
//	    URL:       "https://cdn.example.com/clip.mp4",
//	    OutputDir: "/tmp/vidconv",
//	}, emit)
type Client struct {
	httpClient       *http.Client
	userAgent        string
	progressInterval time.Duration
	logger           *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds a whole request, body included. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithProgressInterval sets the minimum spacing of progress events.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Client) { c.progressInterval = d }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client. The default has no overall timeout since media
// files can be large; cancel through the context instead.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:       &http.Client{},
		userAgent:        DefaultUserAgent,
		progressInterval: 200 * time.Millisecond,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProgressWriter wraps a writer to track download progress.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// Zero or negative means unknown.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Fraction returns written/total, or model.IndeterminateFraction when the
// total is unknown.
func Fraction(written, total int64) float64 {
	if total <= 0 {
		return model.IndeterminateFraction
	}
	return float64(written) / float64(total)
}

// GetBytes performs a GET request and returns the response body.
//
// Use it for small files like thumbnails. Media files go through Acquire.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Acquire implements pipeline.Acquirer by streaming the URL to a file in
// req.OutputDir.
//
// It fails on a non-2xx status, on a response that is not media and on an
// empty body. Credentials in req are ignored.
func (c *Client) Acquire(ctx context.Context, req pipeline.Request, emit func(pipeline.AcquireEvent)) (pipeline.Acquired, error) {
	resp, err := c.get(ctx, req.URL)
	if err != nil {
		return pipeline.Acquired{}, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isMedia(contentType) {
		return pipeline.Acquired{}, fmt.Errorf("%s (%s): %w", req.URL, contentType, model.ErrNotMedia)
	}
	if resp.ContentLength == 0 {
		return pipeline.Acquired{}, fmt.Errorf("%s: %w", req.URL, model.ErrEmptyBody)
	}

	dir := req.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return pipeline.Acquired{}, fmt.Errorf("create output dir: %w", err)
	}

	destPath := filepath.Join(dir, fileNameFor(req.URL, resp.Header.Get("Content-Disposition"), contentType))
	partPath := destPath + ".part"

	file, err := os.Create(partPath)
	if err != nil {
		return pipeline.Acquired{}, err
	}

	limiter := rate.NewLimiter(rate.Every(c.progressInterval), 1)
	emit(pipeline.ProgressOf(Fraction(0, resp.ContentLength), "Downloading"))

	pw := &ProgressWriter{
		Writer: file,
		Total:  resp.ContentLength,
		OnUpdate: func(written, total int64) {
			if limiter.Allow() {
				emit(pipeline.ProgressOf(Fraction(written, total), "Downloading"))
			}
		},
	}

	_, copyErr := io.Copy(pw, resp.Body)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(partPath)
		return pipeline.Acquired{}, err
	}
	if pw.Written == 0 {
		os.Remove(partPath)
		return pipeline.Acquired{}, fmt.Errorf("%s: %w", req.URL, model.ErrEmptyBody)
	}
	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return pipeline.Acquired{}, err
	}

	emit(pipeline.ProgressOf(1, "Downloaded"))

	c.logger.DebugContext(ctx, "direct fetch finished",
		slog.String("url", req.URL),
		slog.String("file", destPath),
		slog.Int64("bytes", pw.Written),
	)

	meta := pipeline.Metadata{FilePath: destPath}
	emit(pipeline.MetadataOf(meta))

	return pipeline.Acquired{
		Files:    []pipeline.AcquiredFile{{Path: destPath}},
		Metadata: meta,
	}, nil
}

// ProducesFinal implements pipeline.FinalFormatter. A direct file may already
// be in the right container but the transcoder decides that, so the full bar
// split is kept.
func (c *Client) ProducesFinal(pipeline.Request) bool {
	return false
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnsupportedURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			err = fmt.Errorf("%w: %v", model.ErrAuthRequired, err)
		}
		return nil, err
	}

	return resp, nil
}

// isMedia accepts audio, video and generic binary content. A missing header
// is given the benefit of the doubt.
func isMedia(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "video/"), strings.HasPrefix(mediaType, "audio/"):
		return true
	case mediaType == "application/octet-stream",
		mediaType == "binary/octet-stream",
		mediaType == "application/mp4",
		mediaType == "application/ogg":
		return true
	default:
		return false
	}
}

// fileNameFor picks a local file name from the Content-Disposition header or
// the URL path, adding an extension from the content type when missing.
func fileNameFor(rawURL, disposition, contentType string) string {
	var name string
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			name = params["filename"]
		}
	}
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil {
			if base := path.Base(u.Path); base != "." && base != "/" {
				if unescaped, err := url.PathUnescape(base); err == nil {
					base = unescaped
				}
				name = base
			}
		}
	}

	name = ioutils.SanitizeFileName(filepath.Base(name))
	if name == "" || name == "." {
		name = uuid.NewString()
	}

	if filepath.Ext(name) == "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				name += exts[0]
			}
		}
	}
	return name
}

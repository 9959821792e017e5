// Package source fetches raw dataset text.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"geoscatter/internal/metrics"
)

// Source yields the raw text of a dataset
type Source interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// File reads a local file
type File struct {
	Path string
}

func (f File) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	return file, nil
}

func (f File) String() string {
	return f.Path
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Code, e.Body)
}

// HTTP downloads a URL
type HTTP struct {
	URL    string
	Client *http.Client
}

func (h HTTP) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", h.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{URL: h.URL, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp.Body, nil
}

func (h HTTP) String() string {
	return h.URL
}

// For picks the HTTP source for URLs and the file source otherwise
func For(location string, client *http.Client) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTP{URL: location, Client: client}
	}
	return File{Path: location}
}

// Cache stores fetched text
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Invalidator is a source holding a copy that can be dropped before a fresh fetch
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type cached struct {
	src   Source
	cache Cache
	key   string
	ttl   time.Duration
	log   *slog.Logger
}

// Cached serves src from cache, filling the cache on a miss.
// Cache failures fall back to src.
func Cached(src Source, cache Cache, key string, ttl time.Duration, logger *slog.Logger) Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &cached{src: src, cache: cache, key: key, ttl: ttl, log: logger}
}

func (c *cached) Fetch(ctx context.Context) (io.ReadCloser, error) {
	b, ok, err := c.cache.Get(ctx, c.key)
	switch {
	case err != nil:
		c.log.Warn("source cache unavailable", "key", c.key, "error", err)
	case ok:
		metrics.CacheHits.WithLabelValues(c.key).Inc()
		return io.NopCloser(bytes.NewReader(b)), nil
	default:
		metrics.CacheMisses.WithLabelValues(c.key).Inc()
	}

	rc, err := c.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err = io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.src, err)
	}

	if err := c.cache.Set(ctx, c.key, b, c.ttl); err != nil {
		c.log.Warn("failed to fill source cache", "key", c.key, "error", err)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Invalidate drops the cached text so the next Fetch reads the origin
func (c *cached) Invalidate(ctx context.Context) error {
	if err := c.cache.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("invalidate %s: %w", c.key, err)
	}
	return nil
}

func (c *cached) String() string {
	return c.src.String()
}

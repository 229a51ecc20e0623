package waveform

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
)

// Resolver turns a source reference (URL or local path) into raw bytes.
// Errors from it are classified as network failures.
type Resolver interface {
	Resolve(ctx context.Context, source string) ([]byte, error)
}

type httpResolver struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
	debug     bool
}

type debugLogger struct{}

func (d *debugLogger) Printf(format string, args ...interface{}) {
	log.Printf("[HTTP] "+format, args...)
}

// NewResolver builds the default byte source resolver: retrying HTTP for
// URLs, direct reads for local paths, both behind a client-side rate
// limit so rapid track switching cannot hammer a remote host.
func NewResolver(cfg *config.Config) Resolver {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Network.Retries
	retryClient.HTTPClient.Timeout = time.Duration(cfg.Network.Timeout) * time.Second
	retryClient.Logger = nil

	if cfg.Debug {
		retryClient.Logger = &debugLogger{}
	}

	limiter := rate.NewLimiter(
		rate.Limit(cfg.Network.RateLimit.RequestsPerSecond),
		cfg.Network.RateLimit.BurstSize,
	)

	return &httpResolver{
		client:    retryClient,
		limiter:   limiter,
		userAgent: cfg.Network.UserAgent,
		debug:     cfg.Debug,
	}
}

func (r *httpResolver) Resolve(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return r.fetch(ctx, source)
	}
	return r.readFile(source)
}

func (r *httpResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "audio/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && r.debug {
			log.Printf("[FETCH] Failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: bad status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if r.debug {
		log.Printf("[FETCH] Fetched %d bytes from %s", len(data), url)
	}
	return data, nil
}

func (r *httpResolver) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read local file: %w", err)
	}

	if r.debug {
		log.Printf("[FETCH] Read %d bytes from %s", len(data), path)
	}
	return data, nil
}

// Package source fetches raw report tables from local files and remote
// spreadsheet exports and decodes them into domain tables.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
)

// maxPayloadBytes bounds a single source body.
const maxPayloadBytes = 64 << 20

// Fetcher returns the raw payload stored at a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (domain.Payload, error)
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// FileFetcher reads sources from the local filesystem.
type FileFetcher struct {
	metrics *observability.Metrics
}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher(metrics *observability.Metrics) *FileFetcher {
	return &FileFetcher{metrics: metrics}
}

func (f *FileFetcher) Fetch(_ context.Context, location string) (domain.Payload, error) {
	start := time.Now()
	data, err := os.ReadFile(location)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("read file: %w", err)
	}
	f.metrics.FetchDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
	return domain.Payload{Location: location, Data: data, FetchedAt: time.Now().UTC()}, nil
}

// HTTPFetcher downloads remote spreadsheet exports with a bounded timeout.
type HTTPFetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewHTTPFetcher creates an HTTPFetcher whose requests expire after timeout.
func NewHTTPFetcher(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, location string) (domain.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("fetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Payload{}, fmt.Errorf("source responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return domain.Payload{}, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxPayloadBytes {
		return domain.Payload{}, fmt.Errorf("source body exceeds %d bytes", maxPayloadBytes)
	}

	elapsed := time.Since(start)
	h.metrics.FetchDuration.WithLabelValues("http").Observe(elapsed.Seconds())
	h.logger.Debug("remote source fetched", "source", location, "bytes", len(data), "duration", elapsed)

	return domain.Payload{
		Location:    location,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// Router dispatches http(s) locations to Remote and everything else to Local.
type Router struct {
	Local  Fetcher
	Remote Fetcher
}

func (r *Router) Fetch(ctx context.Context, location string) (domain.Payload, error) {
	if IsRemote(location) {
		return r.Remote.Fetch(ctx, location)
	}
	return r.Local.Fetch(ctx, location)
}

// Refresh fetches location bypassing any cache in front of the remote fetcher.
func (r *Router) Refresh(ctx context.Context, location string) (domain.Payload, error) {
	if !IsRemote(location) {
		return r.Local.Fetch(ctx, location)
	}
	if rf, ok := r.Remote.(interface {
		Refresh(ctx context.Context, location string) (domain.Payload, error)
	}); ok {
		return rf.Refresh(ctx, location)
	}
	return r.Remote.Fetch(ctx, location)
}

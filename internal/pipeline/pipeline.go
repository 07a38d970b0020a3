package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
)

// Extractor fetches the raw payload of a report source.
type Extractor interface {
	Fetch(ctx context.Context, location string) (domain.Payload, error)
}

// Refresher is implemented by extractors that can bypass their cache.
type Refresher interface {
	Refresh(ctx context.Context, location string) (domain.Payload, error)
}

// Decoder turns a payload into a header plus rows.
type Decoder interface {
	Decode(p domain.Payload) (domain.Table, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(p domain.Payload) (domain.Table, error)

func (f DecoderFunc) Decode(p domain.Payload) (domain.Table, error) { return f(p) }

// Transformer converts a decoded table into a validated snapshot.
type Transformer interface {
	Transform(ctx context.Context, source string, table domain.Table) (domain.Snapshot, error)
}

// Publisher exports a successful snapshot. Publishing is best effort.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// LoadOptions tunes a single load.
type LoadOptions struct {
	// Force bypasses the source cache.
	Force bool
}

// Loader runs fetch, decode and transform for one source and reports the
// outcome. It holds no collection of its own; callers keep the last
// successful snapshot.
type Loader struct {
	extractor   Extractor
	decoder     Decoder
	transformer Transformer
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Loader. publisher may be nil to disable export.
func New(e Extractor, d Decoder, t Transformer, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		extractor:   e,
		decoder:     d,
		transformer: t,
		publisher:   p,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once any load has succeeded.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("no report source has loaded successfully yet")
	}
	return nil
}

// Load fetches location and returns its validated snapshot. Fetch and decode
// failures are returned as *domain.SourceUnavailableError and unresolved
// required columns as *domain.MissingFieldsError; in both cases no partial
// snapshot is returned.
func (l *Loader) Load(ctx context.Context, location string, opts LoadOptions) (domain.Snapshot, error) {
	start := time.Now()

	payload, err := l.fetch(ctx, location, opts.Force)
	if err != nil {
		return l.fail(location, &domain.SourceUnavailableError{Source: location, Err: err})
	}

	table, err := l.decoder.Decode(payload)
	if err != nil {
		return l.fail(location, &domain.SourceUnavailableError{Source: location, Err: err})
	}

	snap, err := l.transformer.Transform(ctx, location, table)
	if err != nil {
		return l.fail(location, err)
	}
	snap.Diagnostics.FromCache = payload.FetchedAt.Before(start)

	l.metrics.Loads.WithLabelValues("success").Inc()
	l.metrics.RowsLoaded.Add(float64(snap.Diagnostics.Accepted))
	l.metrics.RowsRejected.Add(float64(len(snap.Diagnostics.Rejected)))
	l.metrics.ReportsLoaded.Set(float64(snap.Diagnostics.Accepted))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.ready.Store(true)

	l.logger.Info("report source loaded",
		"source", location,
		"rows", snap.Diagnostics.TotalRows,
		"accepted", snap.Diagnostics.Accepted,
		"rejected", len(snap.Diagnostics.Rejected),
		"with_coordinates", snap.Diagnostics.WithCoordinates,
		"from_cache", snap.Diagnostics.FromCache,
		"duration", time.Since(start),
	)

	l.publish(ctx, snap)
	return snap, nil
}

func (l *Loader) fetch(ctx context.Context, location string, force bool) (domain.Payload, error) {
	if force {
		if r, ok := l.extractor.(Refresher); ok {
			return r.Refresh(ctx, location)
		}
	}
	return l.extractor.Fetch(ctx, location)
}

func (l *Loader) publish(ctx context.Context, snap domain.Snapshot) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishSnapshot(ctx, snap); err != nil {
		l.metrics.PublishErrors.Inc()
		l.logger.Warn("snapshot publish failed", "source", snap.Source, "error", err)
	}
}

func (l *Loader) fail(location string, err error) (domain.Snapshot, error) {
	outcome := "error"
	var (
		mf *domain.MissingFieldsError
		su *domain.SourceUnavailableError
	)
	switch {
	case errors.As(err, &mf):
		outcome = "missing_fields"
	case errors.As(err, &su):
		outcome = "source_unavailable"
	}
	l.metrics.Loads.WithLabelValues(outcome).Inc()
	l.logger.Error("report load failed", "source", location, "outcome", outcome, "error", err)
	return domain.Snapshot{}, err
}

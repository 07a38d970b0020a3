// Package session holds the per-user state of the report viewer: the last
// successfully loaded snapshot, the active filters, the filtered collection
// and the current map selection.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
	"github.com/couchcryptid/denuncia-map-service/internal/pipeline"
)

// ErrInvalidPoint is returned by Select for a click outside WGS-84 bounds.
var ErrInvalidPoint = errors.New("click point is not a valid coordinate")

// Loader produces validated snapshots.
type Loader interface {
	Load(ctx context.Context, location string, opts pipeline.LoadOptions) (domain.Snapshot, error)
}

// MapDefaults is the view used when no filtered report has coordinates.
type MapDefaults struct {
	Center domain.Geo
	Zoom   int
}

// Session is safe for concurrent use; every operation runs under one lock so
// passes never overlap.
type Session struct {
	id       string
	source   string
	loader   Loader
	defaults MapDefaults
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	snapshot   *domain.Snapshot
	predicates domain.Predicates
	filtered   []domain.Report
	selection  *domain.Match
}

// New creates an empty session bound to one source location.
func New(id, source string, loader Loader, defaults MapDefaults, logger *slog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		id:         id,
		source:     source,
		loader:     loader,
		defaults:   defaults,
		logger:     logger.With("session_id", id),
		metrics:    metrics,
		predicates: domain.DefaultPredicates(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Reload loads the source and replaces the collection wholesale. Report ids
// only hold within one snapshot, so a successful reload clears the selection.
// On failure the previous snapshot, filtered collection and selection are
// kept.
func (s *Session) Reload(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loader.Load(ctx, s.source, pipeline.LoadOptions{Force: force})
	if err != nil {
		s.logger.Warn("reload failed, keeping previous collection",
			"source", s.source,
			"has_previous", s.snapshot != nil,
			"error", err,
		)
		return err
	}
	s.snapshot = &snap
	s.selection = nil
	s.refilter()
	return nil
}

// SetFilters replaces the active predicates and recomputes the filtered
// collection.
func (s *Session) SetFilters(p domain.Predicates) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predicates = p
	s.refilter()
}

// Select picks the filtered report nearest to point. ok is false, and the
// selection is cleared, when no filtered report has coordinates.
func (s *Session) Select(point domain.Geo) (domain.Match, bool, error) {
	if !point.Valid() {
		return domain.Match{}, false, ErrInvalidPoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := domain.Nearest(s.filtered, point)
	if !ok {
		s.selection = nil
		s.metrics.Selections.WithLabelValues("none").Inc()
		return domain.Match{}, false, nil
	}
	s.selection = &m
	s.metrics.Selections.WithLabelValues("match").Inc()
	s.logger.Debug("report selected", "report_id", m.Report.ID, "distance_m", m.DistanceMeters)
	return m, true, nil
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// refilter recomputes the filtered collection and drops a selection whose
// report is no longer part of it. Callers hold s.mu.
func (s *Session) refilter() {
	if s.snapshot == nil {
		s.filtered = nil
		s.selection = nil
		return
	}
	s.filtered = domain.ApplyFilters(s.snapshot.Reports, s.predicates)

	if s.selection == nil {
		return
	}
	for _, r := range s.filtered {
		if r.ID == s.selection.Report.ID {
			return
		}
	}
	s.selection = nil
}

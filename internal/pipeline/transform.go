package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
)

// ReportTransformer implements Transformer using domain parsing with
// optional geocoding enrichment.
type ReportTransformer struct {
	geocoder domain.Geocoder
	region   string
	logger   *slog.Logger
}

// NewTransformer creates a ReportTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, region string, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		geocoder: geocoder,
		region:   region,
		logger:   logger,
	}
}

func (t *ReportTransformer) Transform(ctx context.Context, source string, table domain.Table) (domain.Snapshot, error) {
	snap, err := domain.ParseTable(source, table)
	if err != nil {
		return domain.Snapshot{}, err
	}

	for _, rej := range snap.Diagnostics.Rejected {
		t.logger.Warn("row rejected", "source", source, "line", rej.Line, "error", rej)
	}

	if t.geocoder == nil {
		return snap, nil
	}
	for i, r := range snap.Reports {
		if r.HasCoordinates() {
			continue
		}
		enriched := domain.EnrichWithGeocoding(ctx, r, t.geocoder, t.region, t.logger)
		if enriched.HasCoordinates() {
			snap.Diagnostics.Geocoded++
			snap.Diagnostics.WithCoordinates++
		}
		snap.Reports[i] = enriched
	}
	return snap, nil
}

package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding fills the coordinate pair of a report that has none by
// forward geocoding its neighborhood within region. Reports that already have
// coordinates, and all reports when geocoder is nil, are returned unchanged.
// Failures degrade gracefully: the pair stays absent and GeoSource records
// "failed".
func EnrichWithGeocoding(ctx context.Context, r Report, geocoder Geocoder, region string, logger *slog.Logger) Report {
	if geocoder == nil || r.Geo != nil || r.Neighborhood == "" {
		return r
	}

	result, err := geocoder.ForwardGeocode(ctx, r.Neighborhood, region)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"report_id", r.ID,
			"neighborhood", r.Neighborhood,
			"region", region,
			"error", err,
		)
		r.GeoSource = GeoSourceFailed
		return r
	}

	g := Geo{Lat: result.Lat, Lon: result.Lon}
	if (result.Lat == 0 && result.Lon == 0) || !g.Valid() {
		r.GeoSource = GeoSourceFailed
		return r
	}
	r.Geo = &g
	r.GeoSource = GeoSourceForward
	return r
}

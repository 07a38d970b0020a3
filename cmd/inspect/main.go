// Command inspect loads a report source once and prints what the map service
// would show for it: load diagnostics, the filtered table, the marker set and,
// optionally, the report nearest to a click point.
//
// Usage:
//
//	go run ./cmd/inspect \
//	  -source data/mock/fiscaliza_sample.csv \
//	  -type "Buraco na via" \
//	  -click -5.1990,-39.2927
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/denuncia-map-service/internal/adapter/source"
	"github.com/couchcryptid/denuncia-map-service/internal/config"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
	"github.com/couchcryptid/denuncia-map-service/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	src := flag.String("source", cfg.ReportSource, "local path or http(s) export URL")
	typ := flag.String("type", domain.AllSentinel, "report type filter")
	hood := flag.String("neighborhood", domain.AllSentinel, "neighborhood filter")
	all := flag.Bool("all", false, "include reports not flagged for publication")
	click := flag.String("click", "", "select the report nearest to lat,lon")
	verbose := flag.Bool("v", false, "log pipeline activity to stderr")
	flag.Parse()

	var point *domain.Geo
	if *click != "" {
		p, err := parsePoint(*click)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -click: %v\n", err)
			flag.Usage()
			os.Exit(2)
		}
		point = &p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	pred := domain.Predicates{Type: *typ, Neighborhood: *hood, VisibleOnly: !*all}
	os.Exit(run(cfg, *src, pred, point, logger, os.Stdout))
}

func run(cfg *config.Config, location string, pred domain.Predicates, point *domain.Geo, logger *slog.Logger, out io.Writer) int {
	metrics := observability.NewUnregisteredMetrics()
	fetcher := &source.Router{
		Local:  source.NewFileFetcher(metrics),
		Remote: source.NewHTTPFetcher(cfg.SourceTimeout, logger, metrics),
	}
	loader := pipeline.New(fetcher, pipeline.DecoderFunc(source.DecodeTable),
		pipeline.NewTransformer(nil, cfg.GeocodeRegion, logger), nil, logger, metrics)

	snap, err := loader.Load(context.Background(), location, pipeline.LoadOptions{})
	if err != nil {
		fmt.Fprintf(out, "LOAD FAILED: %v\n", describe(err))
		return 1
	}

	printDiagnostics(out, snap)

	filtered := domain.ApplyFilters(snap.Reports, pred)
	fmt.Fprintf(out, "\n=== Table (%d of %d reports) ===\n", len(filtered), len(snap.Reports))
	printTable(out, filtered)

	view := domain.BuildMap(filtered)
	fmt.Fprintf(out, "\n=== Map ===\n")
	if view.Centroid == nil {
		fmt.Fprintf(out, "  no coordinates, default view (%.4f, %.4f) zoom %d\n", cfg.MapDefaultLat, cfg.MapDefaultLon, cfg.MapDefaultZoom)
	} else {
		fmt.Fprintf(out, "  centroid (%.6f, %.6f), %d markers\n", view.Centroid.Lat, view.Centroid.Lon, len(view.Markers))
	}

	if point != nil {
		fmt.Fprintf(out, "\n=== Nearest to (%.6f, %.6f) ===\n", point.Lat, point.Lon)
		m, ok := domain.Nearest(filtered, *point)
		if !ok {
			fmt.Fprintln(out, "  no match")
		} else {
			fmt.Fprintf(out, "  #%d %s / %s, %.0f m\n  %s\n", m.Report.ID, m.Report.Type, m.Report.Neighborhood, m.DistanceMeters, m.Report.Description)
		}
	}
	return 0
}

func printDiagnostics(out io.Writer, snap domain.Snapshot) {
	d := snap.Diagnostics
	fmt.Fprintf(out, "=== %s ===\n", snap.Source)
	fmt.Fprintf(out, "  rows %d, empty %d, accepted %d, rejected %d, with coordinates %d\n",
		d.TotalRows, d.EmptyRows, d.Accepted, len(d.Rejected), d.WithCoordinates)
	for _, f := range []domain.Field{
		domain.FieldType, domain.FieldNeighborhood, domain.FieldReporterName, domain.FieldDescription,
		domain.FieldSubmittedAt, domain.FieldLatitude, domain.FieldLongitude, domain.FieldPhotoURL, domain.FieldVisible,
	} {
		col, ok := d.Columns[f]
		if !ok {
			col = "-"
		}
		fmt.Fprintf(out, "  %-14s <- %s\n", f, col)
	}
	for i, r := range d.Rejected {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, r.Error())
	}
}

func printTable(out io.Writer, reports []domain.Report) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNEIGHBORHOOD\tNAME\tSUBMITTED\tDESCRIPTION")
	for _, r := range reports {
		s := r.Summary()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, s.Type, s.Neighborhood, s.Name, s.SubmittedAt, truncate(s.Description, 48))
	}
	tw.Flush() //nolint:errcheck // stdout
}

func describe(err error) string {
	var mf *domain.MissingFieldsError
	if errors.As(err, &mf) {
		return fmt.Sprintf("%v (headers must include type, neighborhood, name, description and submission time)", err)
	}
	return err.Error()
}

func parsePoint(s string) (domain.Geo, error) {
	latRaw, lonRaw, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Geo{}, errors.New("expected lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("longitude: %w", err)
	}
	g := domain.Geo{Lat: lat, Lon: lon}
	if !g.Valid() {
		return domain.Geo{}, errors.New("coordinate out of range")
	}
	return g, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

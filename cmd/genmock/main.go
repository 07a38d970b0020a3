// Command genmock writes a deterministic sample report export in the format
// the public complaint form produces (Kobo-style headers, comma decimals,
// semicolon delimiter) and prints the statistics the real loader derives from
// it, for updating test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/generated.csv -rows 200 -seed 42
//	go run ./cmd/genmock -out data/mock/generated.xlsx -format xlsx
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/adapter/source"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/xuri/excelize/v2"
)

var header = []string{
	"Tipo de Denúncia", "Bairro", "Nome", "Breve relato", "_submission_time",
	"_Coordenadas_latitude", "_Coordenadas_longitude", "Foto", "Postar?",
}

var reportTypes = []string{
	"Buraco na via", "Lixo acumulado", "Iluminação pública", "Obra irregular",
	"Esgoto a céu aberto", "Poluição sonora",
}

type neighborhood struct {
	name     string
	lat, lon float64
}

var neighborhoods = []neighborhood{
	{"Centro", -5.1990, -39.2927},
	{"Cohab", -5.2045, -39.2878},
	{"Alto Alegre", -5.1931, -39.3010},
	{"Maravilha", -5.2102, -39.2975},
	{"Abelhas", -5.1875, -39.2852},
	{"São João", -5.2150, -39.2801},
}

var names = []string{"Ana Souza", "João Lima", "Maria Alves", "Pedro Rocha", "Carla Dias", "Rafael Melo", ""}

var baseDate = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated export")
	rows := flag.Int("rows", 200, "number of data rows")
	seed := flag.Uint64("seed", 42, "random seed")
	format := flag.String("format", "csv", "csv or xlsx")
	flag.Parse()

	if *out == "" || *rows <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	records := generate(*rows, rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))

	var (
		data []byte
		err  error
	)
	switch *format {
	case "csv":
		data, err = encodeCSV(records)
	case "xlsx":
		data, err = encodeXLSX(records)
	default:
		return fmt.Errorf("unknown -format %q", *format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", *format, err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		return err
	}
	log.Printf("wrote %d rows to %s", *rows, *out)

	// Run the real loader over the output so the stats match service behavior.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate.AddDate(0, 1, 0)))
	defer domain.SetClock(nil)

	table, err := source.DecodeTable(domain.Payload{Location: *out, Data: data})
	if err != nil {
		return fmt.Errorf("decode generated output: %w", err)
	}
	snap, err := domain.ParseTable(*out, table)
	if err != nil {
		return fmt.Errorf("parse generated output: %w", err)
	}
	printStats(snap)
	return nil
}

func generate(n int, rng *rand.Rand) [][]string {
	out := make([][]string, 0, n)
	for i := range n {
		nb := neighborhoods[rng.IntN(len(neighborhoods))]
		submitted := baseDate.Add(time.Duration(i)*97*time.Minute + time.Duration(rng.IntN(60))*time.Minute)

		row := []string{
			reportTypes[rng.IntN(len(reportTypes))],
			nb.name,
			names[rng.IntN(len(names))],
			fmt.Sprintf("Relato %d registrado pelo formulário", i+1),
			submitted.Format("2006-01-02T15:04:05.000"),
			"", "", "", "Sim",
		}

		switch roll := rng.IntN(100); {
		case roll < 3:
			row[1] = "" // rejected: blank neighborhood
		case roll < 5:
			row = make([]string, len(header)) // blank row
			out = append(out, row)
			continue
		case roll < 8:
			row[4] = submitted.Format("02/01/2006 15:04")
		}

		if rng.IntN(100) >= 15 {
			row[5] = commaDecimal(nb.lat + jitter(rng))
			row[6] = commaDecimal(nb.lon + jitter(rng))
		}
		if rng.IntN(100) < 30 {
			row[7] = fmt.Sprintf("https://kc.kobotoolbox.org/media/fiscaliza/%04d.jpg", i+1)
		}
		if rng.IntN(100) < 10 {
			row[8] = "Não"
		}
		out = append(out, row)
	}
	return out
}

func jitter(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 0.006
}

func commaDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 6, 64), ".", ",", 1)
}

func encodeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXLSX(records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	write := func(line int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := write(1, header); err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := write(i+2, r); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func printStats(snap domain.Snapshot) {
	d := snap.Diagnostics
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d, empty: %d, accepted: %d, rejected: %d\n", d.TotalRows, d.EmptyRows, d.Accepted, len(d.Rejected))
	fmt.Printf("With coordinates: %d\n", d.WithCoordinates)

	visible := domain.ApplyFilters(snap.Reports, domain.DefaultPredicates())
	fmt.Printf("Visible: %d\n", len(visible))

	byType := map[string]int{}
	for _, r := range visible {
		byType[r.Type]++
	}
	keys := make([]string, 0, len(byType))
	for k := range byType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("Visible by type:")
	for _, k := range keys {
		fmt.Printf("  %s=%d\n", k, byType[k])
	}

	if mv := domain.BuildMap(visible); mv.Centroid != nil {
		fmt.Printf("Centroid: %.6f, %.6f (%d markers)\n", mv.Centroid.Lat, mv.Centroid.Lon, len(mv.Markers))
	}
}

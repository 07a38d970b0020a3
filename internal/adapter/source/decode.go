package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte("PK\x03\x04")

	// ErrEmptyTable is returned when a payload has no header row.
	ErrEmptyTable = errors.New("table has no header row")
)

// DecodeTable parses a fetched payload as CSV (comma, semicolon or tab
// delimited) or, for zip-based payloads, as an XLSX workbook. Rows are padded
// or truncated to the header width.
func DecodeTable(p domain.Payload) (domain.Table, error) {
	if looksLikeHTML(p) {
		return domain.Table{}, errors.New("source returned an HTML page instead of tabular data")
	}

	var (
		records [][]string
		err     error
	)
	if isXLSX(p) {
		records, err = readXLSX(p.Data)
	} else {
		records, err = readCSV(p.Data)
	}
	if err != nil {
		return domain.Table{}, err
	}
	return toTable(records)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyTable
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toTable(records [][]string) (domain.Table, error) {
	if len(records) == 0 {
		return domain.Table{}, ErrEmptyTable
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) == 0 {
		return domain.Table{}, ErrEmptyTable
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}
	return domain.Table{Columns: header, Rows: rows}, nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the header
// line, ignoring quoted text. Ties favor the comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case c == ',' || c == ';' || c == '\t':
			counts[c]++
		}
	}

	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func isXLSX(p domain.Payload) bool {
	if strings.HasPrefix(p.ContentType, xlsxContentType) {
		return true
	}
	return bytes.HasPrefix(p.Data, zipMagic)
}

func looksLikeHTML(p domain.Payload) bool {
	if strings.HasPrefix(p.ContentType, "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(p.Data, utf8BOM)))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

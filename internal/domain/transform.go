package domain

import (
	"errors"
	"strings"
)

// ParseTable turns a decoded table into a validated Snapshot. It drops rows
// that are blank in every cell, resolves the canonical schema and builds one
// Report per remaining row. Rows failing the non-empty field invariant are
// collected in Diagnostics.Rejected.
//
// A MissingFieldsError is returned, with no partial snapshot, when a
// required field does not resolve.
func ParseTable(source string, table Table) (Snapshot, error) {
	schema, err := ResolveSchema(table.Columns)
	if err != nil {
		var mf *MissingFieldsError
		if errors.As(err, &mf) {
			mf.Source = source
		}
		return Snapshot{}, err
	}

	diag := Diagnostics{
		TotalRows: len(table.Rows),
		Columns:   schema.Names(),
		Rejected:  []RecordRejected{},
	}
	reports := make([]Report, 0, len(table.Rows))

	for i, row := range table.Rows {
		if isBlankRow(row) {
			diag.EmptyRows++
			continue
		}
		report, rejected := ParseRow(i, row, schema)
		if rejected != nil {
			diag.Rejected = append(diag.Rejected, *rejected)
			continue
		}
		if report.HasCoordinates() {
			diag.WithCoordinates++
		}
		reports = append(reports, report)
	}
	diag.Accepted = len(reports)

	return Snapshot{
		Source:      source,
		Reports:     reports,
		Diagnostics: diag,
		LoadedAt:    clock.Now(),
	}, nil
}

// ParseRow builds the Report for data row index i. It returns a non-nil
// RecordRejected when type, neighborhood or description are blank.
func ParseRow(i int, row []string, schema Schema) (Report, *RecordRejected) {
	r := Report{
		ID:           i,
		Type:         schema.cell(row, FieldType),
		Neighborhood: schema.cell(row, FieldNeighborhood),
		ReporterName: schema.cell(row, FieldReporterName),
		Description:  schema.cell(row, FieldDescription),
		SubmittedAt:  ParseTimestamp(schema.cell(row, FieldSubmittedAt)),
		Geo:          parseGeo(schema.cell(row, FieldLatitude), schema.cell(row, FieldLongitude)),
		PhotoURL:     NormalizeURL(schema.cell(row, FieldPhotoURL)),
		Visible:      parseVisible(schema.cell(row, FieldVisible)),
	}

	var blank []Field
	if r.Type == "" {
		blank = append(blank, FieldType)
	}
	if r.Neighborhood == "" {
		blank = append(blank, FieldNeighborhood)
	}
	if r.Description == "" {
		blank = append(blank, FieldDescription)
	}
	if len(blank) > 0 {
		// Header is line 1, first data row is line 2.
		return Report{}, &RecordRejected{Line: i + 2, Fields: blank}
	}

	if r.ReporterName == "" {
		r.ReporterName = AnonymousReporter
	}
	if r.Geo != nil {
		r.GeoSource = GeoSourceOriginal
	}
	return r, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Package domain models civic complaint ("denúncia") reports collected through
// field survey forms and exported as spreadsheets.
//
// # Data Source
//
// Reports originate from a survey form export (KoboToolbox style), either a
// local CSV/XLSX file or a remote spreadsheet export served over HTTP. Each
// row is one submission. Header spelling drifts between exports: accents,
// casing and prefixes vary ("Tipo de Denúncia", "tipo_denuncia",
// "_Coordenadas_latitude").
//
// # Source Data Conventions
//
// Column resolution:
//
//	Headers are folded (lower-case, diacritics stripped) and matched by
//	substring against an ordered synonym list per canonical field.
//	Fields resolve in declaration order; a column claimed by an earlier
//	field is never reused, so "Breve relato" cannot satisfy the "lat"
//	synonym once description has claimed it.
//
// Coordinate format:
//
//	Degrees as decimal strings, frequently with a comma decimal separator,
//	e.g. "-5,196" = -5.196. The first comma becomes a dot; anything that
//	still fails to parse is treated as absent, never as an error.
//	Latitude and longitude are kept as an atomic pair: a row with only one
//	usable value has no coordinates at all.
//
// Submission time:
//
//	Usually "2006-01-02T15:04:05.000" from the form server, sometimes a
//	Brazilian "02/01/2006 15:04" typed by hand. Unparseable values are kept
//	verbatim for display.
//
// Photo links:
//
//	Only values starting with "http://" or "https://" are kept. Attachment
//	file names and other junk are dropped.
//
// Visibility ("Postar?" column):
//
//	"sim"/"yes"/"true"/"1" publish the row, "não"/"no"/"false"/"0" hide
//	it. Blank values and a missing column default to visible.
//
// # Validation
//
// Rows that are blank in every cell are skipped silently. Rows with a blank
// type, neighborhood or description are rejected and reported in the load
// diagnostics with their spreadsheet line number (the header is line 1).
package domain

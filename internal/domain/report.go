package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Field is a canonical semantic column, independent of source header spelling.
type Field string

const (
	FieldType         Field = "type"
	FieldNeighborhood Field = "neighborhood"
	FieldReporterName Field = "reporterName"
	FieldDescription  Field = "description"
	FieldSubmittedAt  Field = "submittedAt"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
	FieldPhotoURL     Field = "photoUrl"
	FieldVisible      Field = "visible"
)

// AnonymousReporter is displayed when a submission carries no reporter name.
const AnonymousReporter = "N/A"

// Geo sources recorded on a report.
const (
	GeoSourceOriginal = "original"
	GeoSourceForward  = "forward"
	GeoSourceFailed   = "failed"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite and inside WGS-84 bounds.
func (g Geo) Valid() bool {
	if math.IsNaN(g.Lat) || math.IsNaN(g.Lon) || math.IsInf(g.Lat, 0) || math.IsInf(g.Lon, 0) {
		return false
	}
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// Timestamp is a submission time that keeps the raw source text when the
// value could not be parsed.
type Timestamp struct {
	Raw  string
	Time time.Time
}

// Parsed reports whether Raw matched a known layout.
func (t Timestamp) Parsed() bool { return !t.Time.IsZero() }

// IsZero reports whether the source cell was blank.
func (t Timestamp) IsZero() bool { return t.Raw == "" }

// String renders the timestamp for display: "02/01/2006 15:04" when parsed,
// the raw text otherwise.
func (t Timestamp) String() string {
	if t.Parsed() {
		return t.Time.Format("02/01/2006 15:04")
	}
	return t.Raw
}

// MarshalJSON emits RFC 3339 for parsed values, the raw string otherwise and
// null for blanks.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.IsZero():
		return []byte("null"), nil
	case t.Parsed():
		return json.Marshal(t.Time.Format(time.RFC3339))
	default:
		return json.Marshal(t.Raw)
	}
}

// UnmarshalJSON accepts the forms written by MarshalJSON. Strings go through
// ParseTimestamp, so Raw holds the encoded text rather than the source cell.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*t = Timestamp{}
		return nil
	}
	*t = ParseTimestamp(*s)
	return nil
}

// Report is one normalized civic complaint row. Reports are immutable once
// loaded; filtering and selection only choose among them.
type Report struct {
	// ID is the 0-based data row index in the source table. It is only
	// meaningful within the snapshot the report came from.
	ID           int       `json:"id"`
	Type         string    `json:"type"`
	Neighborhood string    `json:"neighborhood"`
	ReporterName string    `json:"reporter_name"`
	Description  string    `json:"description"`
	SubmittedAt  Timestamp `json:"submitted_at"`
	Geo          *Geo      `json:"geo,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Visible      bool      `json:"visible"`
	GeoSource    string    `json:"geo_source,omitempty"`
}

// HasCoordinates reports whether the report carries a usable coordinate pair.
func (r Report) HasCoordinates() bool { return r.Geo != nil }

// Table is a decoded tabular source: a header row plus data rows. Rows are
// padded to len(Columns) by the decoders.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Payload is the raw body of a fetched source.
type Payload struct {
	Location    string    `json:"location"`
	Data        []byte    `json:"data"`
	ContentType string    `json:"content_type,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Diagnostics summarizes how a table turned into a validated collection.
type Diagnostics struct {
	TotalRows       int              `json:"total_rows"`
	EmptyRows       int              `json:"empty_rows"`
	Accepted        int              `json:"accepted"`
	WithCoordinates int              `json:"with_coordinates"`
	Geocoded        int              `json:"geocoded"`
	Rejected        []RecordRejected `json:"rejected"`
	Columns         map[Field]string `json:"columns"`
	FromCache       bool             `json:"from_cache"`
}

// Snapshot is the validated collection produced by one successful load.
// A reload replaces it wholesale.
type Snapshot struct {
	Source      string      `json:"source"`
	Reports     []Report    `json:"reports"`
	Diagnostics Diagnostics `json:"diagnostics"`
	LoadedAt    time.Time   `json:"loaded_at"`
}

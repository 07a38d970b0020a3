package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02/01/2006",
}

// ParseLocaleNumber parses a decimal that may use a comma as the decimal
// separator, e.g. "-5,196" -> -5.196. Only the first comma is replaced.
// The second return value is false for blanks, garbage and non-finite values.
func ParseLocaleNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeURL trims raw and keeps it only if it uses the http or https
// scheme (case-sensitive). Anything else yields "".
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return ""
}

// ParseTimestamp tries the known submission time layouts. It never fails:
// unparseable input is kept in Raw with a zero Time.
func ParseTimestamp(raw string) Timestamp {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Raw: s, Time: t}
		}
	}
	return Timestamp{Raw: s}
}

// parseVisible interprets the publish flag column. Blank and unknown values
// default to visible.
func parseVisible(raw string) bool {
	switch FoldHeader(strings.TrimSpace(raw)) {
	case "nao", "n", "no", "false", "0", "f":
		return false
	default:
		return true
	}
}

// parseGeo keeps the coordinate pair only when both halves are usable.
func parseGeo(latRaw, lonRaw string) *Geo {
	lat, okLat := ParseLocaleNumber(latRaw)
	lon, okLon := ParseLocaleNumber(lonRaw)
	if !okLat || !okLon {
		return nil
	}
	g := Geo{Lat: lat, Lon: lon}
	if !g.Valid() {
		return nil
	}
	return &g
}

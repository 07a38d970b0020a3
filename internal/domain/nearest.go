package domain

import "github.com/golang/geo/s2"

// earthRadiusMeters is the IUGG mean Earth radius.
const earthRadiusMeters = 6371008.8

// Match is the report closest to a click point.
type Match struct {
	Report         Report  `json:"report"`
	DistanceMeters float64 `json:"distance_meters"`
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Geo) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lon)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return pa.Distance(pb).Radians() * earthRadiusMeters
}

// Nearest returns the candidate with coordinates closest to click. Exact ties
// keep the earliest candidate. ok is false when no candidate has coordinates.
func Nearest(candidates []Report, click Geo) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, r := range candidates {
		if r.Geo == nil {
			continue
		}
		d := DistanceMeters(click, *r.Geo)
		if !found || d < best.DistanceMeters {
			best = Match{Report: r, DistanceMeters: d}
			found = true
		}
	}
	return best, found
}

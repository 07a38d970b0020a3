package domain

// Summary is the display projection of a report used by the table and the
// marker popups.
type Summary struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Neighborhood string `json:"neighborhood"`
	Description  string `json:"description"`
	SubmittedAt  string `json:"submitted_at"`
}

// Summary projects r to its display fields.
func (r Report) Summary() Summary {
	return Summary{
		Name:         r.ReporterName,
		Type:         r.Type,
		Neighborhood: r.Neighborhood,
		Description:  r.Description,
		SubmittedAt:  r.SubmittedAt.String(),
	}
}

// Marker is a map-renderable projection of a report with coordinates.
type Marker struct {
	ReportID int     `json:"report_id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Summary  Summary `json:"summary"`
	PhotoURL string  `json:"photo_url,omitempty"`
}

// MapView is the output of BuildMap. A nil Centroid means no report had
// coordinates and the caller must fall back to its default view.
type MapView struct {
	Centroid *Geo     `json:"centroid"`
	Markers  []Marker `json:"markers"`
}

// BuildMap creates one marker per report with a coordinate pair, in input
// order, and the arithmetic mean of their coordinates.
func BuildMap(reports []Report) MapView {
	markers := make([]Marker, 0, len(reports))
	var sumLat, sumLon float64

	for _, r := range reports {
		if r.Geo == nil {
			continue
		}
		sumLat += r.Geo.Lat
		sumLon += r.Geo.Lon
		markers = append(markers, Marker{
			ReportID: r.ID,
			Lat:      r.Geo.Lat,
			Lon:      r.Geo.Lon,
			Summary:  r.Summary(),
			PhotoURL: r.PhotoURL,
		})
	}

	view := MapView{Markers: markers}
	if n := float64(len(markers)); n > 0 {
		view.Centroid = &Geo{Lat: sumLat / n, Lon: sumLon / n}
	}
	return view
}

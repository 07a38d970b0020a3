package session

import (
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
)

// View is the render-ready state of a session. Table and Map are always
// derived from the same filtered collection.
type View struct {
	SessionID   string              `json:"session_id"`
	Source      string              `json:"source"`
	Loaded      bool                `json:"loaded"`
	LoadedAt    *time.Time          `json:"loaded_at"`
	Table       []TableRow          `json:"table"`
	Map         MapState            `json:"map"`
	Options     domain.Options      `json:"options"`
	Filters     domain.Predicates   `json:"filters"`
	Selection   *domain.Match       `json:"selection"`
	Diagnostics *domain.Diagnostics `json:"diagnostics"`
}

// TableRow is one line of the tabular view.
type TableRow struct {
	ReportID int `json:"report_id"`
	domain.Summary
}

// MapState is the map portion of a view. DefaultView is true when no
// filtered report had coordinates and Center is the configured fallback.
type MapState struct {
	Center      domain.Geo      `json:"center"`
	Zoom        int             `json:"zoom"`
	DefaultView bool            `json:"default_view"`
	Markers     []domain.Marker `json:"markers"`
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID: s.id,
		Source:    s.source,
		Table:     make([]TableRow, 0, len(s.filtered)),
		Filters:   s.predicates,
		Options:   domain.Options{Types: []string{domain.AllSentinel}, Neighborhoods: []string{domain.AllSentinel}},
	}

	for _, r := range s.filtered {
		v.Table = append(v.Table, TableRow{ReportID: r.ID, Summary: r.Summary()})
	}

	mv := domain.BuildMap(s.filtered)
	v.Map = MapState{Center: s.defaults.Center, Zoom: s.defaults.Zoom, DefaultView: true, Markers: mv.Markers}
	if mv.Centroid != nil {
		v.Map.Center = *mv.Centroid
		v.Map.DefaultView = false
	}

	if s.snapshot != nil {
		loadedAt := s.snapshot.LoadedAt
		diag := s.snapshot.Diagnostics
		v.Loaded = true
		v.LoadedAt = &loadedAt
		v.Diagnostics = &diag
		// Options only offer values that can produce a non-empty table.
		offered := domain.ApplyFilters(s.snapshot.Reports, domain.Predicates{VisibleOnly: s.predicates.VisibleOnly})
		v.Options = domain.FilterOptions(offered)
	}
	if s.selection != nil {
		sel := *s.selection
		v.Selection = &sel
	}
	return v
}

package domain

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllSentinel is the "no filter" value offered first in filter options.
const AllSentinel = "All"

// Predicates is the filter set applied to a validated collection. All
// predicates are combined with AND.
type Predicates struct {
	Type         string `json:"type"`
	Neighborhood string `json:"neighborhood"`
	VisibleOnly  bool   `json:"visible_only"`
}

// DefaultPredicates shows every published report.
func DefaultPredicates() Predicates {
	return Predicates{Type: AllSentinel, Neighborhood: AllSentinel, VisibleOnly: true}
}

// IsNoFilter reports whether v disables a category predicate: blank, "All"
// or the Portuguese "Todos".
func IsNoFilter(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllSentinel) || strings.EqualFold(v, "Todos")
}

// Matches reports whether r passes every predicate in p.
func (p Predicates) Matches(r Report) bool {
	if p.VisibleOnly && !r.Visible {
		return false
	}
	if !IsNoFilter(p.Type) && r.Type != p.Type {
		return false
	}
	if !IsNoFilter(p.Neighborhood) && r.Neighborhood != p.Neighborhood {
		return false
	}
	return true
}

// ApplyFilters returns the reports matching p in their original relative
// order. The input slice is never modified.
func ApplyFilters(reports []Report, p Predicates) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if p.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Options lists the values offered by the category selectors.
type Options struct {
	Types         []string `json:"types"`
	Neighborhoods []string `json:"neighborhoods"`
}

// FilterOptions returns the distinct types and neighborhoods of reports,
// sorted with Brazilian Portuguese collation and prefixed by AllSentinel.
func FilterOptions(reports []Report) Options {
	types := make(map[string]struct{})
	hoods := make(map[string]struct{})
	for _, r := range reports {
		types[r.Type] = struct{}{}
		hoods[r.Neighborhood] = struct{}{}
	}
	return Options{
		Types:         sortedWithSentinel(types),
		Neighborhoods: sortedWithSentinel(hoods),
	}
}

func sortedWithSentinel(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	collate.New(language.BrazilianPortuguese).SortStrings(values)
	return append([]string{AllSentinel}, values...)
}

package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type fieldSpec struct {
	field    Field
	required bool
	// synonyms are folded (lower-case, no diacritics) and tried in order.
	synonyms []string
}

// canonicalFields is also the resolution order: earlier fields claim their
// column first.
var canonicalFields = []fieldSpec{
	{FieldType, true, []string{"tipo de denuncia", "tipo", "categoria", "denuncia", "type", "category"}},
	{FieldNeighborhood, true, []string{"bairro", "neighborhood", "neighbourhood", "localidade", "comunidade"}},
	{FieldReporterName, true, []string{"nome", "name", "denunciante", "reporter"}},
	{FieldDescription, true, []string{"relato", "descricao", "description", "ocorrencia", "detalhe"}},
	{FieldSubmittedAt, true, []string{"submission_time", "submitted_at", "data", "date", "timestamp"}},
	{FieldLatitude, false, []string{"latitude", "lat"}},
	{FieldLongitude, false, []string{"longitude", "lon", "lng"}},
	{FieldPhotoURL, false, []string{"foto_url", "photo_url", "url_foto", "imagem_url", "image_url", "foto", "photo", "imagem", "image"}},
	{FieldVisible, false, []string{"postar", "publicar", "exibir", "visivel", "visible", "display"}},
}

// FoldHeader lower-cases s and strips diacritics: "Tipo de Denúncia" ->
// "tipo de denuncia".
func FoldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Synonyms returns the ordered match keys for a canonical field, or nil for
// unknown fields.
func Synonyms(f Field) []string {
	for _, spec := range canonicalFields {
		if spec.field == f {
			return spec.synonyms
		}
	}
	return nil
}

// ResolveColumn finds the source column for key. A canonical field name uses
// its synonym list; any other key is matched as-is. Matching is a folded
// substring test, synonyms in declaration order, columns in source order;
// the first hit wins.
func ResolveColumn(columns []string, key string) (string, bool) {
	keys := Synonyms(Field(key))
	if keys == nil {
		keys = []string{FoldHeader(key)}
	}
	idx := matchColumn(foldAll(columns), keys, nil)
	if idx < 0 {
		return "", false
	}
	return columns[idx], true
}

// Schema maps canonical fields to column indexes of one table. It is built
// once per load; downstream code never sees raw header names.
type Schema struct {
	index map[Field]int
	names map[Field]string
}

// ResolveSchema resolves every canonical field against the header. Fields are
// resolved in declaration order and a column is bound to at most one field.
// Unresolved required fields produce a MissingFieldsError.
func ResolveSchema(columns []string) (Schema, error) {
	folded := foldAll(columns)
	claimed := make(map[int]bool, len(columns))
	s := Schema{
		index: make(map[Field]int, len(canonicalFields)),
		names: make(map[Field]string, len(canonicalFields)),
	}

	var missing []Field
	for _, spec := range canonicalFields {
		idx := matchColumn(folded, spec.synonyms, claimed)
		if idx < 0 {
			if spec.required {
				missing = append(missing, spec.field)
			}
			continue
		}
		claimed[idx] = true
		s.index[spec.field] = idx
		s.names[spec.field] = columns[idx]
	}

	if len(missing) > 0 {
		return Schema{}, &MissingFieldsError{Fields: missing}
	}
	return s, nil
}

// Column returns the column index bound to f.
func (s Schema) Column(f Field) (int, bool) {
	idx, ok := s.index[f]
	return idx, ok
}

// Names returns the resolved header for each bound field.
func (s Schema) Names() map[Field]string {
	out := make(map[Field]string, len(s.names))
	for f, n := range s.names {
		out[f] = n
	}
	return out
}

// cell returns the trimmed value of f in row, or "" when f is unbound.
func (s Schema) cell(row []string, f Field) string {
	idx, ok := s.index[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func matchColumn(folded, keys []string, claimed map[int]bool) int {
	for _, key := range keys {
		for i, col := range folded {
			if claimed[i] {
				continue
			}
			if strings.Contains(col, key) {
				return i
			}
		}
	}
	return -1
}

func foldAll(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = FoldHeader(c)
	}
	return out
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// koboHeader is the header of the form export the service was built for.
var koboHeader = []string{
	"start", "Tipo de Denúncia", "Bairro", "Nome", "Breve relato",
	"_Coordenadas_latitude", "_Coordenadas_longitude", "Foto_URL", "Postar?",
	"_id", "_submission_time",
}

func TestFoldHeader(t *testing.T) {
	assert.Equal(t, "tipo de denuncia", FoldHeader("Tipo de Denúncia"))
	assert.Equal(t, "descricao", FoldHeader("  DESCRIÇÃO "))
	assert.Equal(t, "_submission_time", FoldHeader("_submission_time"))
}

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		key     string
		want    string
		wantOK  bool
	}{
		{"accent and case insensitive", koboHeader, "type", "Tipo de Denúncia", true},
		{"prefixed coordinate column", koboHeader, "latitude", "_Coordenadas_latitude", true},
		{"plain key substring", []string{"ID", "Bairro do fato"}, "bairro", "Bairro do fato", true},
		{"first column wins for a plain key", []string{"bairro_a", "bairro_b"}, "bairro", "bairro_a", true},
		{"synonym order beats column order", []string{"Denúncia", "Tipo"}, "type", "Tipo", true},
		{"accented synonym in header", []string{"Descrição"}, "description", "Descrição", true},
		{"not found", []string{"a", "b"}, "neighborhood", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveColumn(tt.columns, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSchema_KoboHeader(t *testing.T) {
	s, err := ResolveSchema(koboHeader)
	require.NoError(t, err)

	assert.Equal(t, map[Field]string{
		FieldType:         "Tipo de Denúncia",
		FieldNeighborhood: "Bairro",
		FieldReporterName: "Nome",
		FieldDescription:  "Breve relato",
		FieldSubmittedAt:  "_submission_time",
		FieldLatitude:     "_Coordenadas_latitude",
		FieldLongitude:    "_Coordenadas_longitude",
		FieldPhotoURL:     "Foto_URL",
		FieldVisible:      "Postar?",
	}, s.Names())
}

func TestResolveSchema_ClaimedColumnNotReused(t *testing.T) {
	// Without claiming, "Breve relato" would also satisfy the "lat" synonym.
	s, err := ResolveSchema([]string{"Tipo", "Bairro", "Nome", "Breve relato", "Data"})
	require.NoError(t, err)

	_, ok := s.Column(FieldLatitude)
	assert.False(t, ok)
	idx, ok := s.Column(FieldDescription)
	require.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestResolveSchema_PhotoURLBeatsAttachmentColumn(t *testing.T) {
	s, err := ResolveSchema([]string{
		"Tipo de Denúncia", "Bairro", "Nome", "Breve relato", "_submission_time", "Foto", "Foto_URL",
	})
	require.NoError(t, err)

	idx, ok := s.Column(FieldPhotoURL)
	require.True(t, ok)
	assert.Equal(t, 6, idx)
}

func TestParseTable_KoboPhotoColumns(t *testing.T) {
	table := Table{
		Columns: []string{"Tipo de Denúncia", "Bairro", "Nome", "Breve relato", "_submission_time", "Foto", "Foto_URL"},
		Rows: [][]string{
			{"Obra", "Centro", "Ana", "Obra parada", "2024-03-01T10:15:00.000", "1712345.jpg", "https://kc.kobo.org/media/1712345.jpg"},
		},
	}

	snap, err := ParseTable("kobo.csv", table)
	require.NoError(t, err)
	require.Len(t, snap.Reports, 1)
	assert.Equal(t, "https://kc.kobo.org/media/1712345.jpg", snap.Reports[0].PhotoURL)
	assert.Equal(t, "Foto_URL", snap.Diagnostics.Columns[FieldPhotoURL])
}

func TestResolveSchema_MissingNeighborhood(t *testing.T) {
	_, err := ResolveSchema([]string{"Tipo de Denúncia", "Nome", "Breve relato", "_submission_time"})
	require.Error(t, err)

	var mf *MissingFieldsError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, []Field{FieldNeighborhood}, mf.Fields)
	assert.True(t, mf.Has(FieldNeighborhood))
	assert.Contains(t, err.Error(), "neighborhood")
}

func TestResolveSchema_OptionalFieldsMayBeAbsent(t *testing.T) {
	s, err := ResolveSchema([]string{"type", "neighborhood", "name", "description", "date"})
	require.NoError(t, err)

	for _, f := range []Field{FieldLatitude, FieldLongitude, FieldPhotoURL, FieldVisible} {
		_, ok := s.Column(f)
		assert.False(t, ok, f)
	}
}

func TestResolveSchema_ReportsAllMissing(t *testing.T) {
	_, err := ResolveSchema([]string{"foo"})

	var mf *MissingFieldsError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, []Field{FieldType, FieldNeighborhood, FieldReporterName, FieldDescription, FieldSubmittedAt}, mf.Fields)
}

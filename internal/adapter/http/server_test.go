package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/denuncia-map-service/internal/adapter/http"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
	"github.com/couchcryptid/denuncia-map-service/internal/pipeline"
	"github.com/couchcryptid/denuncia-map-service/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockLoader struct {
	snap domain.Snapshot
	err  error
}

func (m *mockLoader) Load(_ context.Context, _ string, _ pipeline.LoadOptions) (domain.Snapshot, error) {
	if m.err != nil {
		return domain.Snapshot{}, m.err
	}
	return m.snap, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Source: "fiscaliza.csv",
		Reports: []domain.Report{
			{ID: 0, Type: "Obra", Neighborhood: "Centro", ReporterName: "Ana", Description: "Rua interditada", Visible: true, Geo: &domain.Geo{Lat: -5.2, Lon: -39.3}},
			{ID: 1, Type: "Denúncia", Neighborhood: "Alto Alegre", ReporterName: domain.AnonymousReporter, Description: "Entulho", Visible: true},
		},
		Diagnostics: domain.Diagnostics{TotalRows: 2, Accepted: 2, WithCoordinates: 1, Rejected: []domain.RecordRejected{}},
		LoadedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestServer(readyErr error, loader *mockLoader) *httpadapter.Server {
	mgr := session.NewManager(session.ManagerConfig{
		Source:      "fiscaliza.csv",
		Loader:      loader,
		Defaults:    session.MapDefaults{Center: domain.Geo{Lat: -5.199, Lon: -39.2927}, Zoom: 12},
		IdleTimeout: time.Hour,
		Logger:      discardLogger(),
		Metrics:     observability.NewUnregisteredMetrics(),
	})
	return httpadapter.NewServer(":0", 30*time.Second, &mockReadiness{err: readyErr}, mgr, discardLogger())
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func createSession(t *testing.T, srv http.Handler) session.View {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type errorBody struct {
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
	Fields []string        `json:"fields"`
	View   json.RawMessage `json:"view"`
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{})
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{})
	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"), &mockLoader{})
	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{})
	rec := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{snap: sampleSnapshot()})
	v := createSession(t, srv)

	assert.NotEmpty(t, v.SessionID)
	assert.True(t, v.Loaded)
	require.Len(t, v.Table, 2)
	assert.Equal(t, "Ana", v.Table[0].Name)
	require.Len(t, v.Map.Markers, 1)
	assert.False(t, v.Map.DefaultView)
	assert.Equal(t, []string{domain.AllSentinel, "Denúncia", "Obra"}, v.Options.Types)
}

func TestCreateSession_MissingFields(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{err: &domain.MissingFieldsError{
		Source: "fiscaliza.csv",
		Fields: []domain.Field{domain.FieldNeighborhood},
	}})
	rec := do(t, srv, http.MethodPost, "/api/sessions", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing_fields", body.Kind)
	assert.Equal(t, []string{"neighborhood"}, body.Fields)
	assert.Contains(t, body.Error, "neighborhood")
	assert.NotEmpty(t, body.View, "session id is returned so the client can retry")
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{snap: sampleSnapshot()})
	id := createSession(t, srv).SessionID
	base := "/api/sessions/" + id

	rec := do(t, srv, http.MethodPut, base+"/filters", `{"type":"Obra","neighborhood":"All"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var v session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.Len(t, v.Table, 1)
	assert.Equal(t, "Obra", v.Filters.Type)
	assert.True(t, v.Filters.VisibleOnly)

	rec = do(t, srv, http.MethodPost, base+"/select", `{"lat":-5.2001,"lon":-39.3001}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.NotNil(t, v.Selection)
	assert.Equal(t, 0, v.Selection.Report.ID)
	assert.Less(t, v.Selection.DistanceMeters, 20.0)

	rec = do(t, srv, http.MethodDelete, base+"/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Nil(t, v.Selection)

	rec = do(t, srv, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadFailureRetainsView(t *testing.T) {
	loader := &mockLoader{snap: sampleSnapshot()}
	srv := newTestServer(nil, loader)
	id := createSession(t, srv).SessionID

	loader.err = &domain.SourceUnavailableError{Source: "fiscaliza.csv", Err: errors.New("connection reset")}
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/reload", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "source_unavailable", body.Kind)

	var v session.View
	require.NoError(t, json.Unmarshal(body.View, &v))
	assert.True(t, v.Loaded)
	assert.Len(t, v.Table, 2)
}

func TestReloadTimeoutMapsTo504(t *testing.T) {
	loader := &mockLoader{snap: sampleSnapshot()}
	srv := newTestServer(nil, loader)
	id := createSession(t, srv).SessionID

	loader.err = &domain.SourceUnavailableError{Source: "x", Err: fmt.Errorf("fetch request: %w", context.DeadlineExceeded)}
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/reload", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{snap: sampleSnapshot()})
	base := "/api/sessions/" + createSession(t, srv).SessionID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed filters", http.MethodPut, base + "/filters", `{"type":`},
		{"unknown filter field", http.MethodPut, base + "/filters", `{"bairro":"Centro"}`},
		{"missing lon", http.MethodPost, base + "/select", `{"lat":-5.2}`},
		{"out of range", http.MethodPost, base + "/select", `{"lat":123,"lon":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(nil, &mockLoader{snap: sampleSnapshot()})
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/reload"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "reload") {
			method = http.MethodPost
		}
		rec := do(t, srv, method, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := do(t, srv, http.MethodDelete, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

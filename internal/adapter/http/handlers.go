package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/session"
)

const maxBodyBytes = 1 << 20

type filtersRequest struct {
	Type         string `json:"type"`
	Neighborhood string `json:"neighborhood"`
	VisibleOnly  *bool  `json:"visible_only"`
}

type selectRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// errorResponse carries the failure plus, when a session exists, the view
// that remains current so clients never render a half-updated state.
type errorResponse struct {
	Error  string         `json:"error"`
	Kind   string         `json:"kind"`
	Source string         `json:"source,omitempty"`
	Fields []domain.Field `json:"fields,omitempty"`
	View   *session.View  `json:"view,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err, sess)
		return
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req filtersRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err, sess)
		return
	}
	p := domain.Predicates{Type: req.Type, Neighborhood: req.Neighborhood, VisibleOnly: true}
	if req.VisibleOnly != nil {
		p.VisibleOnly = *req.VisibleOnly
	}
	sess.SetFilters(p)
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Reload(r.Context(), true); err != nil {
		s.writeError(w, r, err, sess)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err, sess)
		return
	}
	if req.Lat == nil || req.Lon == nil {
		s.writeError(w, r, errBadRequest{errors.New("lat and lon are required")}, sess)
		return
	}
	if _, _, err := sess.Select(domain.Geo{Lat: *req.Lat, Lon: *req.Lon}); err != nil {
		s.writeError(w, r, err, sess)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.ClearSelection()
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.End(r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found", Kind: "not_found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) withSession(h func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r.PathValue("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found", Kind: "not_found"})
			return
		}
		h(w, r, sess)
	}
}

// writeError maps err to a status code and attaches the retained view of
// sess when there is one.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, sess *session.Session) {
	status, resp := classify(err)
	if sess != nil {
		v := sess.View()
		resp.View = &v
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}

	var (
		mf  *domain.MissingFieldsError
		su  *domain.SourceUnavailableError
		bad errBadRequest
	)
	switch {
	case errors.As(err, &mf):
		resp.Kind = "missing_fields"
		resp.Source = mf.Source
		resp.Fields = mf.Fields
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &su):
		resp.Kind = "source_unavailable"
		resp.Source = su.Source
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, resp
		}
		return http.StatusBadGateway, resp
	case errors.Is(err, session.ErrInvalidPoint), errors.As(err, &bad):
		resp.Kind = "bad_request"
		return http.StatusBadRequest, resp
	default:
		resp.Kind = "internal"
		return http.StatusInternalServerError, resp
	}
}

type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest{err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

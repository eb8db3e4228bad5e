package httpadapter

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type reportRequest struct {
	Type      string   `json:"type"`
	Desc      string   `json:"desc"`
	Severity  string   `json:"severity"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Timestamp string   `json:"timestamp"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.store.LoadAll(r.Context()))
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	report := domain.NewReport(req.Type, req.Desc, req.Severity, *req.Lat, *req.Lng, req.Timestamp)
	stored, err := s.store.Append(r.Context(), report)
	if errors.Is(err, domain.ErrInvalidReport) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		loggerFrom(r.Context()).Error("append report", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store report")
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, stored)
}

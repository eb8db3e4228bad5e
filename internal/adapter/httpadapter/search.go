package httpadapter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 10
)

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if s.geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "location search is disabled")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	places, err := s.geocoder.Search(r.Context(), q, limit)
	if err != nil {
		loggerFrom(r.Context()).Warn("location search failed", "query", q, "error", err)
		writeError(w, http.StatusBadGateway, "location search failed")
		return
	}
	if places == nil {
		places = []domain.Place{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, places)
}

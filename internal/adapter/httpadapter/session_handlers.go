package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/mapview"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
)

const defaultRecent = 10

type snapshot struct {
	ID       string            `json:"id"`
	Center   domain.LatLng     `json:"center"`
	Zoom     int               `json:"zoom"`
	Theme    string            `json:"theme"`
	State    mapview.PickState `json:"state"`
	Filter   string            `json:"filter"`
	Pending  *domain.LatLng    `json:"pending,omitempty"`
	User     *domain.LatLng    `json:"user,omitempty"`
	Markers  []mapview.Marker  `json:"markers"`
	Messages []mapview.Message `json:"messages"`
}

func snapshotOf(id string, v *mapview.View) snapshot {
	center, zoom := v.Center()
	snap := snapshot{
		ID:       id,
		Center:   center,
		Zoom:     zoom,
		Theme:    v.Theme(),
		State:    v.State(),
		Filter:   v.CurrentFilter(),
		Markers:  v.Markers(),
		Messages: v.Messages(),
	}
	if p, ok := v.Pending(); ok {
		snap.Pending = &p
	}
	if u, ok := v.UserLocation(); ok {
		snap.User = &u
	}
	return snap
}

// withView runs fn on the session named in the URL and writes its result.
// fn returns the status and body to write.
func (s *Server) withView(w http.ResponseWriter, r *http.Request, fn func(id string, v *mapview.View) (int, any)) {
	s.withSession(w, r, chi.URLParam(r, "id"), fn)
}

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, id string, fn func(id string, v *mapview.View) (int, any)) {
	var (
		status int
		body   any
	)
	err := s.sessions.With(id, func(v *mapview.View) error {
		status, body = fn(id, v)
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	sharedobs.WriteJSON(w, status, body)
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := mapview.New()
	v.SetTheme(s.store.Theme(ctx))
	v.Load(s.store.LoadAll(ctx))
	id := s.sessions.Open(v)
	loggerFrom(ctx).Debug("session opened", "session", id)

	s.withSession(w, r, id, func(id string, v *mapview.View) (int, any) {
		return http.StatusCreated, snapshotOf(id, v)
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(id string, v *mapview.View) (int, any) {
		return http.StatusOK, snapshotOf(id, v)
	})
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Close(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMarkers(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		return http.StatusOK, v.Markers()
	})
}

type filterRequest struct {
	Category string `json:"category"`
}

// setFilter changes the session's category filter and returns the markers
// left visible.
func (s *Server) setFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		if err := v.Filter(req.Category); err != nil {
			return http.StatusBadRequest, errorBody(err)
		}
		return http.StatusOK, v.Markers()
	})
}

func (s *Server) enterReportMode(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(id string, v *mapview.View) (int, any) {
		v.EnterReportMode()
		return http.StatusOK, snapshotOf(id, v)
	})
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	var pos domain.LatLng
	if !decodeJSON(w, r, &pos) {
		return
	}
	s.withView(w, r, func(id string, v *mapview.View) (int, any) {
		captured := v.Click(pos)
		return http.StatusOK, struct {
			Captured bool `json:"captured"`
			snapshot
		}{captured, snapshotOf(id, v)}
	})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var form mapview.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	ctx := r.Context()
	s.withView(w, r, func(id string, v *mapview.View) (int, any) {
		report, h, err := v.Submit(ctx, s.store, form)
		switch {
		case errors.Is(err, mapview.ErrNoLocation):
			s.metrics.BlockedSubmits.Inc()
			return http.StatusConflict, errorBody(err)
		case errors.Is(err, domain.ErrInvalidReport):
			return http.StatusBadRequest, errorBody(err)
		case err != nil:
			loggerFrom(ctx).Error("submit report", "session", id, "error", err)
			return http.StatusInternalServerError, errorBody(err)
		}
		marker, _ := v.Marker(h)
		return http.StatusCreated, struct {
			Report domain.Report  `json:"report"`
			Marker mapview.Marker `json:"marker"`
		}{report, marker}
	})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(id string, v *mapview.View) (int, any) {
		v.Cancel()
		return http.StatusOK, snapshotOf(id, v)
	})
}

// locateRequest is the browser's geolocation outcome: a position, or an
// error code of "denied", "timeout" or "unavailable".
type locateRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

func (l locateRequest) locator() mapview.Locator {
	return mapview.LocatorFunc(func(context.Context) (domain.LatLng, error) {
		switch l.Error {
		case "":
		case "denied":
			return domain.LatLng{}, mapview.ErrPermissionDenied
		case "timeout":
			return domain.LatLng{}, context.DeadlineExceeded
		default:
			return domain.LatLng{}, mapview.ErrPositionUnavailable
		}
		if l.Lat == nil || l.Lng == nil {
			return domain.LatLng{}, mapview.ErrPositionUnavailable
		}
		return domain.LatLng{Lat: *l.Lat, Lng: *l.Lng}, nil
	})
}

func (s *Server) locate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	s.withView(w, r, func(id string, v *mapview.View) (int, any) {
		err := v.Locate(ctx, req.locator(), s.locateTimeout)
		s.metrics.LocateRequests.WithLabelValues(mapview.FailureKind(err)).Inc()
		return http.StatusOK, snapshotOf(id, v)
	})
}

func (s *Server) nearby(w http.ResponseWriter, r *http.Request) {
	radius, err := strconv.ParseFloat(r.URL.Query().Get("distance"), 64)
	if err != nil || radius <= 0 {
		writeError(w, http.StatusBadRequest, "distance must be a positive number of kilometres")
		return
	}
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		found, err := v.Nearby(radius)
		if err != nil {
			return http.StatusConflict, errorBody(err)
		}
		return http.StatusOK, found
	})
}

func (s *Server) nearest(w http.ResponseWriter, r *http.Request) {
	kind := domain.FacilityKind(r.URL.Query().Get("kind"))
	if kind != domain.FacilityPolice && kind != domain.FacilityHospital {
		writeError(w, http.StatusBadRequest, "kind must be police or hospital")
		return
	}
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		f, err := v.Nearest(kind)
		if err != nil {
			return http.StatusConflict, errorBody(err)
		}
		return http.StatusOK, f
	})
}

func (s *Server) recent(w http.ResponseWriter, r *http.Request) {
	n := defaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		n = parsed
	}
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		recent := v.Recent(n)
		if recent == nil {
			recent = []domain.Report{}
		}
		return http.StatusOK, recent
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		return http.StatusOK, v.Stats()
	})
}

func (s *Server) toggleTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		theme := v.ToggleTheme()
		if err := s.store.SetTheme(ctx, theme); err != nil {
			return http.StatusInternalServerError, errorBody(err)
		}
		return http.StatusOK, map[string]string{"theme": theme}
	})
}

func (s *Server) messages(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(_ string, v *mapview.View) (int, any) {
		return http.StatusOK, v.Messages()
	})
}

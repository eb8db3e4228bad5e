package httpadapter

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

var vendorHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"}

// proxyVendor serves mapping library files from the configured CDN through
// the offline cache.
func (s *Server) proxyVendor(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "*")
	if file == "" || strings.Contains(file, "..") {
		http.NotFound(w, r)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.leafletBase+"/"+file, nil)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	resp, err := s.vendor.Do(req)
	if err != nil {
		loggerFrom(r.Context()).Warn("vendor fetch failed", "file", file, "error", err)
		writeError(w, http.StatusBadGateway, "vendor asset unavailable")
		return
	}
	defer resp.Body.Close()

	for _, h := range vendorHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body) //nolint:errcheck // client disconnects are not actionable
}

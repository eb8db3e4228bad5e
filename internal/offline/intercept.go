package offline

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

// Middleware answers GET requests for cached site assets from the cache and
// passes everything else to next unmodified.
func (w *Worker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(rw, r)
			return
		}
		entry, ok := w.Match(r.Context(), r.URL.RequestURI())
		if !ok {
			next.ServeHTTP(rw, r)
			return
		}
		for k, vs := range entry.Header {
			for _, v := range vs {
				rw.Header().Add(k, v)
			}
		}
		rw.WriteHeader(entry.Status)
		rw.Write(entry.Body) //nolint:errcheck // client disconnects are not actionable
	})
}

// Transport returns a RoundTripper that answers cached GET requests from the
// cache and forwards every other request to base.
func (w *Worker) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			return base.RoundTrip(req)
		}
		entry, ok := w.Match(req.Context(), req.URL.String())
		if !ok {
			return base.RoundTrip(req)
		}
		return entryResponse(req, entry), nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func entryResponse(req *http.Request, e Entry) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

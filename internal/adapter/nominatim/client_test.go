package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserAgent     = "safescape-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		userAgent:  testUserAgent,
		metrics:    metrics,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Connaught Place", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[
			{"lat":"28.6315","lon":"77.2167","display_name":"Connaught Place, New Delhi, Delhi, India","name":"Connaught Place","importance":0.62},
			{"lat":"not-a-number","lon":"77.0","display_name":"broken"}
		]`))
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	c := testClient(srv.URL, m)
	places, err := c.Search(context.Background(), "  Connaught Place ", 3)
	require.NoError(t, err)

	require.Len(t, places, 1, "malformed results are skipped")
	assert.Equal(t, 28.6315, places[0].Lat)
	assert.Equal(t, 77.2167, places[0].Lng)
	assert.Equal(t, "Connaught Place, New Delhi, Delhi, India", places[0].Label)
	assert.Equal(t, "Connaught Place", places[0].Name)
	assert.Equal(t, 0.62, places[0].Confidence)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("search", "success")), 0)
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	c := testClient("http://127.0.0.1:0", observability.NewMetricsForTesting())

	_, err := c.Search(context.Background(), "   ", 5)
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClient_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	places, err := testClient(srv.URL, m).Search(context.Background(), "nowhere at all", 5)
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("search", "empty")), 0)
}

func TestClient_Reverse_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "28.613900", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.209000", r.URL.Query().Get("lon"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"lat":"28.6139","lon":"77.2090","display_name":"Janpath, New Delhi, India","name":"Janpath","importance":0.4}`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL, observability.NewMetricsForTesting()).Reverse(context.Background(), 28.6139, 77.2090)
	require.NoError(t, err)

	assert.Equal(t, "Janpath, New Delhi, India", place.Label)
	assert.Equal(t, "Janpath", place.Name)
	assert.Equal(t, 0.4, place.Confidence)
}

func TestClient_Reverse_UnableToGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL, observability.NewMetricsForTesting()).Reverse(context.Background(), 0, -150)
	require.NoError(t, err)
	assert.Empty(t, place.Label)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`access blocked`))
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	_, err := testClient(srv.URL, m).Search(context.Background(), "Delhi", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues("search", "error")), 0)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.Reverse(context.Background(), 28.6, 77.2)
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "ua", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, DefaultBaseURL, c.baseURL)

	c = NewClient("http://localhost:8088/", "ua", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, "http://localhost:8088", c.baseURL)
}

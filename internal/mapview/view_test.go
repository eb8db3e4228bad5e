package mapview

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
	"github.com/couchcryptid/safescape-map-service/internal/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	seedZones      = 5
	seedFacilities = 5
)

func newStore() *reports.Store {
	return reports.NewStore(reports.NewMemoryKV(), slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func countKind(markers []Marker, kind domain.MarkerKind) int {
	n := 0
	for _, m := range markers {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func TestNew_DefaultView(t *testing.T) {
	v := New()

	center, zoom := v.Center()
	assert.Equal(t, DefaultCenter, center)
	assert.Equal(t, DefaultZoom, zoom)
	assert.Equal(t, Idle, v.State())
	assert.Equal(t, FilterAll, v.CurrentFilter())
	assert.Empty(t, v.Markers())
}

func TestLoad_RendersSeedsAndReports(t *testing.T) {
	v := New()
	stored := []domain.Report{
		{Type: domain.TypeDarkArea, Lat: 12.9, Lng: 77.5, Timestamp: "2024-01-01T00:00:00Z"},
		{Type: domain.TypeHarassment, Lat: 19.0, Lng: 72.8, Timestamp: "2024-01-02T00:00:00Z"},
	}

	v.Load(stored)

	markers := v.Markers()
	assert.Len(t, markers, seedZones+len(stored)+seedFacilities)
	assert.Equal(t, seedZones, countKind(markers, domain.MarkerDangerZone))
	assert.Equal(t, 2, countKind(markers, domain.MarkerReport))
	assert.Equal(t, 3, countKind(markers, domain.MarkerPolice))
	assert.Equal(t, 2, countKind(markers, domain.MarkerHospital))
	assert.Equal(t, stored, v.Reports())
}

func TestLoad_IsRepeatable(t *testing.T) {
	v := New()
	v.Load(nil)
	v.Load(nil)

	assert.Len(t, v.Markers(), seedZones+seedFacilities)
}

func TestAddRemoveMarker(t *testing.T) {
	v := New()

	h := v.AddMarker(domain.ReportMarker(domain.MarkerReport, domain.Report{Type: domain.TypeBrokenRoad, Lat: 1, Lng: 2}))
	m, ok := v.Marker(h)
	require.True(t, ok)
	assert.Equal(t, "⚠️", m.Icon)
	assert.Equal(t, domain.LatLng{Lat: 1, Lng: 2}, m.Position)

	assert.True(t, v.RemoveMarker(h))
	assert.False(t, v.RemoveMarker(h))
	_, ok = v.Marker(h)
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	v := New()
	v.Load([]domain.Report{
		{Type: domain.TypeHarassment, Lat: 1, Lng: 1},
		{Type: domain.TypeDarkArea, Lat: 2, Lng: 2},
	})

	require.NoError(t, v.Filter("Harassment"))
	for _, m := range v.Markers() {
		if m.Kind.Typed() {
			assert.Equal(t, domain.TypeHarassment, m.Type)
		}
	}
	// two seeded harassment zones, one report, plus untyped facilities
	assert.Equal(t, 3, countKind(v.Markers(), domain.MarkerDangerZone)+countKind(v.Markers(), domain.MarkerReport))
	assert.Equal(t, 5, countKind(v.Markers(), domain.MarkerPolice)+countKind(v.Markers(), domain.MarkerHospital))

	// markers added while filtered follow the filter
	h := v.AddMarker(domain.ReportMarker(domain.MarkerReport, domain.Report{Type: domain.TypeUnsafeCrowd}))
	m, _ := v.Marker(h)
	assert.False(t, m.Visible)

	require.NoError(t, v.Filter(FilterAll))
	assert.Len(t, v.Markers(), len(v.AllMarkers()))

	require.ErrorIs(t, v.Filter("Floods"), ErrUnknownCategory)
	assert.Equal(t, FilterAll, v.CurrentFilter())
}

func TestToggleTheme(t *testing.T) {
	v := New()
	assert.Equal(t, "light", v.Theme())
	assert.Equal(t, "dark", v.ToggleTheme())
	assert.Equal(t, "light", v.ToggleTheme())

	v.SetTheme("dark")
	assert.Equal(t, "dark", v.Theme())
	v.SetTheme("neon")
	assert.Equal(t, "light", v.Theme())
}

func TestMessages_Drain(t *testing.T) {
	v := New()
	v.EnterReportMode()

	msgs := v.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "info", msgs[0].Level)
	assert.Empty(t, v.Messages())
}

func TestSubmit_UsesStoreClockForTimestamp(t *testing.T) {
	store := newStore()
	v := New()
	v.Load(nil)
	v.EnterReportMode()
	require.True(t, v.Click(domain.LatLng{Lat: 19.0, Lng: 72.8}))

	before := time.Now().Add(-time.Second)
	r, _, err := v.Submit(context.Background(), store, Form{Type: "Harassment", Desc: "test"})
	require.NoError(t, err)

	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, before, ts, 5*time.Second)
}

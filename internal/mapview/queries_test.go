package mapview

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locatedView(t *testing.T, pos domain.LatLng, stored []domain.Report) *View {
	t.Helper()
	v := New()
	v.Load(stored)
	require.NoError(t, v.Locate(context.Background(), fixedLocator(pos, nil), time.Second))
	return v
}

func TestNearby(t *testing.T) {
	mumbai := domain.LatLng{Lat: 19.07, Lng: 72.88}
	v := locatedView(t, mumbai, []domain.Report{
		{Type: domain.TypeHarassment, Lat: 19.08, Lng: 72.88},
		{Type: domain.TypeDarkArea, Lat: 28.6, Lng: 77.2},
	})

	near, err := v.Nearby(5)
	require.NoError(t, err)

	require.Len(t, near, 2, "one report plus the Mumbai seed zone")
	assert.LessOrEqual(t, near[0].DistanceKm, near[1].DistanceKm)
	for _, n := range near {
		assert.LessOrEqual(t, n.DistanceKm, 5.0)
	}
}

func TestNearby_RequiresUserLocation(t *testing.T) {
	v := New()
	_, err := v.Nearby(5)
	require.ErrorIs(t, err, ErrNoUserLocation)

	_, err = v.Nearest(domain.FacilityPolice)
	require.ErrorIs(t, err, ErrNoUserLocation)
}

func TestNearest(t *testing.T) {
	v := locatedView(t, domain.LatLng{Lat: 28.64, Lng: 77.22}, nil)

	police, err := v.Nearest(domain.FacilityPolice)
	require.NoError(t, err)
	assert.Equal(t, "Central Police Station", police.Name)

	hospital, err := v.Nearest(domain.FacilityHospital)
	require.NoError(t, err)
	assert.Equal(t, "City General Hospital", hospital.Name)
	assert.Less(t, hospital.DistanceKm, 2.0)
}

func TestRecent(t *testing.T) {
	v := New()
	v.Load([]domain.Report{
		{Type: domain.TypeHarassment, Timestamp: "2024-01-01T00:00:00Z"},
		{Type: domain.TypeDarkArea, Timestamp: "2024-03-01T00:00:00Z"},
		{Type: domain.TypeBrokenRoad, Timestamp: "2024-02-01T00:00:00Z"},
	})

	recent := v.Recent(2)

	require.Len(t, recent, 2)
	assert.Equal(t, domain.TypeDarkArea, recent[0].Type)
	assert.Equal(t, domain.TypeBrokenRoad, recent[1].Type)
}

func TestStats(t *testing.T) {
	v := New()
	v.Load([]domain.Report{{Type: domain.TypeHarassment, Severity: domain.SeverityCritical}})

	s := v.Stats()

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Submitted)
	assert.Equal(t, 3, s.ByType["Harassment"])
	assert.Equal(t, 4, s.HighSeverity)
}

package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport_DefaultsTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	r := NewReport("Harassment", " test ", "", 19.0, 72.8, "")

	assert.Equal(t, TypeHarassment, r.Type)
	assert.Equal(t, "test", r.Desc)
	assert.Equal(t, "2024-05-01T18:30:00Z", r.Timestamp)
	require.NoError(t, r.Validate())
}

func TestNewReport_RealClockTimestampIsRecent(t *testing.T) {
	before := time.Now().Add(-time.Second)

	r := NewReport("Harassment", "test", "", 19.0, 72.8, "")

	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, before, ts, 5*time.Second)
}

func TestNewReport_KeepsTimestampAndNormalizesSeverity(t *testing.T) {
	r := NewReport("Dark Area", "", "high", 12.97, 77.59, "2023-06-05T20:45:00Z")

	assert.Equal(t, "2023-06-05T20:45:00Z", r.Timestamp)
	assert.Equal(t, SeverityHigh, r.Severity)

	r = NewReport("Dark Area", "", "extreme", 12.97, 77.59, "")
	assert.Empty(t, r.Severity)
}

func TestReport_Validate(t *testing.T) {
	tests := []struct {
		name    string
		report  Report
		wantErr string
	}{
		{"valid", Report{Type: TypeBrokenRoad, Lat: 19.07, Lng: 72.87}, ""},
		{"poles and antimeridian", Report{Type: TypeBrokenRoad, Lat: -90, Lng: 180}, ""},
		{"missing type", Report{Lat: 19.07, Lng: 72.87}, "type is required"},
		{"unknown type", Report{Type: "Flood", Lat: 19.07, Lng: 72.87}, "unknown type"},
		{"latitude out of range", Report{Type: TypeDarkArea, Lat: 91, Lng: 0}, "latitude"},
		{"longitude out of range", Report{Type: TypeDarkArea, Lat: 0, Lng: -180.5}, "longitude"},
		{"bad timestamp", Report{Type: TypeDarkArea, Timestamp: "yesterday"}, "RFC 3339"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.report.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidReport)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReport_JSONKeys(t *testing.T) {
	data, err := json.Marshal(Report{Type: TypeHarassment, Desc: "d", Lat: 1, Lng: 2, Timestamp: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"Harassment","desc":"d","lat":1,"lng":2,"timestamp":"2024-01-01T00:00:00Z"}`, string(data))
}

func TestReport_TimeAcceptsZonelessSeedTimestamps(t *testing.T) {
	ts, ok := SeedDangerZones()[0].Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 15, 18, 30, 0, 0, time.UTC), ts)

	_, ok = Report{Timestamp: "not a time"}.Time()
	assert.False(t, ok)
}

func TestSeedDangerZones_AreValid(t *testing.T) {
	for _, zone := range SeedDangerZones() {
		assert.True(t, zone.Type.Known(), zone.Type)
		require.NoError(t, ValidateCoordinates(zone.Lat, zone.Lng))
	}
}

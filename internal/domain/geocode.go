package domain

import (
	"context"
	"log/slog"
)

// EnrichWithPlace attempts to fill the report's Place from its coordinates.
// If geocoder is nil or geocoding fails, the report is returned unchanged.
func EnrichWithPlace(ctx context.Context, report Report, geocoder Geocoder, logger *slog.Logger) Report {
	if geocoder == nil || report.Place != "" {
		return report
	}

	place, err := geocoder.Reverse(ctx, report.Lat, report.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"type", report.Type,
			"lat", report.Lat,
			"lng", report.Lng,
			"error", err,
		)
		return report
	}
	report.Place = place.Label
	return report
}

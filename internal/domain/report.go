package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidReport is returned when a report is missing a required field or
// carries values outside their allowed ranges.
var ErrInvalidReport = errors.New("invalid report")

// ReportType is the category of an unsafe-spot report.
type ReportType string

const (
	TypeHarassment  ReportType = "Harassment"
	TypeBrokenRoad  ReportType = "Broken Road"
	TypeDarkArea    ReportType = "Dark Area"
	TypeUnsafeCrowd ReportType = "Unsafe Crowd"
)

// ReportTypes lists the accepted report types in display order.
var ReportTypes = []ReportType{TypeHarassment, TypeBrokenRoad, TypeDarkArea, TypeUnsafeCrowd}

// Known reports whether t is one of ReportTypes.
func (t ReportType) Known() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Severity levels carried over from the seed data.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Report is a single user-submitted safety report. The JSON form is the
// persisted format.
type Report struct {
	Type      ReportType `json:"type"`
	Desc      string     `json:"desc"`
	Severity  string     `json:"severity,omitempty"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Timestamp string     `json:"timestamp"`

	// Place is a reverse-geocoded address, empty when geocoding is disabled
	// or failed.
	Place string `json:"place,omitempty"`
}

// NewReport builds a report from form input, trimming text fields and
// stamping the current time when timestamp is empty.
func NewReport(reportType, desc, severity string, lat, lng float64, timestamp string) Report {
	r := Report{
		Type:      ReportType(strings.TrimSpace(reportType)),
		Desc:      strings.TrimSpace(desc),
		Severity:  normalizeSeverity(severity),
		Lat:       lat,
		Lng:       lng,
		Timestamp: strings.TrimSpace(timestamp),
	}
	if r.Timestamp == "" {
		r.Timestamp = clock.Now().UTC().Format(time.RFC3339)
	}
	return r
}

// Validate checks the fields required to store a report.
func (r Report) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidReport)
	}
	if !r.Type.Known() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidReport, r.Type)
	}
	if err := ValidateCoordinates(r.Lat, r.Lng); err != nil {
		return err
	}
	if r.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
			return fmt.Errorf("%w: timestamp %q is not RFC 3339", ErrInvalidReport, r.Timestamp)
		}
	}
	return nil
}

// Time parses the report timestamp. Seed data uses local times without a
// zone, which are read as UTC.
func (r Report) Time() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, r.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Position returns the report coordinates.
func (r Report) Position() LatLng {
	return LatLng{Lat: r.Lat, Lng: r.Lng}
}

func normalizeSeverity(value string) string {
	value = strings.TrimSpace(value)
	for _, s := range []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if strings.EqualFold(value, s) {
			return s
		}
	}
	return ""
}

// Package mapview holds the state of one open map page: rendered markers, the
// location-pick mode used while writing a report, the user's position and the
// queue of messages shown to the user.
//
// A View is owned by a single page session and is not safe for concurrent
// use; callers serialize access.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
)

// DefaultCenter frames the whole of India.
var DefaultCenter = domain.LatLng{Lat: 20.5937, Lng: 78.9629}

const (
	DefaultZoom  = 5
	LocatedZoom  = 15
	FilterAll    = "All"
	defaultTheme = "light"
)

var (
	// ErrNoLocation blocks a submit made before a location was picked.
	ErrNoLocation = errors.New("no location selected")
	// ErrUnknownCategory is returned by Filter for categories that are not
	// report types.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNoUserLocation is returned by queries relative to the user's
	// position before it is known.
	ErrNoUserLocation = errors.New("user location unknown")
)

// PickState is the location-pick mode.
type PickState int

const (
	Idle PickState = iota
	AwaitingLocationPick
)

func (s PickState) String() string {
	if s == AwaitingLocationPick {
		return "awaiting_location_pick"
	}
	return "idle"
}

// MarshalText renders the state name in JSON payloads.
func (s PickState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Handle identifies a marker placed on a view.
type Handle int

// Marker is a marker placed on the view.
type Marker struct {
	ID Handle `json:"id"`
	domain.MarkerSpec
	Visible bool `json:"visible"`
}

// Message is a transient notice for the user.
type Message struct {
	Level string `json:"level"` // "info", "success" or "error"
	Text  string `json:"text"`
}

// ReportAppender stores submitted reports.
type ReportAppender interface {
	Append(ctx context.Context, report domain.Report) (domain.Report, error)
}

// Form is the report form content.
type Form struct {
	Type     string `json:"type"`
	Desc     string `json:"desc"`
	Severity string `json:"severity"`
}

// View is the state of one map page.
type View struct {
	center domain.LatLng
	zoom   int
	theme  string

	markers []*Marker
	nextID  Handle
	filter  string

	state   PickState
	pending *domain.LatLng
	pinned  Handle

	user       *domain.LatLng
	userMarker Handle

	reports  []domain.Report
	messages []Message
}

// New creates an empty view centered on the default region.
func New() *View {
	return &View{
		center: DefaultCenter,
		zoom:   DefaultZoom,
		theme:  defaultTheme,
		filter: FilterAll,
	}
}

// Load clears the view and renders the static seeds followed by reports.
// A known user position is kept and its marker re-rendered.
func (v *View) Load(reports []domain.Report) {
	v.markers = nil
	v.reports = nil
	v.state = Idle
	v.pending = nil
	v.pinned = 0
	v.userMarker = 0

	for _, zone := range domain.SeedDangerZones() {
		v.AddMarker(domain.ReportMarker(domain.MarkerDangerZone, zone))
	}
	for _, r := range reports {
		v.addReport(r)
	}
	for _, f := range domain.SeedPoliceStations() {
		v.AddMarker(domain.FacilityMarker(f))
	}
	for _, f := range domain.SeedHospitals() {
		v.AddMarker(domain.FacilityMarker(f))
	}
	if v.user != nil {
		v.userMarker = v.AddMarker(domain.UserMarker(*v.user))
	}
}

func (v *View) addReport(r domain.Report) Handle {
	v.reports = append(v.reports, r)
	return v.AddMarker(domain.ReportMarker(domain.MarkerReport, r))
}

// AddMarker places a marker and returns its handle. The current filter
// applies to it immediately.
func (v *View) AddMarker(spec domain.MarkerSpec) Handle {
	v.nextID++
	m := &Marker{ID: v.nextID, MarkerSpec: spec}
	m.Visible = v.matches(m)
	v.markers = append(v.markers, m)
	return m.ID
}

// RemoveMarker removes the marker with handle h. It reports whether a marker
// was removed.
func (v *View) RemoveMarker(h Handle) bool {
	for i, m := range v.markers {
		if m.ID == h {
			v.markers = append(v.markers[:i], v.markers[i+1:]...)
			return true
		}
	}
	return false
}

// Marker returns a copy of the marker with handle h.
func (v *View) Marker(h Handle) (Marker, bool) {
	for _, m := range v.markers {
		if m.ID == h {
			return *m, true
		}
	}
	return Marker{}, false
}

// Markers returns copies of the visible markers in render order.
func (v *View) Markers() []Marker {
	out := make([]Marker, 0, len(v.markers))
	for _, m := range v.markers {
		if m.Visible {
			out = append(out, *m)
		}
	}
	return out
}

// AllMarkers returns copies of every rendered marker, hidden ones included.
func (v *View) AllMarkers() []Marker {
	out := make([]Marker, 0, len(v.markers))
	for _, m := range v.markers {
		out = append(out, *m)
	}
	return out
}

// Filter shows only report and danger-zone markers of the given category,
// or all of them for FilterAll. Other marker kinds stay visible.
func (v *View) Filter(category string) error {
	if category == "" {
		category = FilterAll
	}
	if category != FilterAll && !domain.ReportType(category).Known() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	v.filter = category
	for _, m := range v.markers {
		m.Visible = v.matches(m)
	}
	return nil
}

func (v *View) matches(m *Marker) bool {
	if !m.Kind.Typed() || v.filter == FilterAll {
		return true
	}
	return string(m.Type) == v.filter
}

// Center returns the map center and zoom level.
func (v *View) Center() (domain.LatLng, int) {
	return v.center, v.zoom
}

// CurrentFilter returns the active category filter.
func (v *View) CurrentFilter() string { return v.filter }

// State returns the location-pick mode.
func (v *View) State() PickState { return v.state }

// Pending returns the picked location, if any.
func (v *View) Pending() (domain.LatLng, bool) {
	if v.pending == nil {
		return domain.LatLng{}, false
	}
	return *v.pending, true
}

// UserLocation returns the user's last known position.
func (v *View) UserLocation() (domain.LatLng, bool) {
	if v.user == nil {
		return domain.LatLng{}, false
	}
	return *v.user, true
}

// Theme returns "light" or "dark".
func (v *View) Theme() string { return v.theme }

// SetTheme applies a stored theme preference.
func (v *View) SetTheme(theme string) {
	if theme == "dark" {
		v.theme = "dark"
		return
	}
	v.theme = defaultTheme
}

// ToggleTheme flips between light and dark and returns the new theme.
func (v *View) ToggleTheme() string {
	if v.theme == "dark" {
		v.theme = defaultTheme
	} else {
		v.theme = "dark"
	}
	return v.theme
}

// Messages drains the queued user messages.
func (v *View) Messages() []Message {
	out := v.messages
	v.messages = nil
	if out == nil {
		out = []Message{}
	}
	return out
}

func (v *View) notify(level, format string, args ...any) {
	v.messages = append(v.messages, Message{Level: level, Text: fmt.Sprintf(format, args...)})
}

// Reports returns the user-submitted reports rendered on the view.
func (v *View) Reports() []domain.Report {
	return append([]domain.Report(nil), v.reports...)
}

// typedReports returns seeds and submitted reports together.
func (v *View) typedReports() []domain.Report {
	return append(domain.SeedDangerZones(), v.reports...)
}

func sortByTimeDesc(reports []domain.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		ti, _ := reports[i].Time()
		tj, _ := reports[j].Time()
		return ti.After(tj)
	})
}

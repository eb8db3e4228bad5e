package domain

import "strings"

// MarkerKind identifies what a marker represents.
type MarkerKind string

const (
	MarkerReport     MarkerKind = "report"
	MarkerDangerZone MarkerKind = "danger_zone"
	MarkerPolice     MarkerKind = "police"
	MarkerHospital   MarkerKind = "hospital"
	MarkerUser       MarkerKind = "user"
	MarkerPending    MarkerKind = "pending"
)

// Typed reports whether markers of this kind carry a report type and take
// part in category filtering.
func (k MarkerKind) Typed() bool {
	return k == MarkerReport || k == MarkerDangerZone
}

const popupTimeLayout = "Jan 2, 2006, 3:04 PM"

// Popup is the content shown when a marker is opened.
type Popup struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
	Time        string `json:"time,omitempty"`
}

// MarkerSpec describes a marker before it is placed on a map.
type MarkerSpec struct {
	Kind     MarkerKind `json:"kind"`
	Type     ReportType `json:"type,omitempty"`
	Position LatLng     `json:"position"`
	Icon     string     `json:"icon"`
	Popup    Popup      `json:"popup"`
}

var reportIcons = map[ReportType]string{
	TypeHarassment:  "🚨",
	TypeDarkArea:    "🌑",
	TypeBrokenRoad:  "⚠️",
	TypeUnsafeCrowd: "🧟",
}

// IconFor returns the emoji icon for a report type, or a pin for unknown types.
func IconFor(t ReportType) string {
	if icon, ok := reportIcons[t]; ok {
		return icon
	}
	return "📍"
}

// ReportMarker projects a report onto a marker spec.
func ReportMarker(kind MarkerKind, r Report) MarkerSpec {
	return MarkerSpec{
		Kind:     kind,
		Type:     r.Type,
		Position: r.Position(),
		Icon:     IconFor(r.Type),
		Popup:    ReportPopup(r),
	}
}

// ReportPopup renders the popup for a report.
func ReportPopup(r Report) Popup {
	p := Popup{
		Title:       string(r.Type),
		Severity:    r.Severity,
		Description: strings.TrimSpace(r.Desc),
		Time:        r.Timestamp,
	}
	if p.Severity == "" {
		p.Severity = "Unknown"
	}
	if p.Description == "" {
		p.Description = "No description provided"
	}
	if t, ok := r.Time(); ok {
		p.Time = t.Format(popupTimeLayout)
	}
	if r.Place != "" {
		p.Subtitle = r.Place
	}
	return p
}

// FacilityMarker projects a police station or hospital onto a marker spec.
func FacilityMarker(f Facility) MarkerSpec {
	spec := MarkerSpec{
		Position: f.Position(),
		Popup:    Popup{Title: f.Name},
	}
	switch f.Kind {
	case FacilityPolice:
		spec.Kind = MarkerPolice
		spec.Icon = "🛡️"
		spec.Popup.Subtitle = "Police Station"
	default:
		spec.Kind = MarkerHospital
		spec.Icon = "🏥"
		spec.Popup.Subtitle = "Hospital"
	}
	return spec
}

// UserMarker is the "you are here" marker.
func UserMarker(pos LatLng) MarkerSpec {
	return MarkerSpec{
		Kind:     MarkerUser,
		Position: pos,
		Icon:     "📍",
		Popup:    Popup{Title: "You are here"},
	}
}

// PendingMarker marks the location picked for a report being written.
func PendingMarker(pos LatLng) MarkerSpec {
	return MarkerSpec{
		Kind:     MarkerPending,
		Position: pos,
		Icon:     "📌",
		Popup:    Popup{Title: "Selected location"},
	}
}

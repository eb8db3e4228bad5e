package mapview

import (
	"sort"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
)

// NearbyReport is a report with its distance from the user.
type NearbyReport struct {
	domain.Report
	DistanceKm float64 `json:"distance_km"`
}

// Nearby returns danger zones and reports within radiusKm of the user,
// closest first.
func (v *View) Nearby(radiusKm float64) ([]NearbyReport, error) {
	if v.user == nil {
		return nil, ErrNoUserLocation
	}
	out := []NearbyReport{}
	for _, r := range v.typedReports() {
		if d := domain.DistanceKm(*v.user, r.Position()); d <= radiusKm {
			out = append(out, NearbyReport{Report: r, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// NearestFacility is a facility with its distance from the user.
type NearestFacility struct {
	domain.Facility
	DistanceKm float64 `json:"distance_km"`
}

// Nearest returns the closest police station or hospital to the user.
func (v *View) Nearest(kind domain.FacilityKind) (NearestFacility, error) {
	if v.user == nil {
		return NearestFacility{}, ErrNoUserLocation
	}
	facilities := domain.SeedHospitals()
	if kind == domain.FacilityPolice {
		facilities = domain.SeedPoliceStations()
	}

	var best NearestFacility
	for i, f := range facilities {
		d := domain.DistanceKm(*v.user, f.Position())
		if i == 0 || d < best.DistanceKm {
			best = NearestFacility{Facility: f, DistanceKm: d}
		}
	}
	return best, nil
}

// Recent returns up to n submitted reports, newest first.
func (v *View) Recent(n int) []domain.Report {
	reports := v.Reports()
	sortByTimeDesc(reports)
	if n >= 0 && len(reports) > n {
		reports = reports[:n]
	}
	return reports
}

// Stats summarizes the rendered danger zones and reports.
type Stats struct {
	Total        int            `json:"total"`
	Submitted    int            `json:"submitted"`
	ByType       map[string]int `json:"by_type"`
	HighSeverity int            `json:"high_severity"`
}

// Stats counts danger zones and reports by type.
func (v *View) Stats() Stats {
	s := Stats{ByType: make(map[string]int), Submitted: len(v.reports)}
	for _, r := range v.typedReports() {
		s.Total++
		s.ByType[string(r.Type)]++
		if r.Severity == domain.SeverityHigh || r.Severity == domain.SeverityCritical {
			s.HighSeverity++
		}
	}
	return s
}

package domain

// FacilityKind distinguishes the static points of help shown on the map.
type FacilityKind string

const (
	FacilityPolice   FacilityKind = "police"
	FacilityHospital FacilityKind = "hospital"
)

// Facility is a police station or hospital.
type Facility struct {
	Name string       `json:"name"`
	Kind FacilityKind `json:"kind"`
	Lat  float64      `json:"lat"`
	Lng  float64      `json:"lng"`
}

// Position returns the facility coordinates.
func (f Facility) Position() LatLng {
	return LatLng{Lat: f.Lat, Lng: f.Lng}
}

// SeedDangerZones returns the built-in danger zones rendered on every map.
func SeedDangerZones() []Report {
	return []Report{
		{Lat: 28.6448, Lng: 77.2167, Type: TypeHarassment, Desc: "Multiple reports of verbal harassment in this area at night", Severity: SeverityHigh, Timestamp: "2023-06-15T18:30:00"},
		{Lat: 19.076, Lng: 72.8777, Type: TypeBrokenRoad, Desc: "Large potholes and no street lighting", Severity: SeverityMedium, Timestamp: "2023-06-10T09:15:00"},
		{Lat: 12.9716, Lng: 77.5946, Type: TypeDarkArea, Desc: "No street lights for 200m stretch", Severity: SeverityMedium, Timestamp: "2023-06-05T20:45:00"},
		{Lat: 13.0827, Lng: 80.2707, Type: TypeUnsafeCrowd, Desc: "Aggressive street vendors and pickpockets reported", Severity: SeverityHigh, Timestamp: "2023-05-28T16:20:00"},
		{Lat: 22.5726, Lng: 88.3639, Type: TypeHarassment, Desc: "Eve-teasing common near metro station exit", Severity: SeverityCritical, Timestamp: "2023-05-20T19:00:00"},
	}
}

// SeedPoliceStations returns the built-in police stations.
func SeedPoliceStations() []Facility {
	return []Facility{
		{Name: "Central Police Station", Kind: FacilityPolice, Lat: 28.6358, Lng: 77.2245},
		{Name: "Local Police Outpost", Kind: FacilityPolice, Lat: 19.072, Lng: 72.882},
		{Name: "Traffic Police HQ", Kind: FacilityPolice, Lat: 12.975, Lng: 77.603},
	}
}

// SeedHospitals returns the built-in hospitals.
func SeedHospitals() []Facility {
	return []Facility{
		{Name: "City General Hospital", Kind: FacilityHospital, Lat: 28.632, Lng: 77.219},
		{Name: "Emergency Care Center", Kind: FacilityHospital, Lat: 19.078, Lng: 72.885},
	}
}

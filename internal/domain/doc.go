// Package domain models SafeScape safety reports and the map markers derived
// from them.
//
// # Report records
//
// A report is a user-submitted observation about an unsafe spot:
//
//	{"type":"Harassment","desc":"...","severity":"High","lat":19.0,"lng":72.8,"timestamp":"2024-05-01T18:30:00Z"}
//
// The JSON keys are the persisted format: the report store keeps every report
// as one element of a JSON array under a single key. Records are append-only;
// nothing in the service edits or deletes them.
//
// Report types are a closed set (see [ReportTypes]). Severity is optional and
// uses the four levels Low, Medium, High and Critical. Timestamps are RFC 3339
// strings; [NewReport] fills in the submission time from the package clock
// when none is given.
//
// # Markers
//
// Markers are a view-only projection. Every report renders as a marker with an
// emoji icon keyed by type and a popup summarizing the report. Static seed
// data (danger zones, police stations, hospitals) is rendered alongside the
// stored reports each time a map view loads and is never persisted.
//
// # Coordinates
//
// Coordinates are WGS-84 degrees. Latitude must be within [-90, 90] and
// longitude within [-180, 180]. Distances use the haversine formula on a
// spherical earth of radius 6371 km, see [DistanceKm].
package domain

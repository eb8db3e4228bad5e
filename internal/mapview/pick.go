package mapview

import (
	"context"
	"errors"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
)

// EnterReportMode starts a report: the next map click picks its location.
// Entering again discards an earlier pick.
func (v *View) EnterReportMode() {
	v.clearPending()
	v.state = AwaitingLocationPick
	v.notify("info", "Click on the map to select the report location")
}

// Click handles a map click. Only the first click after EnterReportMode is
// captured; it reports whether the click was used.
func (v *View) Click(pos domain.LatLng) bool {
	if v.state != AwaitingLocationPick || v.pending != nil {
		return false
	}
	if err := domain.ValidateCoordinates(pos.Lat, pos.Lng); err != nil {
		return false
	}
	v.pending = &pos
	v.pinned = v.AddMarker(domain.PendingMarker(pos))
	return true
}

// Submit stores a report at the picked location and renders it. Without a
// picked location it returns ErrNoLocation and nothing is stored. Validation
// errors keep the pick so the form can be corrected.
func (v *View) Submit(ctx context.Context, store ReportAppender, form Form) (domain.Report, Handle, error) {
	if v.state != AwaitingLocationPick || v.pending == nil {
		v.notify("error", "Please click on the map to select a location first")
		return domain.Report{}, 0, ErrNoLocation
	}

	report := domain.NewReport(form.Type, form.Desc, form.Severity, v.pending.Lat, v.pending.Lng, "")
	stored, err := store.Append(ctx, report)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidReport) {
			v.notify("error", "Please choose a report type")
		}
		return domain.Report{}, 0, err
	}

	h := v.addReport(stored)
	v.clearPending()
	v.state = Idle
	v.notify("success", "Report submitted successfully")
	return stored, h, nil
}

// Cancel abandons the report being written.
func (v *View) Cancel() {
	v.clearPending()
	v.state = Idle
}

func (v *View) clearPending() {
	if v.pinned != 0 {
		v.RemoveMarker(v.pinned)
		v.pinned = 0
	}
	v.pending = nil
}

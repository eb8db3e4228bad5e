package mapview

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
)

// DefaultLocateTimeout bounds a geolocation request when the caller gives none.
const DefaultLocateTimeout = 10 * time.Second

var (
	// ErrPermissionDenied is returned by a Locator when the user refused
	// location access.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPositionUnavailable is returned by a Locator that cannot determine
	// a position.
	ErrPositionUnavailable = errors.New("position unavailable")
)

// Locator provides the device's current position.
type Locator interface {
	CurrentPosition(ctx context.Context) (domain.LatLng, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (domain.LatLng, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (domain.LatLng, error) {
	return f(ctx)
}

// Locate asks loc for the current position within timeout. On success the
// view recenters on the user and the "you are here" marker is replaced. On
// failure a message is queued, the default view is restored and the error is
// returned. Failures are not retried.
func (v *View) Locate(ctx context.Context, loc Locator, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLocateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos domain.LatLng
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := loc.CurrentPosition(ctx)
		done <- result{pos: pos, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err == nil {
		if err := domain.ValidateCoordinates(res.pos.Lat, res.pos.Lng); err != nil {
			res.err = ErrPositionUnavailable
		}
	}

	if res.err != nil {
		v.notify("error", "%s. Using default view.", locateFailureText(res.err))
		v.center, v.zoom = DefaultCenter, DefaultZoom
		return res.err
	}

	pos := res.pos
	v.user = &pos
	if v.userMarker != 0 {
		v.RemoveMarker(v.userMarker)
	}
	v.userMarker = v.AddMarker(domain.UserMarker(pos))
	v.center, v.zoom = pos, LocatedZoom
	return nil
}

func locateFailureText(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Location access denied"
	case errors.Is(err, context.DeadlineExceeded):
		return "Location request timed out"
	default:
		return "Location unavailable"
	}
}

// FailureKind classifies a Locate error for metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrPermissionDenied):
		return "denied"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unavailable"
	}
}

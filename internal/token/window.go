package token

import (
	"time"
)

const DefaultCutoffHour = 4

// WindowStart returns the cutoff that opened the refresh window containing
// now: today's cutoff in loc, or yesterday's when now is still before it.
func WindowStart(now time.Time, loc *time.Location, cutoffHour int) time.Time {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), cutoffHour, 0, 0, 0, loc)
	if local.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// ValidInWindow reports whether a token issued at issuedAt may still be used
// at now. The provider declared expiry is not consulted.
func ValidInWindow(issuedAt, now time.Time, loc *time.Location, cutoffHour int) bool {
	if issuedAt.IsZero() {
		return false
	}
	return !issuedAt.Before(WindowStart(now, loc, cutoffHour))
}

package collect

import "time"

// ShouldCollectNow reports whether now, viewed in the named timezone, falls
// within ±toleranceMins of hour:minute local time. It is the scheduling
// gate for deployments that sample on a coarse cron cadence but only want
// the end-of-day reading per location; the caller injects the clock so the
// policy stays testable.
//
// An unknown timezone gates closed: better to miss one reading than to
// collect at the wrong local time.
func ShouldCollectNow(now time.Time, tzName string, hour, minute, toleranceMins int) bool {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return false
	}

	local := now.In(loc)
	nowMins := local.Hour()*60 + local.Minute()
	targetMins := hour*60 + minute

	diff := nowMins - targetMins
	if diff < 0 {
		diff = -diff
	}
	// The window may straddle midnight (e.g. a 23:58 reading against a
	// 00:05 target), so take the shorter way around the clock.
	if wrapped := 24*60 - diff; wrapped < diff {
		diff = wrapped
	}
	return diff <= toleranceMins
}

// Package aggregate turns raw booking events into a single bounded-day
// total. Events are clipped to the day window; maintenance blocks and
// malformed events are skipped rather than failing the computation, since
// one location's bad data must not block the rest of a run.
package aggregate

import (
	"strings"

	"github.com/jwclark94/backninescrape/internal/domain"
)

// DefaultExcludeTitle filters cleaning/maintenance blocks, which occupy bay
// time but do not represent bookable demand.
const DefaultExcludeTitle = "clean"

// TotalBookedHours sums the durations of all events overlapping the window,
// clipped to the window bounds. Overlapping events are additive, not
// unioned: double-booked time counts twice, because the result is a total
// booked hours metric rather than an occupancy metric.
//
// Events whose title contains exclude (case-insensitive) are skipped, as
// are events missing a start or end timestamp. Inverted intervals fall out
// of the overlap check. The result is unrounded; rounding to two decimals
// happens at the point of persistence.
func TotalBookedHours(events []domain.BookingEvent, window domain.DayWindow, exclude string) float64 {
	exclude = strings.ToLower(exclude)

	total := 0.0
	for _, e := range events {
		if exclude != "" && strings.Contains(strings.ToLower(e.Title), exclude) {
			continue
		}
		if e.Start.IsZero() || e.End.IsZero() {
			continue
		}

		cs, ce := window.Clip(e.Start, e.End)
		if !cs.Before(ce) {
			continue
		}
		total += ce.Sub(cs).Hours()
	}
	return total
}

// Package domain defines the core types shared across the backninescrape
// collector: locations, booking events, day windows, and computed totals.
package domain

import "time"

// Location identifies a bookable location on the booking site. Slug is the
// canonical identity; City is a display title carried along for output.
type Location struct {
	City string
	Slug string
}

// BookingEvent is one reservation or blocked slot fetched from the booking
// site. Events are transient: they are aggregated within a run and never
// persisted verbatim (except optionally through the event archive).
type BookingEvent struct {
	ID    string
	Title string
	Start time.Time // zero if the source omitted or mangled the field
	End   time.Time
}

// DayWindow is the absolute 24-hour interval [Start, End) corresponding to
// one calendar day. End is always exactly Start plus 24 hours.
type DayWindow struct {
	Day   time.Time // civil date at midnight in loc
	Start time.Time
	End   time.Time
}

// NewDayWindow builds the window for the calendar day containing t in the
// given location.
func NewDayWindow(t time.Time, loc *time.Location) DayWindow {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return DayWindow{
		Day:   day,
		Start: day,
		End:   day.Add(24 * time.Hour),
	}
}

// Clip truncates the interval [start, end) to the portion overlapping the
// window. The returned interval is empty (clipped start >= clipped end)
// when there is no overlap, which also covers inverted input intervals.
func (w DayWindow) Clip(start, end time.Time) (time.Time, time.Time) {
	cs := start
	if w.Start.After(cs) {
		cs = w.Start
	}
	ce := end
	if w.End.Before(ce) {
		ce = w.End
	}
	return cs, ce
}

// DateString returns the window's day formatted as YYYY-MM-DD, the key
// format used by every store.
func (w DayWindow) DateString() string {
	return w.Day.Format("2006-01-02")
}

// DailyTotal is one computed total-hours observation for one location on
// one day, produced by one run.
type DailyTotal struct {
	Location   Location
	Day        string // YYYY-MM-DD
	Hours      float64
	ComputedAt time.Time
}

// DailyMax is the best-known total for a (slug, date) key: the highest
// Hours value merged so far and the run timestamp that produced it.
type DailyMax struct {
	Location   Location
	Day        string // YYYY-MM-DD
	Hours      float64
	CapturedAt time.Time
}

// LocationResult is the per-location outcome of one collection run.
type LocationResult struct {
	Location Location
	Timezone string
	Total    DailyTotal
	Events   int
	Err      error
}

// Failed reports whether the location's collection failed.
func (r LocationResult) Failed() bool { return r.Err != nil }

// RunReport summarizes one collection run across all locations.
type RunReport struct {
	StartedAt time.Time
	Elapsed   time.Duration
	Skipped   int // locations outside their local collection window
	Results   []LocationResult
}

// Succeeded counts locations that produced a persisted total.
func (r RunReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if !res.Failed() {
			n++
		}
	}
	return n
}

// Failed counts locations that errored during the run.
func (r RunReport) Failed() int { return len(r.Results) - r.Succeeded() }

// Weekday returns the full weekday name for a YYYY-MM-DD date string, or ""
// if the date does not parse. It is a derived display field, recomputed
// from the date rather than stored as independent truth.
func Weekday(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

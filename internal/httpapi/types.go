// Package httpapi provides a read-only HTTP REST API over the collected
// booking data, serving daily maximums, raw observations, and per-location
// statistics in JSON format.
package httpapi

import (
	"github.com/jwclark94/backninescrape/internal/domain"
	"github.com/jwclark94/backninescrape/internal/stats"
)

// DailyMaxJSON is the JSON representation of a single daily-max record.
type DailyMaxJSON struct {
	City       string  `json:"city"`
	Slug       string  `json:"slug"`
	Date       string  `json:"date"`
	DayOfWeek  string  `json:"dayOfWeek"`
	Hours      float64 `json:"hours"`
	CapturedAt string  `json:"capturedAt"`
}

// DailyMaxResponse lists daily-max records.
type DailyMaxResponse struct {
	Records []DailyMaxJSON `json:"records"`
}

// ObservationJSON is a single raw observation row.
type ObservationJSON struct {
	City       string  `json:"city"`
	Slug       string  `json:"slug"`
	Date       string  `json:"date"`
	DayOfWeek  string  `json:"dayOfWeek"`
	Hours      float64 `json:"hours"`
	ComputedAt string  `json:"computedAt"`
}

// ObservationsResponse lists the observation log for one location.
type ObservationsResponse struct {
	Slug         string            `json:"slug"`
	Observations []ObservationJSON `json:"observations"`
}

// LocationStatsJSON is the JSON representation of per-location averages.
type LocationStatsJSON struct {
	Slug      string             `json:"slug"`
	Days      int                `json:"days"`
	AvgMax    float64            `json:"avgMax"`
	ByWeekday map[string]float64 `json:"byWeekday"`
}

// StatsResponse lists per-location statistics.
type StatsResponse struct {
	Locations []LocationStatsJSON `json:"locations"`
}

func convertDailyMax(m domain.DailyMax) DailyMaxJSON {
	return DailyMaxJSON{
		City:       m.Location.City,
		Slug:       m.Location.Slug,
		Date:       m.Day,
		DayOfWeek:  domain.Weekday(m.Day),
		Hours:      m.Hours,
		CapturedAt: m.CapturedAt.Format("2006-01-02T15:04:05"),
	}
}

func convertObservation(t domain.DailyTotal) ObservationJSON {
	return ObservationJSON{
		City:       t.Location.City,
		Slug:       t.Location.Slug,
		Date:       t.Day,
		DayOfWeek:  domain.Weekday(t.Day),
		Hours:      t.Hours,
		ComputedAt: t.ComputedAt.Format("2006-01-02T15:04:05"),
	}
}

func convertStats(s stats.LocationStats) LocationStatsJSON {
	return LocationStatsJSON{
		Slug:      s.Slug,
		Days:      s.Days,
		AvgMax:    s.AvgMax,
		ByWeekday: s.ByWeekday,
	}
}

// Package stats reduces the daily-max table to per-location demand
// statistics: the average end-of-day peak overall and broken out by
// weekday.
package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jwclark94/backninescrape/internal/domain"
	"github.com/jwclark94/backninescrape/internal/store"
)

// weekdays in output column order.
var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// LocationStats holds the aggregated daily-max statistics for one location,
// keyed by slug.
type LocationStats struct {
	Slug       string
	Days       int                // number of daily-max records
	AvgMax     float64            // mean of all daily maxes
	ByWeekday  map[string]float64 // weekday name → mean, absent when no data
}

// Summarize groups daily-max records by slug and computes overall and
// per-weekday averages. Records with an unparseable date still count
// toward the overall average. Output is sorted by slug.
func Summarize(records []domain.DailyMax) []LocationStats {
	type accum struct {
		sum   float64
		n     int
		bySum map[string]float64
		byN   map[string]int
	}

	bySlug := make(map[string]*accum)
	for _, rec := range records {
		if rec.Location.Slug == "" {
			continue
		}
		a := bySlug[rec.Location.Slug]
		if a == nil {
			a = &accum{bySum: make(map[string]float64), byN: make(map[string]int)}
			bySlug[rec.Location.Slug] = a
		}
		a.sum += rec.Hours
		a.n++
		if dow := domain.Weekday(rec.Day); dow != "" {
			a.bySum[dow] += rec.Hours
			a.byN[dow]++
		}
	}

	out := make([]LocationStats, 0, len(bySlug))
	for slug, a := range bySlug {
		s := LocationStats{
			Slug:      slug,
			Days:      a.n,
			AvgMax:    a.sum / float64(a.n),
			ByWeekday: make(map[string]float64, len(a.byN)),
		}
		for dow, n := range a.byN {
			s.ByWeekday[dow] = a.bySum[dow] / float64(n)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// WriteCSV writes the stats table. The number_of_bays and
// average_hours_perbay columns are left blank: bay counts are maintained
// by hand downstream and joined against this output.
func WriteCSV(path string, stats []LocationStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating stats dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating stats file: %w", err)
	}
	defer f.Close()

	header := []string{"slug", "number_of_bays", "average_hours_perbay", "avg_daily_max_hours"}
	for _, d := range weekdays {
		header = append(header, "avg_"+abbrev(d)+"_max_hours")
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing stats header: %w", err)
	}

	for _, s := range stats {
		row := []string{
			s.Slug,
			"", // number_of_bays (manual)
			"", // average_hours_perbay (manual)
			strconv.FormatFloat(store.Round2(s.AvgMax), 'f', 2, 64),
		}
		for _, d := range weekdays {
			if v, ok := s.ByWeekday[d]; ok {
				row = append(row, strconv.FormatFloat(store.Round2(v), 'f', 2, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing stats row for %s: %w", s.Slug, err)
		}
	}

	w.Flush()
	return w.Error()
}

func abbrev(weekday string) string {
	return strings.ToLower(weekday[:3])
}

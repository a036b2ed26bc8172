package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwclark94/backninescrape/internal/domain"
)

func rec(slug, day string, hours float64) domain.DailyMax {
	return domain.DailyMax{
		Location:   domain.Location{City: slug, Slug: slug},
		Day:        day,
		Hours:      hours,
		CapturedAt: time.Now(),
	}
}

func TestSummarize(t *testing.T) {
	records := []domain.DailyMax{
		// 2024-06-14 Friday, 2024-06-15 Saturday, 2024-06-21 Friday.
		rec("mesa-az", "2024-06-14", 10),
		rec("mesa-az", "2024-06-15", 20),
		rec("mesa-az", "2024-06-21", 14),
		rec("plano-tx", "2024-06-15", 8),
	}

	stats := Summarize(records)
	if len(stats) != 2 {
		t.Fatalf("got %d locations, want 2", len(stats))
	}

	mesa := stats[0]
	if mesa.Slug != "mesa-az" {
		t.Fatalf("stats not sorted by slug: %+v", stats)
	}
	if mesa.Days != 3 {
		t.Errorf("mesa Days = %d, want 3", mesa.Days)
	}
	if want := (10.0 + 20 + 14) / 3; mesa.AvgMax != want {
		t.Errorf("mesa AvgMax = %v, want %v", mesa.AvgMax, want)
	}
	if want := 12.0; mesa.ByWeekday["Friday"] != want {
		t.Errorf("mesa Friday avg = %v, want %v", mesa.ByWeekday["Friday"], want)
	}
	if want := 20.0; mesa.ByWeekday["Saturday"] != want {
		t.Errorf("mesa Saturday avg = %v, want %v", mesa.ByWeekday["Saturday"], want)
	}
	if _, ok := mesa.ByWeekday["Monday"]; ok {
		t.Error("mesa should have no Monday average")
	}

	plano := stats[1]
	if plano.AvgMax != 8 || plano.Days != 1 {
		t.Errorf("plano = %+v", plano)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); len(got) != 0 {
		t.Errorf("Summarize(nil) = %+v, want empty", got)
	}
}

func TestWriteCSV(t *testing.T) {
	records := []domain.DailyMax{
		rec("mesa-az", "2024-06-14", 10.125),
		rec("mesa-az", "2024-06-15", 20),
	}

	path := filepath.Join(t.TempDir(), "location_stats.csv")
	if err := WriteCSV(path, Summarize(records)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stats csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}

	wantHeader := "slug,number_of_bays,average_hours_perbay,avg_daily_max_hours," +
		"avg_mon_max_hours,avg_tue_max_hours,avg_wed_max_hours,avg_thu_max_hours," +
		"avg_fri_max_hours,avg_sat_max_hours,avg_sun_max_hours"
	if lines[0] != wantHeader {
		t.Errorf("header = %q\nwant %q", lines[0], wantHeader)
	}

	// Manual columns stay blank; averages round to two decimals; weekdays
	// without data stay blank.
	cols := strings.Split(lines[1], ",")
	if cols[0] != "mesa-az" || cols[1] != "" || cols[2] != "" {
		t.Errorf("row prefix = %v", cols[:3])
	}
	if cols[3] != "15.06" {
		t.Errorf("avg_daily_max_hours = %q, want 15.06", cols[3])
	}
	if cols[8] != "10.13" { // Friday
		t.Errorf("avg_fri_max_hours = %q, want 10.13", cols[8])
	}
	if cols[9] != "20.00" { // Saturday
		t.Errorf("avg_sat_max_hours = %q, want 20.00", cols[9])
	}
	if cols[4] != "" { // Monday
		t.Errorf("avg_mon_max_hours = %q, want blank", cols[4])
	}
}

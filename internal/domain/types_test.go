package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}

	// Mid-afternoon local time should snap to local midnight.
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, loc)
	w := NewDayWindow(now, loc)

	wantStart := time.Date(2024, 6, 15, 0, 0, 0, 0, loc)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
	if got := w.End.Sub(w.Start); got != 24*time.Hour {
		t.Errorf("window span = %v, want 24h", got)
	}
	if w.DateString() != "2024-06-15" {
		t.Errorf("DateString = %q, want 2024-06-15", w.DateString())
	}
}

func TestDayWindowClip(t *testing.T) {
	w := NewDayWindow(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.UTC)

	tests := []struct {
		name       string
		start, end time.Time
		wantHours  float64
		overlap    bool
	}{
		{
			name:      "fully inside",
			start:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			end:       time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
			wantHours: 2,
			overlap:   true,
		},
		{
			name:      "straddles end boundary",
			start:     time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
			end:       time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC),
			wantHours: 0.5,
			overlap:   true,
		},
		{
			name:    "fully outside",
			start:   time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC),
			end:     time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC),
			overlap: false,
		},
		{
			name:    "inverted interval",
			start:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			end:     time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
			overlap: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, ce := w.Clip(tt.start, tt.end)
			if tt.overlap != cs.Before(ce) {
				t.Fatalf("overlap = %v, want %v", cs.Before(ce), tt.overlap)
			}
			if tt.overlap {
				if got := ce.Sub(cs).Hours(); got != tt.wantHours {
					t.Errorf("clipped duration = %v hours, want %v", got, tt.wantHours)
				}
			}
		})
	}
}

func TestRunReportCounts(t *testing.T) {
	r := RunReport{
		Results: []LocationResult{
			{Location: Location{Slug: "mesa-az"}},
			{Location: Location{Slug: "fishers-in"}, Err: errors.New("boom")},
			{Location: Location{Slug: "plano-tx"}},
		},
	}
	if r.Succeeded() != 2 {
		t.Errorf("Succeeded = %d, want 2", r.Succeeded())
	}
	if r.Failed() != 1 {
		t.Errorf("Failed = %d, want 1", r.Failed())
	}
}

func TestWeekday(t *testing.T) {
	if got := Weekday("2024-06-15"); got != "Saturday" {
		t.Errorf("Weekday(2024-06-15) = %q, want Saturday", got)
	}
	if got := Weekday("not-a-date"); got != "" {
		t.Errorf("Weekday(not-a-date) = %q, want empty", got)
	}
}

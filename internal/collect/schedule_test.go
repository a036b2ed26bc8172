package collect

import (
	"testing"
	"time"
)

func TestShouldCollectNow(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("loading tz: %v", err)
	}

	tests := []struct {
		name      string
		local     time.Time
		hour, min int
		tolerance int
		want      bool
	}{
		{
			name:  "exactly on target",
			local: time.Date(2024, 6, 15, 23, 45, 0, 0, chicago),
			hour:  23, min: 45, tolerance: 7,
			want: true,
		},
		{
			name:  "edge of tolerance",
			local: time.Date(2024, 6, 15, 23, 52, 0, 0, chicago),
			hour:  23, min: 45, tolerance: 7,
			want: true,
		},
		{
			name:  "just outside tolerance",
			local: time.Date(2024, 6, 15, 23, 53, 0, 0, chicago),
			hour:  23, min: 45, tolerance: 7,
			want: false,
		},
		{
			name:  "middle of the day",
			local: time.Date(2024, 6, 15, 12, 0, 0, 0, chicago),
			hour:  23, min: 45, tolerance: 7,
			want: false,
		},
		{
			name:  "window straddling midnight",
			local: time.Date(2024, 6, 15, 23, 58, 0, 0, chicago),
			hour:  0, min: 5, tolerance: 10,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Convert to UTC first: the gate must do the local conversion
			// itself.
			got := ShouldCollectNow(tt.local.UTC(), "America/Chicago", tt.hour, tt.min, tt.tolerance)
			if got != tt.want {
				t.Errorf("ShouldCollectNow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldCollectNowUnknownTimezone(t *testing.T) {
	now := time.Date(2024, 6, 15, 23, 45, 0, 0, time.UTC)
	if ShouldCollectNow(now, "Not/AZone", 23, 45, 7) {
		t.Error("unknown timezone should gate closed")
	}
}

func TestShouldCollectNowPerTimezone(t *testing.T) {
	// One instant, two zones: 06:45 UTC is 23:45 in Phoenix but 01:45 in
	// Chicago (June, DST).
	now := time.Date(2024, 6, 16, 6, 45, 0, 0, time.UTC)

	if !ShouldCollectNow(now, "America/Phoenix", 23, 45, 7) {
		t.Error("Phoenix should be inside its window")
	}
	if ShouldCollectNow(now, "America/Chicago", 23, 45, 7) {
		t.Error("Chicago should be outside its window")
	}
}

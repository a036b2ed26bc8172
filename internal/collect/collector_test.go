package collect

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jwclark94/backninescrape/internal/config"
	"github.com/jwclark94/backninescrape/internal/domain"
	"github.com/jwclark94/backninescrape/internal/store"
)

// fakeSource is an in-memory EventSource with per-slug failure injection.
type fakeSource struct {
	mu        sync.Mutex
	locations []domain.Location
	listErr   error
	failSlugs map[string]error
	calls     int
}

func (f *fakeSource) Locations(_ context.Context) ([]domain.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.locations, nil
}

func (f *fakeSource) Events(_ context.Context, slug, _ string, window domain.DayWindow) ([]domain.BookingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failSlugs[slug]; ok {
		return nil, err
	}
	// Two hours booked, plus a cleaning block that must not count.
	return []domain.BookingEvent{
		{ID: "1", Title: "Bay 1", Start: window.Start.Add(10 * time.Hour), End: window.Start.Add(11 * time.Hour)},
		{ID: "2", Title: "Bay 2", Start: window.Start.Add(10 * time.Hour), End: window.Start.Add(11 * time.Hour)},
		{ID: "3", Title: "Deep Clean - Bay 3", Start: window.Start.Add(8 * time.Hour), End: window.Start.Add(20 * time.Hour)},
	}, nil
}

func testConfig() config.Collect {
	return config.Collect{
		MaxWorkers:      4,
		RunTimeoutSecs:  60,
		RateLimitPerMin: 0, // no pacing in tests
		ExcludeTitle:    "clean",
	}
}

func newTestStore(t *testing.T) *store.CSVStore {
	t.Helper()
	dir := t.TempDir()
	return store.NewCSVStore(filepath.Join(dir, "raw.csv"), filepath.Join(dir, "max.csv"))
}

func TestRunCollectsAllLocations(t *testing.T) {
	src := &fakeSource{
		locations: []domain.Location{
			{City: "Mesa", Slug: "mesa-az"},
			{City: "Plano", Slug: "plano-tx"},
		},
	}
	st := newTestStore(t)
	c := New(src, st, st, nil, testConfig())

	now := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	report, err := c.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Succeeded() != 2 || report.Failed() != 0 {
		t.Fatalf("report: %d succeeded, %d failed; want 2/0", report.Succeeded(), report.Failed())
	}
	for _, res := range report.Results {
		if res.Total.Hours != 2 {
			t.Errorf("%s hours = %v, want 2 (clean block excluded)", res.Location.Slug, res.Total.Hours)
		}
	}

	// Both persisted.
	records, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d daily-max records, want 2", len(records))
	}
}

func TestRunIsolatesLocationFailure(t *testing.T) {
	src := &fakeSource{
		locations: []domain.Location{
			{City: "Mesa", Slug: "mesa-az"},
			{City: "Plano", Slug: "plano-tx"},
		},
		failSlugs: map[string]error{"mesa-az": errors.New("connection refused")},
	}
	st := newTestStore(t)
	c := New(src, st, st, nil, testConfig())

	report, err := c.Run(context.Background(), time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Succeeded() != 1 || report.Failed() != 1 {
		t.Fatalf("report: %d succeeded, %d failed; want 1/1", report.Succeeded(), report.Failed())
	}

	// The healthy location still produced a persisted total.
	ctx := context.Background()
	if _, ok, err := st.Get(ctx, "plano-tx", "2024-06-15"); err != nil || !ok {
		t.Errorf("plano-tx record missing (ok=%v, err=%v)", ok, err)
	}
	if _, ok, _ := st.Get(ctx, "mesa-az", "2024-06-15"); ok {
		t.Error("mesa-az should have no record after a failed fetch")
	}
}

func TestRunDiscoveryFailureFailsRun(t *testing.T) {
	src := &fakeSource{listErr: errors.New("no shapes matched")}
	st := newTestStore(t)
	cfg := testConfig()
	c := New(src, st, st, nil, cfg)

	if _, err := c.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("Run should fail when location discovery fails")
	}
	// Discovery is retried before giving up.
	if src.calls < 2 {
		t.Errorf("discovery attempted %d times, want retries", src.calls)
	}
}

func TestRunGateSkipsOutOfWindowLocations(t *testing.T) {
	src := &fakeSource{
		locations: []domain.Location{
			{City: "Mesa", Slug: "mesa-az"},    // America/Phoenix, UTC-7 year-round
			{City: "Plano", Slug: "plano-tx"},  // America/Chicago, UTC-5 in June
		},
	}
	st := newTestStore(t)
	cfg := testConfig()
	cfg.Gate = config.Gate{Enabled: true, Hour: 23, Minute: 45, ToleranceMins: 7}
	c := New(src, st, st, nil, cfg)

	// 06:45 UTC on June 16 = 23:45 June 15 in Phoenix, 01:45 in Chicago:
	// Mesa is inside its window, Plano is not.
	now := time.Date(2024, 6, 16, 6, 45, 0, 0, time.UTC)
	report, err := c.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if len(report.Results) != 1 || report.Results[0].Location.Slug != "mesa-az" {
		t.Fatalf("results = %+v, want only mesa-az", report.Results)
	}
	if got := report.Results[0].Total.Day; got != "2024-06-15" {
		t.Errorf("collected day = %s, want 2024-06-15 (local date in Phoenix)", got)
	}
}

func TestRunRepeatedIsIdempotentForMax(t *testing.T) {
	src := &fakeSource{
		locations: []domain.Location{{City: "Mesa", Slug: "mesa-az"}},
	}
	st := newTestStore(t)
	c := New(src, st, st, nil, testConfig())

	ctx := context.Background()
	now := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := c.Run(ctx, now.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	obs, err := st.Observations(ctx, "mesa-az")
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 3 {
		t.Errorf("got %d observation rows, want 3 (one per run)", len(obs))
	}

	records, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d daily-max records, want 1", len(records))
	}
	if records[0].Hours != 2 {
		t.Errorf("max hours = %v, want 2", records[0].Hours)
	}
}

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/jwclark94/backninescrape/internal/domain"
)

// Compile-time interface checks.
var _ Store = (*CSVStore)(nil)

var rawHeader = []string{"run_timestamp", "city", "slug", "date", "day_of_week", "total_booked_hours"}
var maxHeader = []string{"city", "slug", "date", "day_of_week", "max_total_booked_hours", "max_captured_at"}

// CSVStore implements ObservationStore and DailyMaxStore on two CSV files:
// an append-only raw log and a daily-max table rewritten whole on every
// merge. The mutex serialises the max table's load-merge-persist cycle (and
// raw appends) across concurrent per-location tasks; without it two merges
// could both read the old table and lose one update.
type CSVStore struct {
	mu      sync.Mutex
	rawPath string
	maxPath string
}

// NewCSVStore creates a CSVStore writing the raw log and daily-max table at
// the given paths. Parent directories are created on first write.
func NewCSVStore(rawPath, maxPath string) *CSVStore {
	return &CSVStore{rawPath: rawPath, maxPath: maxPath}
}

// Close is a no-op; files are opened and closed per operation.
func (s *CSVStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// ObservationStore implementation
// ---------------------------------------------------------------------------

// Append writes one raw observation row, creating the file with a header
// row when it does not yet exist.
func (s *CSVStore) Append(_ context.Context, total domain.DailyTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.rawPath), 0o755); err != nil {
		return fmt.Errorf("creating raw log dir: %w", err)
	}

	_, statErr := os.Stat(s.rawPath)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.rawPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening raw log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(rawHeader); err != nil {
			return fmt.Errorf("writing raw log header: %w", err)
		}
	}

	row := []string{
		formatTimestamp(total.ComputedAt),
		total.Location.City,
		total.Location.Slug,
		total.Day,
		domain.Weekday(total.Day),
		strconv.FormatFloat(Round2(total.Hours), 'f', 2, 64),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("writing raw log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Observations returns all raw rows for a slug in insertion order.
func (s *CSVStore) Observations(_ context.Context, slug string) ([]domain.DailyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := readCSVRows(s.rawPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading raw log: %w", err)
	}

	var totals []domain.DailyTotal
	for _, r := range rows {
		if slug != "" && r["slug"] != slug {
			continue
		}
		hours, err := strconv.ParseFloat(r["total_booked_hours"], 64)
		if err != nil {
			continue
		}
		totals = append(totals, domain.DailyTotal{
			Location:   domain.Location{City: r["city"], Slug: r["slug"]},
			Day:        r["date"],
			Hours:      hours,
			ComputedAt: parseTimestamp(r["run_timestamp"]),
		})
	}
	return totals, nil
}

// ---------------------------------------------------------------------------
// DailyMaxStore implementation
// ---------------------------------------------------------------------------

// Merge loads the whole daily-max table, folds the observation in, and
// atomically rewrites the file. The table is keyed by (slug, date); city is
// a display column, not part of the key.
func (s *CSVStore) Merge(_ context.Context, total domain.DailyTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := readCSVRows(s.maxPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading daily-max table: %w", err)
	}

	hours := Round2(total.Hours)
	key := total.Location.Slug + "|" + total.Day

	found := false
	for _, r := range rows {
		if r["slug"]+"|"+r["date"] != key {
			continue
		}
		found = true
		prev, perr := strconv.ParseFloat(r["max_total_booked_hours"], 64)
		// Strictly greater only; an equal value keeps the earlier capture
		// timestamp. An unparseable stored value is always replaced.
		if perr == nil && hours <= prev {
			return nil
		}
		r["max_total_booked_hours"] = strconv.FormatFloat(hours, 'f', 2, 64)
		r["max_captured_at"] = formatTimestamp(total.ComputedAt)
		break
	}

	if !found {
		rows = append(rows, map[string]string{
			"city":                   total.Location.City,
			"slug":                   total.Location.Slug,
			"date":                   total.Day,
			"day_of_week":            domain.Weekday(total.Day),
			"max_total_booked_hours": strconv.FormatFloat(hours, 'f', 2, 64),
			"max_captured_at":        formatTimestamp(total.ComputedAt),
		})
	}

	return s.rewriteMaxTable(rows)
}

// Get returns the record for (slug, date) and whether it exists.
func (s *CSVStore) Get(ctx context.Context, slug, date string) (domain.DailyMax, bool, error) {
	records, err := s.List(ctx)
	if err != nil {
		return domain.DailyMax{}, false, err
	}
	for _, rec := range records {
		if rec.Location.Slug == slug && rec.Day == date {
			return rec, true, nil
		}
	}
	return domain.DailyMax{}, false, nil
}

// List returns all daily-max records ordered by (slug, date).
func (s *CSVStore) List(_ context.Context) ([]domain.DailyMax, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := readCSVRows(s.maxPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading daily-max table: %w", err)
	}

	records := make([]domain.DailyMax, 0, len(rows))
	for _, r := range rows {
		hours, err := strconv.ParseFloat(r["max_total_booked_hours"], 64)
		if err != nil {
			continue
		}
		records = append(records, domain.DailyMax{
			Location:   domain.Location{City: r["city"], Slug: r["slug"]},
			Day:        r["date"],
			Hours:      hours,
			CapturedAt: parseTimestamp(r["max_captured_at"]),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Location.Slug != records[j].Location.Slug {
			return records[i].Location.Slug < records[j].Location.Slug
		}
		return records[i].Day < records[j].Day
	})
	return records, nil
}

// rewriteMaxTable writes the full table to a temp file in the same
// directory and renames it over the old one, so a crash mid-write never
// leaves a half-written table behind.
func (s *CSVStore) rewriteMaxTable(rows []map[string]string) error {
	dir := filepath.Dir(s.maxPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating daily-max dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".daily-max-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp daily-max file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(maxHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("writing daily-max header: %w", err)
	}
	for _, r := range rows {
		row := make([]string, len(maxHeader))
		for i, col := range maxHeader {
			row[i] = r[col]
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("writing daily-max row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing daily-max table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp daily-max file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.maxPath); err != nil {
		return fmt.Errorf("replacing daily-max table: %w", err)
	}
	return nil
}

// readCSVRows reads a headered CSV file into one map per row.
func readCSVRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

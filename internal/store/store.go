// Package store persists the collector's output: the append-only
// observation log, the per-(location, day) running-maximum table, and the
// optional raw event archive. CSV and SQLite backends implement the same
// interfaces; which one a deployment uses is a config choice.
package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jwclark94/backninescrape/internal/domain"
)

// timestampLayout is the run/capture timestamp format used in both stores:
// local time, second precision, no zone suffix.
const timestampLayout = "2006-01-02T15:04:05"

// ObservationStore is the append-only audit trail. Every run's every
// location appends exactly one row; rows are never rewritten.
type ObservationStore interface {
	// Append writes one observation row.
	Append(ctx context.Context, total domain.DailyTotal) error

	// Observations returns all appended rows for a slug in insertion
	// order.
	Observations(ctx context.Context, slug string) ([]domain.DailyTotal, error)
}

// DailyMaxStore tracks the highest observed total per (slug, date) key.
type DailyMaxStore interface {
	// Merge folds one observation into the table: insert when the key is
	// absent, update only when the new total is strictly greater than the
	// stored one. Merging the same total twice is a no-op after the first.
	Merge(ctx context.Context, total domain.DailyTotal) error

	// Get returns the record for (slug, date) and whether it exists.
	Get(ctx context.Context, slug, date string) (domain.DailyMax, bool, error)

	// List returns all records, ordered by (slug, date).
	List(ctx context.Context) ([]domain.DailyMax, error)
}

// EventArchive keeps raw fetched events for later inspection, one file per
// (slug, date), deduplicated across runs.
type EventArchive interface {
	Archive(ctx context.Context, slug, date string, events []domain.BookingEvent) error
}

// Store combines the observation log and daily-max table, as both
// backends implement both.
type Store interface {
	ObservationStore
	DailyMaxStore

	// Close releases backend resources. A no-op for CSV.
	Close() error
}

// Open creates the store for the given backend ("csv" or "sqlite").
// CSV and SQLite paths are joined under dataDir, which is created if
// missing.
func Open(backend, dataDir, rawCSV, maxCSV, sqlitePath string) (Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dataDir, err)
	}
	switch backend {
	case "", "csv":
		return NewCSVStore(filepath.Join(dataDir, rawCSV), filepath.Join(dataDir, maxCSV)), nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dataDir, sqlitePath))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Round2 rounds hours to two decimal places, the precision both stores
// persist. Comparisons in Merge operate on rounded values so that a re-run
// producing the same on-disk value never counts as an increase.
func Round2(h float64) float64 {
	return math.Round(h*100) / 100
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

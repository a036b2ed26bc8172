package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/jwclark94/backninescrape/internal/domain"
)

// Compile-time interface check.
var _ EventArchive = (*ParquetArchive)(nil)

// ParquetArchive keeps the raw booking events fetched for each
// (slug, date) as Parquet files, so a surprising daily total can be traced
// back to the intervals that produced it. Layout:
//
//	<DataDir>/events/<slug>/<YYYY-MM-DD>.parquet
//
// Re-archiving the same day merges by event identity rather than
// duplicating rows.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates an archive rooted at the given data directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// EventRecord is the Parquet schema for archived booking events.
type EventRecord struct {
	ID    string `parquet:"id"`
	Title string `parquet:"title"`
	Start int64  `parquet:"start,timestamp(millisecond)"` // Unix ms, 0 when absent
	End   int64  `parquet:"end,timestamp(millisecond)"`
}

// Archive merges the events into the day's file and rewrites it.
func (a *ParquetArchive) Archive(_ context.Context, slug, date string, events []domain.BookingEvent) error {
	if len(events) == 0 {
		return nil
	}

	path := a.eventPath(slug, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating event archive dir: %w", err)
	}

	incoming := make([]EventRecord, 0, len(events))
	for _, e := range events {
		rec := EventRecord{ID: e.ID, Title: e.Title}
		if !e.Start.IsZero() {
			rec.Start = e.Start.UnixMilli()
		}
		if !e.End.IsZero() {
			rec.End = e.End.UnixMilli()
		}
		incoming = append(incoming, rec)
	}

	existing, _ := parquet.ReadFile[EventRecord](path)
	merged := mergeEventRecords(existing, incoming)

	if err := parquet.WriteFile(path, merged); err != nil {
		return fmt.Errorf("writing event archive for %s/%s: %w", slug, date, err)
	}
	return nil
}

// Events reads back the archived events for one (slug, date).
func (a *ParquetArchive) Events(slug, date string) ([]EventRecord, error) {
	records, err := parquet.ReadFile[EventRecord](a.eventPath(slug, date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// eventPath returns the archive path for one (slug, date).
func (a *ParquetArchive) eventPath(slug, date string) string {
	return filepath.Join(a.DataDir, "events", slug, date+".parquet")
}

// mergeEventRecords deduplicates records by event identity, preferring
// incoming over existing. Events without a source ID fall back to their
// interval plus title as identity. Results are sorted by start time.
func mergeEventRecords(existing, incoming []EventRecord) []EventRecord {
	identity := func(r EventRecord) string {
		if r.ID != "" {
			return r.ID
		}
		return fmt.Sprintf("%d|%d|%s", r.Start, r.End, r.Title)
	}

	seen := make(map[string]EventRecord, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))
	for _, r := range existing {
		k := identity(r)
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = r
	}
	for _, r := range incoming {
		k := identity(r)
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = r
	}

	merged := make([]EventRecord, 0, len(seen))
	for _, k := range order {
		merged = append(merged, seen[k])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}

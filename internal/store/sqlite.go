package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jwclark94/backninescrape/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements ObservationStore and DailyMaxStore backed by a
// SQLite database. The observations table is append-only; daily_max is
// keyed by (slug, date) with city as a display column.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	run_timestamp      TEXT NOT NULL,
	city               TEXT NOT NULL,
	slug               TEXT NOT NULL,
	date               TEXT NOT NULL,
	day_of_week        TEXT NOT NULL,
	total_booked_hours REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_slug ON observations(slug);

CREATE TABLE IF NOT EXISTS daily_max (
	slug                   TEXT NOT NULL,
	city                   TEXT NOT NULL,
	date                   TEXT NOT NULL,
	day_of_week            TEXT NOT NULL,
	max_total_booked_hours REAL NOT NULL,
	max_captured_at        TEXT NOT NULL,
	PRIMARY KEY (slug, date)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// ObservationStore implementation
// ---------------------------------------------------------------------------

// Append inserts one observation row.
func (s *SQLiteStore) Append(ctx context.Context, total domain.DailyTotal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO observations (run_timestamp, city, slug, date, day_of_week, total_booked_hours)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		formatTimestamp(total.ComputedAt),
		total.Location.City,
		total.Location.Slug,
		total.Day,
		domain.Weekday(total.Day),
		Round2(total.Hours),
	)
	if err != nil {
		return fmt.Errorf("inserting observation: %w", err)
	}
	return nil
}

// Observations returns all rows for a slug in insertion order.
func (s *SQLiteStore) Observations(ctx context.Context, slug string) ([]domain.DailyTotal, error) {
	query := `SELECT run_timestamp, city, slug, date, total_booked_hours FROM observations`
	args := []any{}
	if slug != "" {
		query += ` WHERE slug = ?`
		args = append(args, slug)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var totals []domain.DailyTotal
	for rows.Next() {
		var ts, city, rowSlug, date string
		var hours float64
		if err := rows.Scan(&ts, &city, &rowSlug, &date, &hours); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		totals = append(totals, domain.DailyTotal{
			Location:   domain.Location{City: city, Slug: rowSlug},
			Day:        date,
			Hours:      hours,
			ComputedAt: parseTimestamp(ts),
		})
	}
	return totals, rows.Err()
}

// ---------------------------------------------------------------------------
// DailyMaxStore implementation
// ---------------------------------------------------------------------------

// Merge inserts or raises the (slug, date) record inside one transaction.
func (s *SQLiteStore) Merge(ctx context.Context, total domain.DailyTotal) error {
	hours := Round2(total.Hours)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting merge transaction: %w", err)
	}
	defer tx.Rollback()

	var prev float64
	err = tx.QueryRowContext(ctx,
		`SELECT max_total_booked_hours FROM daily_max WHERE slug = ? AND date = ?`,
		total.Location.Slug, total.Day,
	).Scan(&prev)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO daily_max (slug, city, date, day_of_week, max_total_booked_hours, max_captured_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			total.Location.Slug,
			total.Location.City,
			total.Day,
			domain.Weekday(total.Day),
			hours,
			formatTimestamp(total.ComputedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting daily max: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading daily max: %w", err)
	case hours > prev:
		_, err = tx.ExecContext(ctx,
			`UPDATE daily_max SET max_total_booked_hours = ?, max_captured_at = ? WHERE slug = ? AND date = ?`,
			hours,
			formatTimestamp(total.ComputedAt),
			total.Location.Slug,
			total.Day,
		)
		if err != nil {
			return fmt.Errorf("updating daily max: %w", err)
		}
	default:
		// Not strictly greater: keep the existing peak and its timestamp.
		return nil
	}

	return tx.Commit()
}

// Get returns the record for (slug, date) and whether it exists.
func (s *SQLiteStore) Get(ctx context.Context, slug, date string) (domain.DailyMax, bool, error) {
	var rec domain.DailyMax
	var capturedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT city, slug, date, max_total_booked_hours, max_captured_at FROM daily_max WHERE slug = ? AND date = ?`,
		slug, date,
	).Scan(&rec.Location.City, &rec.Location.Slug, &rec.Day, &rec.Hours, &capturedAt)
	if err == sql.ErrNoRows {
		return domain.DailyMax{}, false, nil
	}
	if err != nil {
		return domain.DailyMax{}, false, fmt.Errorf("reading daily max: %w", err)
	}
	rec.CapturedAt = parseTimestamp(capturedAt)
	return rec, true, nil
}

// List returns all records ordered by (slug, date).
func (s *SQLiteStore) List(ctx context.Context) ([]domain.DailyMax, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, slug, date, max_total_booked_hours, max_captured_at FROM daily_max ORDER BY slug, date`)
	if err != nil {
		return nil, fmt.Errorf("querying daily max: %w", err)
	}
	defer rows.Close()

	var records []domain.DailyMax
	for rows.Next() {
		var rec domain.DailyMax
		var capturedAt string
		if err := rows.Scan(&rec.Location.City, &rec.Location.Slug, &rec.Day, &rec.Hours, &capturedAt); err != nil {
			return nil, fmt.Errorf("scanning daily max: %w", err)
		}
		rec.CapturedAt = parseTimestamp(capturedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

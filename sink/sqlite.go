package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cK0nrad/tec-fetcher/model"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite-backed sink at the given path. Meant for
// single-host deployments where running Postgres is overkill.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS transport_data (
    timestamp INTEGER NOT NULL,
    id TEXT NOT NULL,
    line TEXT,
    line_id TEXT,
    trip_id TEXT,
    agency_id TEXT,
    latitude REAL,
    longitude REAL,
    speed REAL,
    average_speed REAL,
    next_stop INTEGER,
    theorical_stop INTEGER,
    delay REAL,
    PRIMARY KEY (timestamp, id)
);
`)
	if err != nil {
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Insert(ctx context.Context, batch []model.Bus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO transport_data (
    timestamp, id, line, line_id, trip_id, agency_id,
    latitude, longitude, speed, average_speed,
    next_stop, theorical_stop, delay)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (timestamp, id) DO UPDATE SET
    line = excluded.line,
    line_id = excluded.line_id,
    trip_id = excluded.trip_id,
    agency_id = excluded.agency_id,
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    speed = excluded.speed,
    average_speed = excluded.average_speed,
    next_stop = excluded.next_stop,
    theorical_stop = excluded.theorical_stop,
    delay = excluded.delay
`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, bus := range batch {
		_, err = stmt.ExecContext(ctx,
			int64(bus.Timestamp),
			bus.ID,
			bus.Line,
			bus.LineID,
			bus.TripID,
			bus.AgencyID,
			float64(bus.Latitude),
			float64(bus.Longitude),
			bus.Speed,
			bus.AverageSpeed,
			bus.NextStop,
			bus.TheoricalStop,
			bus.Delay,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting bus %s: %w", bus.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

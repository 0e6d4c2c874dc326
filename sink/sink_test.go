package sink

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cK0nrad/tec-fetcher/model"
)

func sampleBatch() []model.Bus {
	return []model.Bus{
		{
			Timestamp:     1700000000,
			ID:            "veh-1",
			Line:          "48",
			LineID:        "r48",
			TripID:        "t1",
			AgencyID:      "TEC",
			Latitude:      50.63,
			Longitude:     5.57,
			Speed:         27,
			AverageSpeed:  25.5,
			NextStop:      1,
			TheoricalStop: 1,
			Delay:         12.5,
		},
		{
			Timestamp: 1700000000,
			ID:        "veh-2",
			Latitude:  50.65,
			Longitude: 5.57,
		},
	}
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM transport_data").Scan(&n))
	return n
}

func TestSQLiteInsertAndUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Insert(context.Background(), sampleBatch()))
	assert.Equal(t, 2, countRows(t, s.db))

	// Same (timestamp, id): all non-key fields are overwritten,
	// no new row appears.
	updated := sampleBatch()
	updated[0].Delay = -3
	updated[0].Speed = 14
	require.NoError(t, s.Insert(context.Background(), updated))
	assert.Equal(t, 2, countRows(t, s.db))

	var delay float64
	var speed float32
	require.NoError(t, s.db.QueryRow(
		"SELECT delay, speed FROM transport_data WHERE id = ? AND timestamp = ?",
		"veh-1", 1700000000,
	).Scan(&delay, &speed))
	assert.Equal(t, -3.0, delay)
	assert.Equal(t, float32(14), speed)
}

func TestSQLiteEmptyBatch(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "transport.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Insert(context.Background(), nil))
	assert.Equal(t, 0, countRows(t, s.db))
}

// Postgres behavior matches SQLite; the test only runs against a real
// server.
func TestPostgresInsertAndUpsert(t *testing.T) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	p, err := NewPostgres(connStr)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.db.Exec("DELETE FROM transport_data")
	require.NoError(t, err)

	require.NoError(t, p.Insert(context.Background(), sampleBatch()))
	assert.Equal(t, 2, countRows(t, p.db))

	updated := sampleBatch()
	updated[0].Delay = -3
	require.NoError(t, p.Insert(context.Background(), updated))
	assert.Equal(t, 2, countRows(t, p.db))
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Insert(context.Background(), sampleBatch()))
	require.NoError(t, m.Insert(context.Background(), nil))

	batches := m.Batches()
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Empty(t, batches[1])
}

package testutil

// Helpers and fixtures for tests.

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cK0nrad/tec-fetcher/schedule"
)

// ScheduleFiles is a minimal consistent dataset: one route, one trip,
// three stops sitting on a five-point collinear shape.
func ScheduleFiles() map[string]string {
	return map[string]string{
		"agency.txt": `
agency_id,agency_name
TEC,Transport wallon`,
		"routes.txt": `
route_id,agency_id,route_short_name
r48,TEC,48`,
		"stops.txt": `
stop_id,stop_name,stop_lat,stop_lon
sA,Alpha,50.63,5.57
sB,Beta,50.65,5.57
sC,Gamma,50.67,5.57`,
		"trips.txt": `
route_id,trip_id,shape_id
r48,t1,sh1`,
		"stop_times.txt": `
trip_id,arrival_time,stop_id,stop_sequence
t1,00:10:00,sA,1
t1,00:12:00,sB,2
t1,00:14:00,sC,3`,
		"shapes.txt": `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
sh1,50.63,5.57,1
sh1,50.64,5.57,2
sh1,50.65,5.57,3
sh1,50.66,5.57,4
sh1,50.67,5.57,5`,
	}
}

// ScheduleDir writes a schedule dataset to a temp directory and
// returns its path.
func ScheduleDir(t testing.TB, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		err := os.WriteFile(
			filepath.Join(dir, name),
			[]byte(strings.TrimLeft(content, "\n")),
			0644,
		)
		require.NoError(t, err)
	}
	return dir
}

// LoadSchedule builds an Index from the default fixture dataset.
func LoadSchedule(t testing.TB) *schedule.Index {
	t.Helper()

	ix, err := schedule.Load(ScheduleDir(t, ScheduleFiles()))
	require.NoError(t, err)
	return ix
}

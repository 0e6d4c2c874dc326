package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(strings.TrimLeft(content, "\n")), 0644)
		require.NoError(t, err)
	}
	return dir
}

func validDataset() map[string]string {
	return map[string]string{
		"agency.txt": `
agency_id,agency_name
TEC,Transport wallon`,
		"routes.txt": `
route_id,agency_id,route_short_name,route_long_name
r1,TEC,48,Centre - Campus`,
		"stops.txt": `
stop_id,stop_name,stop_lat,stop_lon
sA,Alpha,50.60,5.50
sB,Beta,50.62,5.52
sC,Gamma,,`,
		"trips.txt": `
route_id,trip_id,shape_id
r1,t1,sh1`,
		"stop_times.txt": `
trip_id,arrival_time,stop_id,stop_sequence
t1,08:00:00,sA,1
t1,08:05:00,sB,2`,
		"shapes.txt": `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
sh1,50.60,5.50,1
sh1,50.61,5.51,2
sh1,50.62,5.52,3`,
	}
}

func TestParseStaticFullDataset(t *testing.T) {
	dir := writeDataset(t, validDataset())

	static, err := ParseStatic(dir)
	require.NoError(t, err)

	require.Contains(t, static.Routes, "r1")
	assert.Equal(t, "48", static.Routes["r1"].ShortName)
	assert.Equal(t, "TEC", static.Routes["r1"].AgencyID)

	require.Contains(t, static.Trips, "t1")
	trip := static.Trips["t1"]
	assert.Equal(t, "r1", trip.RouteID)
	assert.Equal(t, "sh1", trip.ShapeID)
	require.Len(t, trip.StopTimes, 2)
	assert.Equal(t, "sA", trip.StopTimes[0].Stop.ID)
	assert.Equal(t, uint32(28800), *trip.StopTimes[0].Arrival)

	require.Contains(t, static.Shapes, "sh1")
	assert.Len(t, static.Shapes["sh1"], 3)
}

func TestParseStaticStopWithoutCoords(t *testing.T) {
	files := validDataset()
	files["stop_times.txt"] = `
trip_id,arrival_time,stop_id,stop_sequence
t1,08:00:00,sA,1
t1,08:02:00,sC,2
t1,08:05:00,sB,3`

	static, err := ParseStatic(writeDataset(t, files))
	require.NoError(t, err)

	trip := static.Trips["t1"]
	require.Len(t, trip.StopTimes, 3)
	assert.False(t, trip.StopTimes[1].Stop.HasCoords)
	assert.True(t, trip.StopTimes[0].Stop.HasCoords)
}

func TestParseStaticShapesOptional(t *testing.T) {
	files := validDataset()
	delete(files, "shapes.txt")

	static, err := ParseStatic(writeDataset(t, files))
	require.NoError(t, err)
	assert.Empty(t, static.Shapes)
}

func TestParseStaticMissingRequiredFile(t *testing.T) {
	for _, name := range []string{"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt"} {
		t.Run(name, func(t *testing.T) {
			files := validDataset()
			delete(files, name)

			_, err := ParseStatic(writeDataset(t, files))
			assert.Error(t, err)
		})
	}
}

func TestParseStaticBadReferences(t *testing.T) {
	files := validDataset()
	files["trips.txt"] = `
route_id,trip_id,shape_id
r9,t1,sh1`

	_, err := ParseStatic(writeDataset(t, files))
	assert.ErrorContains(t, err, "unknown route_id")
}

func TestParseShapesOrderedBySequence(t *testing.T) {
	content := `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
sh1,50.62,5.52,3
sh1,50.60,5.50,1
sh1,50.61,5.51,2`

	shapes, err := ParseShapes(strings.NewReader(strings.TrimLeft(content, "\n")))
	require.NoError(t, err)
	require.Len(t, shapes["sh1"], 3)
	assert.Equal(t, 50.60, shapes["sh1"][0].Lat)
	assert.Equal(t, 50.61, shapes["sh1"][1].Lat)
	assert.Equal(t, 50.62, shapes["sh1"][2].Lat)
}

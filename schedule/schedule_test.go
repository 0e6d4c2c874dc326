package schedule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cK0nrad/tec-fetcher/model"
	"github.com/cK0nrad/tec-fetcher/parse"
)

func TestNewBuildsReverseCache(t *testing.T) {
	stops, shape := collinearFixture()

	trip := &model.Trip{ID: "t1", RouteID: "r1", ShapeID: "sh1", StopTimes: stops}
	static := &parse.Static{
		Routes: map[string]*model.Route{"r1": {ID: "r1", ShortName: "48", AgencyID: "TEC"}},
		Trips:  map[string]*model.Trip{"t1": trip},
		Shapes: map[string][]model.ShapePoint{"sh1": shape},
	}

	ix := New(static)

	route, found := ix.Route("r1")
	require.True(t, found)
	assert.Equal(t, "48", route.ShortName)

	_, found = ix.Route("r9")
	assert.False(t, found)

	gotTrip, found := ix.Trip("t1")
	require.True(t, found)
	assert.Len(t, gotTrip.StopTimes, 3)

	gotShape, found := ix.Shape("sh1")
	require.True(t, found)
	assert.Len(t, gotShape, 5)

	tables, found := ix.ReverseTables("t1")
	require.True(t, found)
	assert.Equal(t, []int{0, 2, 4}, tables.StopToShape)
}

func TestNewSkipsTripsWithoutUsableShape(t *testing.T) {
	stops, _ := collinearFixture()

	static := &parse.Static{
		Routes: map[string]*model.Route{"r1": {ID: "r1"}},
		Trips: map[string]*model.Trip{
			"no-shape-id": {ID: "no-shape-id", RouteID: "r1", StopTimes: stops},
			"shape-gone":  {ID: "shape-gone", RouteID: "r1", ShapeID: "nope", StopTimes: stops},
			"no-stops":    {ID: "no-stops", RouteID: "r1", ShapeID: "sh1"},
		},
		Shapes: map[string][]model.ShapePoint{},
	}

	ix := New(static)
	for _, id := range []string{"no-shape-id", "shape-gone", "no-stops"} {
		_, found := ix.ReverseTables(id)
		assert.False(t, found, id)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"agency.txt": "agency_id,agency_name\nTEC,Transport wallon",
		"routes.txt": "route_id,agency_id,route_short_name\nr1,TEC,48",
		"stops.txt":  "stop_id,stop_name,stop_lat,stop_lon\nsA,Alpha,50.60,5.50\nsB,Beta,50.62,5.52",
		"trips.txt":  "route_id,trip_id,shape_id\nr1,t1,sh1",
		"stop_times.txt": strings.Join([]string{
			"trip_id,arrival_time,stop_id,stop_sequence",
			"t1,08:00:00,sA,1",
			"t1,08:05:00,sB,2",
		}, "\n"),
		"shapes.txt": strings.Join([]string{
			"shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence",
			"sh1,50.60,5.50,1",
			"sh1,50.61,5.51,2",
			"sh1,50.62,5.52,3",
		}, "\n"),
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	ix, err := Load(dir)
	require.NoError(t, err)

	_, found := ix.Trip("t1")
	assert.True(t, found)
	_, found = ix.ReverseTables("t1")
	assert.True(t, found)

	_, err = Load(t.TempDir())
	assert.Error(t, err)
}

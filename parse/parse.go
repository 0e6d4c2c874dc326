// Package parse decodes a static transit schedule from a directory of
// GTFS tabular files into in-memory lookup maps.
package parse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"github.com/cK0nrad/tec-fetcher/model"
)

// Static holds a fully parsed schedule dataset.
type Static struct {
	Routes map[string]*model.Route
	Trips  map[string]*model.Trip
	Shapes map[string][]model.ShapePoint
}

// ParseStatic reads a schedule from dir. agency.txt, routes.txt,
// stops.txt, trips.txt and stop_times.txt are required; shapes.txt is
// optional (trips without a shape simply get no polyline).
func ParseStatic(dir string) (*Static, error) {
	// These are the files we load for static dumps.
	file := map[string]io.ReadCloser{
		"agency.txt":     nil,
		"routes.txt":     nil,
		"stops.txt":      nil,
		"trips.txt":      nil,
		"stop_times.txt": nil,
		"shapes.txt":     nil,
	}

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	for name := range file {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		file[name] = f
	}

	for _, required := range []string{"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt"} {
		if file[required] == nil {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	agencies, err := ParseAgencies(file["agency.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing agency.txt: %w", err)
	}

	routes, err := ParseRoutes(file["routes.txt"], agencies)
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt: %w", err)
	}

	stops, err := ParseStops(file["stops.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt: %w", err)
	}

	trips, err := ParseTrips(file["trips.txt"], routes)
	if err != nil {
		return nil, fmt.Errorf("parsing trips.txt: %w", err)
	}

	if err := ParseStopTimes(file["stop_times.txt"], trips, stops); err != nil {
		return nil, fmt.Errorf("parsing stop_times.txt: %w", err)
	}

	shapes := map[string][]model.ShapePoint{}
	if file["shapes.txt"] != nil {
		shapes, err = ParseShapes(file["shapes.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing shapes.txt: %w", err)
		}
	}

	return &Static{
		Routes: routes,
		Trips:  trips,
		Shapes: shapes,
	}, nil
}

package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cK0nrad/tec-fetcher/model"
)

type TripCSV struct {
	ID      string `csv:"trip_id"`
	RouteID string `csv:"route_id"`
	ShapeID string `csv:"shape_id"`
	// ServiceID   string `csv:"service_id"`
	// Headsign    string `csv:"trip_headsign"`
	// DirectionID int8   `csv:"direction_id"`
	// BlockID     string `csv:"block_id"`
}

func ParseTrips(data io.Reader, routes map[string]*model.Route) (map[string]*model.Trip, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling trips csv: %w", err)
	}

	trips := map[string]*model.Trip{}
	for _, t := range tripCsv {
		if t.ID == "" {
			return nil, fmt.Errorf("empty trip_id")
		}
		if _, found := trips[t.ID]; found {
			return nil, fmt.Errorf("repeated trip_id '%s'", t.ID)
		}
		if t.RouteID == "" {
			return nil, fmt.Errorf("empty route_id for trip '%s'", t.ID)
		}
		if _, found := routes[t.RouteID]; !found {
			return nil, fmt.Errorf("unknown route_id '%s'", t.RouteID)
		}

		trips[t.ID] = &model.Trip{
			ID:      t.ID,
			RouteID: t.RouteID,
			ShapeID: t.ShapeID,
		}
	}

	return trips, nil
}

package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cK0nrad/tec-fetcher/model"
)

type StopCSV struct {
	ID   string   `csv:"stop_id"`
	Name string   `csv:"stop_name"`
	Lat  *float64 `csv:"stop_lat,omitempty"`
	Lon  *float64 `csv:"stop_lon,omitempty"`
	// Code          string `csv:"stop_code"`
	// Desc          string `csv:"stop_desc"`
	// LocationType  int8   `csv:"location_type"`
	// ParentStation string `csv:"parent_station"`
}

// ParseStops reads stops.txt. Missing coordinates are tolerated: the
// matching stage skips such stops rather than failing the load.
func ParseStops(data io.Reader) (map[string]*model.Stop, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stops := map[string]*model.Stop{}
	for _, st := range stopCsv {
		if st.ID == "" {
			return nil, fmt.Errorf("empty stop_id")
		}
		if _, found := stops[st.ID]; found {
			return nil, fmt.Errorf("repeated stop_id '%s'", st.ID)
		}

		stop := &model.Stop{
			ID:   st.ID,
			Name: st.Name,
		}
		if st.Lat != nil && st.Lon != nil {
			stop.Lat = *st.Lat
			stop.Lon = *st.Lon
			stop.HasCoords = true
		}

		stops[st.ID] = stop
	}

	return stops, nil
}

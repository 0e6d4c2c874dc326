package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cK0nrad/tec-fetcher/model"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	// Desc      string `csv:"route_desc"`
	// Type      string `csv:"route_type"`
	// Color     string `csv:"route_color"`
	// TextColor string `csv:"route_text_color"`
}

func ParseRoutes(data io.Reader, agencies map[string]bool) (map[string]*model.Route, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling routes csv: %w", err)
	}

	routes := map[string]*model.Route{}
	for _, r := range routeCsv {
		if r.ID == "" {
			return nil, fmt.Errorf("route has no route_id")
		}
		if _, found := routes[r.ID]; found {
			return nil, fmt.Errorf("repeated route_id: '%s'", r.ID)
		}

		// If multiple agencies, agency_id is required
		if len(agencies) > 1 && r.AgencyID == "" {
			return nil, fmt.Errorf("route_id '%s' has no agency_id", r.ID)
		}

		// Agency (if set) must be known from agency.txt
		if r.AgencyID != "" && !agencies[r.AgencyID] {
			return nil, fmt.Errorf("unknown agency_id: '%s'", r.AgencyID)
		}

		// ShortName or LongName is required
		if r.ShortName == "" && r.LongName == "" {
			return nil, fmt.Errorf("route_id '%s' has no short_name or long_name", r.ID)
		}

		routes[r.ID] = &model.Route{
			ID:        r.ID,
			AgencyID:  r.AgencyID,
			ShortName: r.ShortName,
		}
	}

	return routes, nil
}

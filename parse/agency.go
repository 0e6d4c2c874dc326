package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

type AgencyCSV struct {
	ID   string `csv:"agency_id"`
	Name string `csv:"agency_name"`
	// URL      string `csv:"agency_url"`
	// Timezone string `csv:"agency_timezone"`
	// Lang     string `csv:"agency_lang"`
}

// ParseAgencies returns the set of agency IDs. Only the IDs matter to
// the pipeline: they validate route references and end up on enriched
// records verbatim.
func ParseAgencies(data io.Reader) (map[string]bool, error) {
	agencyCsv := []*AgencyCSV{}
	if err := gocsv.Unmarshal(data, &agencyCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling agency csv: %w", err)
	}

	if len(agencyCsv) == 0 {
		return nil, fmt.Errorf("no agency record found")
	}

	agencies := map[string]bool{}
	for _, a := range agencyCsv {
		if agencies[a.ID] {
			return nil, fmt.Errorf("duplicated agency_id: '%s'", a.ID)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("missing agency_name")
		}
		agencies[a.ID] = true
	}

	return agencies, nil
}

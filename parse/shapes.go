package parse

import (
	"fmt"
	"io"
	"sort"

	"github.com/gocarina/gocsv"

	"github.com/cK0nrad/tec-fetcher/model"
)

type ShapeCSV struct {
	ID       string  `csv:"shape_id"`
	Lat      float64 `csv:"shape_pt_lat"`
	Lon      float64 `csv:"shape_pt_lon"`
	Sequence int     `csv:"shape_pt_sequence"`
	// DistTraveled string `csv:"shape_dist_traveled"`
}

// ParseShapes reads shapes.txt into polylines ordered by point
// sequence.
func ParseShapes(data io.Reader) (map[string][]model.ShapePoint, error) {
	type record struct {
		seq   int
		point model.ShapePoint
	}
	byShape := map[string][]record{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(sp *ShapeCSV) error {
		i += 1
		if sp.ID == "" {
			return fmt.Errorf("missing shape_id (row %d)", i+1)
		}

		byShape[sp.ID] = append(byShape[sp.ID], record{
			seq:   sp.Sequence,
			point: model.ShapePoint{Lat: sp.Lat, Lon: sp.Lon},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshaling shapes csv: %w", err)
	}

	shapes := map[string][]model.ShapePoint{}
	for id, records := range byShape {
		sort.Slice(records, func(i, j int) bool {
			return records[i].seq < records[j].seq
		})

		points := make([]model.ShapePoint, len(records))
		for i, r := range records {
			points[i] = r.point
		}
		shapes[id] = points
	}

	return shapes, nil
}

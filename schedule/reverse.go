package schedule

import (
	"math"

	"github.com/cK0nrad/tec-fetcher/geo"
	"github.com/cK0nrad/tec-fetcher/model"
)

// ReverseTables link a trip's stop sequence and its polyline in both
// directions.
type ReverseTables struct {
	// StopToShape[i] is the index of the shape point nearest to
	// stop i.
	StopToShape []int

	// ShapeToStop[j] is the index of the stop a vehicle at shape
	// point j is heading for. Weakly monotonically increasing
	// along the polyline.
	ShapeToStop []int
}

// buildReverseTables computes both tables. Returns ok=false when a
// stop without coordinates (or an empty input) leaves a table
// incomplete; callers then fall back to partial enrichment.
func buildReverseTables(stops []model.StopTime, shape []model.ShapePoint) (*ReverseTables, bool) {
	stopToShape := make([]int, 0, len(stops))

	last := 0
	for _, st := range stops {
		if !st.Stop.HasCoords {
			continue
		}

		smallest := math.Inf(1)
		for i, p := range shape {
			dist := geo.PlanarSq(p.Lat, p.Lon, st.Stop.Lat, st.Stop.Lon)
			if dist < smallest {
				smallest = dist
				last = i
			}
		}
		stopToShape = append(stopToShape, last)
	}

	if len(stopToShape) != len(stops) || len(stopToShape) == 0 {
		return nil, false
	}

	shapeToStop := make([]int, 0, len(shape))

	last = 0
	for j, p := range shape {
		smallest := math.Inf(1)
		for i, st := range stops {
			if !st.Stop.HasCoords {
				continue
			}

			dist := geo.PlanarSq(p.Lat, p.Lon, st.Stop.Lat, st.Stop.Lon)
			if dist < smallest {
				smallest = dist
				last = i
			}
		}

		// Once this shape point has passed the shape position
		// associated with the nearest stop, the vehicle is
		// heading for the following stop. Keeps the table
		// weakly increasing along the polyline.
		if last < len(stops)-1 && stopToShape[last] <= j {
			last++
		}

		shapeToStop = append(shapeToStop, last)
	}

	if len(shapeToStop) != len(shape) || len(shapeToStop) == 0 {
		return nil, false
	}

	return &ReverseTables{
		StopToShape: stopToShape,
		ShapeToStop: shapeToStop,
	}, true
}

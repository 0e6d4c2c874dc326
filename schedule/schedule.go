// Package schedule provides an immutable-after-load index over a
// static transit schedule: routes, trips with ordered stop sequences,
// and trip polylines.
package schedule

import (
	"fmt"

	"github.com/cK0nrad/tec-fetcher/model"
	"github.com/cK0nrad/tec-fetcher/parse"
)

// Index is the read side of a loaded schedule. It is never mutated
// after construction; reloads build a fresh Index and swap the
// pointer.
type Index struct {
	routes  map[string]*model.Route
	trips   map[string]*model.Trip
	shapes  map[string][]model.ShapePoint
	reverse map[string]*ReverseTables
}

// Load parses the schedule dataset in dir and builds the index,
// including the per-trip reverse tables. The parse is CPU- and
// I/O-heavy; callers run it off the serving path.
func Load(dir string) (*Index, error) {
	static, err := parse.ParseStatic(dir)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	return New(static), nil
}

// New builds an Index from parsed schedule data.
func New(static *parse.Static) *Index {
	ix := &Index{
		routes:  static.Routes,
		trips:   static.Trips,
		shapes:  static.Shapes,
		reverse: map[string]*ReverseTables{},
	}

	// Reverse tables depend only on schedule geometry, so they are
	// computed once per trip here instead of once per sighting.
	for id, trip := range ix.trips {
		if trip.ShapeID == "" || len(trip.StopTimes) == 0 {
			continue
		}
		shape, found := ix.shapes[trip.ShapeID]
		if !found {
			continue
		}
		if tables, ok := buildReverseTables(trip.StopTimes, shape); ok {
			ix.reverse[id] = tables
		}
	}

	return ix
}

func (ix *Index) Route(id string) (*model.Route, bool) {
	r, found := ix.routes[id]
	return r, found
}

func (ix *Index) Trip(id string) (*model.Trip, bool) {
	t, found := ix.trips[id]
	return t, found
}

func (ix *Index) Shape(id string) ([]model.ShapePoint, bool) {
	s, found := ix.shapes[id]
	return s, found
}

// ReverseTables returns the precomputed stop/shape matching for a
// trip. Absent when the trip has no usable shape, or when table
// construction failed validation.
func (ix *Index) ReverseTables(tripID string) (*ReverseTables, bool) {
	t, found := ix.reverse[tripID]
	return t, found
}

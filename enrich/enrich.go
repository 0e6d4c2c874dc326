// Package enrich turns raw feed entities into Bus records with
// schedule context: matched polyline position, upcoming stop,
// remaining distance and delay.
package enrich

import (
	"math"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"go.uber.org/zap"

	"github.com/cK0nrad/tec-fetcher/geo"
	"github.com/cK0nrad/tec-fetcher/model"
	"github.com/cK0nrad/tec-fetcher/schedule"
	"github.com/cK0nrad/tec-fetcher/speed"
)

// Enricher runs the per-vehicle pipeline. It is safe for concurrent
// use: all state lives in its collaborators.
type Enricher struct {
	log *zap.Logger

	// now is replaceable in tests. Wall-clock time backs both the
	// timestamp fallback and the schedule clock.
	now func() time.Time
}

func New(log *zap.Logger) *Enricher {
	return &Enricher{log: log, now: time.Now}
}

// Enrich produces a Bus for one feed entity. Entities without a vehicle,
// a position or an id yield nil; a missing timestamp falls back to the
// wall clock. Missing schedule
// context degrades to a partial record: the fields derived so far are
// kept and the rest stay at their defaults. A stop pair without
// arrival times aborts the record entirely.
func (e *Enricher) Enrich(entity *gtfsproto.FeedEntity, ix *schedule.Index, tracker *speed.Tracker) *model.Bus {
	vehicle := entity.GetVehicle()
	if vehicle == nil {
		return nil
	}
	position := vehicle.GetPosition()
	if position == nil || position.Latitude == nil || position.Longitude == nil {
		return nil
	}
	if entity.Id == nil {
		return nil
	}
	id := entity.GetId()

	timestamp := vehicle.GetTimestamp()
	if vehicle.Timestamp == nil {
		timestamp = uint64(e.now().Unix())
	}

	latitude := position.GetLatitude()
	longitude := position.GetLongitude()

	bus := &model.Bus{
		Timestamp: timestamp,
		ID:        id,
		Latitude:  latitude,
		Longitude: longitude,
		Speed:     position.GetSpeed(),
	}

	// Every sighted vehicle feeds the rolling window, schedule
	// context or not. Absent speeds count as 0.
	bus.AverageSpeed, bus.AverageCount = tracker.Observe(id, position.GetSpeed())

	trip := vehicle.GetTrip()
	if trip == nil || trip.RouteId == nil {
		return bus
	}
	bus.LineID = trip.GetRouteId()

	route, found := ix.Route(bus.LineID)
	if !found || route.ShortName == "" || route.AgencyID == "" {
		e.log.Warn("no line (or agency) found", zap.String("line_id", bus.LineID))
		return bus
	}
	bus.Line = route.ShortName
	bus.AgencyID = route.AgencyID

	if trip.TripId == nil {
		return bus
	}
	bus.TripID = trip.GetTripId()

	scheduledTrip, found := ix.Trip(bus.TripID)
	if !found {
		e.log.Warn("no trip found", zap.String("trip_id", bus.TripID))
		return bus
	}

	if scheduledTrip.ShapeID == "" {
		return bus
	}
	shape, found := ix.Shape(scheduledTrip.ShapeID)
	if !found {
		e.log.Warn("no shape found", zap.String("shape_id", scheduledTrip.ShapeID))
		return bus
	}

	stops := scheduledTrip.StopTimes
	if len(stops) == 0 {
		return bus
	}

	tables, found := ix.ReverseTables(scheduledTrip.ID)
	if !found {
		e.log.Warn("no stop/shape matching for trip", zap.String("trip_id", scheduledTrip.ID))
		return bus
	}

	shapeIdx, found := nearestShapePoint(shape, latitude, longitude)
	if !found {
		return bus
	}

	nextStop := tables.ShapeToStop[shapeIdx]
	bus.NextStop = nextStop

	currentTime := e.currentTime(stops)

	bus.TheoricalStop = theoricalStop(stops, currentTime)

	remaining := remainingDistance(shape, shapeIdx, latitude, longitude, tables.StopToShape[nextStop])
	bus.RemainingDistance = remaining

	segmentTimes, totalDistance, ok := nextStopData(stops, shape, tables.StopToShape, nextStop)
	if !ok {
		return nil
	}

	// Coarse shapes can map both bracketing stops to the same (or
	// out-of-order) shape point, leaving a zero-length segment.
	// Projecting onto it would put a non-finite delay in the
	// record and break JSON encoding of the whole snapshot, so
	// the delay stays at its default instead.
	if totalDistance > 0 {
		bus.Delay = delay(currentTime, segmentTimes, remaining, totalDistance)
	}

	return bus
}

// nearestShapePoint ranks polyline vertices by the planar proxy and
// returns the closest one.
func nearestShapePoint(shape []model.ShapePoint, latitude, longitude float32) (int, bool) {
	if len(shape) == 0 {
		return 0, false
	}

	best := 0
	smallest := math.Inf(1)
	for i, p := range shape {
		dist := geo.PlanarSq(p.Lat, p.Lon, float64(latitude), float64(longitude))
		if dist < smallest {
			smallest = dist
			best = i
		}
	}
	return best, true
}

// currentTime is the schedule clock: seconds of day, pushed past 86400
// when the trip's service day wraps midnight and the wall clock has
// already rolled over.
func (e *Enricher) currentTime(stops []model.StopTime) uint32 {
	currentTime := geo.SecondsSinceMidnight(e.now())

	if len(stops) == 0 {
		return currentTime
	}
	firstArrival := stops[0].Arrival
	lastArrival := stops[len(stops)-1].Arrival
	if firstArrival == nil || lastArrival == nil {
		return currentTime
	}

	if currentTime < *firstArrival && *lastArrival > 86400 {
		currentTime += 86400
	}

	return currentTime
}

// theoricalStop is the stop the schedule says the vehicle should be
// heading for: the first stop with an arrival after the current time,
// or the last stop when the trip should already be over.
func theoricalStop(stops []model.StopTime, currentTime uint32) int {
	for i, st := range stops {
		if st.Arrival != nil && *st.Arrival > currentTime {
			return i
		}
	}
	return len(stops) - 1
}

// remainingDistance is the vehicle's distance to its nearest shape
// point plus the along-shape distance from there to the shape point
// just before the next stop's shape position (the last leg into the
// stop is not counted). The sum stops at the end of the shape.
func remainingDistance(shape []model.ShapePoint, shapeIdx int, latitude, longitude float32, nextStopShapeIdx int) float64 {
	nearest := shape[shapeIdx]
	remaining := geo.Distance(float64(latitude), float64(longitude), nearest.Lat, nearest.Lon)

	for i := shapeIdx; i < nextStopShapeIdx-1; i++ {
		if i == len(shape)-1 {
			break
		}
		remaining += geo.Distance(shape[i].Lat, shape[i].Lon, shape[i+1].Lat, shape[i+1].Lon)
	}

	return remaining
}

// nextStopData returns the arrival times of the stop pair bracketing
// the vehicle, and the along-shape distance between them. ok is false
// when either arrival time is missing or the pair does not exist; the
// record is then dropped.
func nextStopData(stops []model.StopTime, shape []model.ShapePoint, stopToShape []int, nextStop int) ([2]uint32, float64, bool) {
	first, last := nextStop-1, nextStop
	if nextStop == 0 {
		first, last = 0, 1
	}
	if last >= len(stops) {
		return [2]uint32{}, 0, false
	}

	firstArrival := stops[first].Arrival
	lastArrival := stops[last].Arrival
	if firstArrival == nil || lastArrival == nil {
		return [2]uint32{}, 0, false
	}

	var totalDistance float64
	for i := stopToShape[first]; i < stopToShape[last]; i++ {
		if i == len(shape)-1 {
			break
		}
		totalDistance += geo.Distance(shape[i].Lat, shape[i].Lon, shape[i+1].Lat, shape[i+1].Lon)
	}

	return [2]uint32{*firstArrival, *lastArrival}, totalDistance, true
}

// delay projects the scheduled travel time of the current segment onto
// the remaining distance. Positive is behind schedule.
func delay(currentTime uint32, segmentTimes [2]uint32, remaining, totalDistance float64) float64 {
	segment := float64(segmentTimes[1] - segmentTimes[0])
	projected := segment / totalDistance * remaining

	return float64(currentTime) + projected - float64(segmentTimes[1])
}

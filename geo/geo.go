// Package geo holds the small amount of spherical and planar math the
// enrichment pipeline needs.
package geo

import (
	"math"
	"time"
)

// Earth radius used for great-circle distances, in kilometers.
const earthRadiusKm = 6378.137

// Distance returns the great-circle distance between two points in
// meters, using the haversine formula. Inputs are degrees.
func Distance(aLat, aLon, bLat, bLon float64) float64 {
	dLat := radians(bLat - aLat)
	dLon := radians(bLon - aLon)

	lat1 := radians(aLat)
	lat2 := radians(bLat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c * 1000
}

// PlanarSq returns (Δlat)² + (Δlon)² in degrees². It is a monotone
// proxy for ranking nearby points, never a true distance.
func PlanarSq(aLat, aLon, bLat, bLon float64) float64 {
	dLat := aLat - bLat
	dLon := aLon - bLon
	return dLat*dLat + dLon*dLon
}

// SecondsSinceMidnight returns the seconds-of-day for t, in [0, 86400).
func SecondsSinceMidnight(t time.Time) uint32 {
	return uint32(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

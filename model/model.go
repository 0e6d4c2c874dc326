package model

// Holds all external facing types and constants.

// Bus is one enriched vehicle observation. Records are emitted with
// partial data when schedule context is unavailable: derived fields
// keep their zero values and the JSON document is still complete.
type Bus struct {
	Timestamp         uint64  `json:"timestamp"`
	ID                string  `json:"id"`
	Latitude          float32 `json:"latitude"`
	Longitude         float32 `json:"longitude"`
	Speed             float32 `json:"speed"`
	LineID            string  `json:"line_id"`
	Line              string  `json:"line"`
	AgencyID          string  `json:"agency_id"`
	TripID            string  `json:"trip_id"`
	AverageSpeed      float32 `json:"average_speed"`
	AverageCount      int     `json:"average_count"`
	NextStop          int     `json:"next_stop"`
	TheoricalStop     int     `json:"theorical_stop"`
	RemainingDistance float64 `json:"remaining_distance"`
	Delay             float64 `json:"delay"`
	IsOut             bool    `json:"is_out"`
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
}

type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64

	// HasCoords is false when stops.txt omitted the position.
	HasCoords bool
}

// StopTime is one scheduled arrival on a trip. Arrival is seconds
// since service-day midnight and may exceed 86400 for post-midnight
// service. It is nil when the schedule left it blank.
type StopTime struct {
	Stop    *Stop
	Arrival *uint32
}

// Trip holds the ordered stop sequence of a single scheduled run.
// StopTimes are sorted by stop_sequence, which also orders them by
// arrival time where arrival times are defined.
type Trip struct {
	ID        string
	RouteID   string
	ShapeID   string
	StopTimes []StopTime
}

// ShapePoint is one vertex of a trip's polyline, ordered along the
// direction of travel.
type ShapePoint struct {
	Lat float64
	Lon float64
}

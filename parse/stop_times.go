package parse

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/cK0nrad/tec-fetcher/model"
)

type StopTimeCSV struct {
	TripID       string `csv:"trip_id"`
	StopID       string `csv:"stop_id"`
	StopSequence uint32 `csv:"stop_sequence"`
	ArrivalTime  string `csv:"arrival_time"`
	// DepartureTime string `csv:"departure_time"`
	// Headsign      string `csv:"stop_headsign"`
}

// parseStopTimeSeconds converts a GTFS HH:MM:SS value to seconds since
// service-day midnight. Hours may exceed 24 for post-midnight service.
// A blank value returns nil: arrival_time is optional.
func parseStopTimeSeconds(s string) (*uint32, error) {
	if s == "" {
		return nil, nil
	}

	split := strings.Split(s, ":")
	if len(split) != 3 {
		return nil, fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return nil, fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return nil, fmt.Errorf("invalid hour in '%s'", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return nil, fmt.Errorf("invalid minute in '%s'", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return nil, fmt.Errorf("invalid second in '%s'", s)
	}

	seconds := uint32(hms[0]*3600 + hms[1]*60 + hms[2])
	return &seconds, nil
}

// ParseStopTimes reads stop_times.txt and attaches the ordered stop
// sequence to each trip in trips.
func ParseStopTimes(
	data io.Reader,
	trips map[string]*model.Trip,
	stops map[string]*model.Stop,
) error {

	type record struct {
		seq      uint32
		stopTime model.StopTime
	}
	byTrip := map[string][]record{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1
		if _, found := trips[st.TripID]; !found {
			return fmt.Errorf("unknown trip_id: '%s' (row %d)", st.TripID, i+1)
		}
		if st.StopID == "" {
			return fmt.Errorf("missing stop_id (row %d)", i+1)
		}
		stop, found := stops[st.StopID]
		if !found {
			return fmt.Errorf("unknown stop_id: '%s' (row %d)", st.StopID, i+1)
		}

		arrival, err := parseStopTimeSeconds(st.ArrivalTime)
		if err != nil {
			return errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}

		byTrip[st.TripID] = append(byTrip[st.TripID], record{
			seq: st.StopSequence,
			stopTime: model.StopTime{
				Stop:    stop,
				Arrival: arrival,
			},
		})

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unmarshaling stop_times csv")
	}

	for tripID, records := range byTrip {
		// Verify that stop_sequence is unique for each trip
		seqSeen := map[uint32]bool{}
		for _, r := range records {
			if seqSeen[r.seq] {
				return fmt.Errorf("duplicate stop_sequence %d for trip_id '%s'", r.seq, tripID)
			}
			seqSeen[r.seq] = true
		}

		sort.Slice(records, func(i, j int) bool {
			return records[i].seq < records[j].seq
		})

		trip := trips[tripID]
		trip.StopTimes = make([]model.StopTime, len(records))
		for i, r := range records {
			trip.StopTimes[i] = r.stopTime
		}
	}

	return nil
}

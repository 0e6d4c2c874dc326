// Package speed tracks a rolling window of observed speeds per
// vehicle. Entries expire after a number of fetch cycles without a
// sighting.
package speed

import "sync"

const (
	// MaxSpeeds bounds the rolling window length per vehicle.
	MaxSpeeds = 100

	// Expire is the countdown set on every sighting. Each aging
	// pass decrements it, and the Expire-th pass after the last
	// sighting removes the entry.
	Expire = 10
)

type entry struct {
	mu      sync.Mutex
	speeds  []float32
	average float32
	expire  int
}

// Tracker is a concurrent map from vehicle id to its speed window.
// Distinct ids may be observed in parallel; each entry carries its own
// lock so the map lock is only held for lookup and insert.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Stat is the externally visible state of one entry, as served by the
// average-speed endpoint.
type Stat struct {
	Bus    string  `json:"bus"`
	Speed  float32 `json:"speed"`
	Expire int     `json:"expire"`
	Count  int     `json:"count"`
}

func NewTracker() *Tracker {
	return &Tracker{entries: map[string]*entry{}}
}

// Observe records a sighting of id at the given speed. The window is
// trimmed to MaxSpeeds, the mean recomputed, and the expiry countdown
// reset. Returns the new mean and window length.
func (t *Tracker) Observe(id string, speed float32) (float32, int) {
	e := t.lookup(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.speeds = append(e.speeds, speed)
	if len(e.speeds) > MaxSpeeds {
		e.speeds = e.speeds[1:]
	}

	var sum float32
	for _, s := range e.speeds {
		sum += s
	}
	e.average = sum / float32(len(e.speeds))
	e.expire = Expire

	return e.average, len(e.speeds)
}

// AgeAndEvict decrements every entry's expiry countdown and removes
// entries that reach zero. Called exactly once per fetch cycle, after
// all observations for that cycle have completed.
func (t *Tracker) AgeAndEvict() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, e := range t.entries {
		e.mu.Lock()
		e.expire--
		expired := e.expire <= 0
		e.mu.Unlock()

		if expired {
			delete(t.entries, id)
		}
	}
}

// Snapshot returns the current state of all entries.
func (t *Tracker) Snapshot() []Stat {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := make([]Stat, 0, len(t.entries))
	for id, e := range t.entries {
		e.mu.Lock()
		stats = append(stats, Stat{
			Bus:    id,
			Speed:  e.average,
			Expire: e.expire,
			Count:  len(e.speeds),
		})
		e.mu.Unlock()
	}
	return stats
}

// Len returns the number of tracked vehicles.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Tracker) lookup(id string) *entry {
	t.mu.RLock()
	e, found := t.entries[id]
	t.mu.RUnlock()
	if found {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, found = t.entries[id]; found {
		return e
	}
	e = &entry{expire: Expire}
	t.entries[id] = e
	return e
}

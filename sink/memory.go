package sink

import (
	"context"
	"sync"

	"github.com/cK0nrad/tec-fetcher/model"
)

// Memory keeps batches in memory. Used in tests and for running
// without persistent storage.
type Memory struct {
	mu      sync.Mutex
	batches [][]model.Bus

	// Err, when set, is returned by every Insert.
	Err error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(_ context.Context, batch []model.Bus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.batches = append(m.batches, append([]model.Bus(nil), batch...))
	return nil
}

// Batches returns everything inserted so far.
func (m *Memory) Batches() [][]model.Bus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]model.Bus, len(m.batches))
	copy(out, m.batches)
	return out
}

// Package sink persists batches of enriched vehicle records. The
// fetch loop hands one batch per cycle; implementations own the
// long-term storage entirely.
package sink

import (
	"context"

	"github.com/cK0nrad/tec-fetcher/model"
)

// Sink accepts one batch of records per fetch cycle. On a conflict on
// (timestamp, id) implementations overwrite all non-key fields.
// Transaction boundaries are per batch.
type Sink interface {
	Insert(ctx context.Context, batch []model.Bus) error
}

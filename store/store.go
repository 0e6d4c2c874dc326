// Package store holds the process-wide snapshot shared between the
// fetch loop and the HTTP/WebSocket readers: raw feed bytes, the
// compressed JSON snapshot, the schedule handle and the speed tracker.
package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cK0nrad/tec-fetcher/model"
	"github.com/cK0nrad/tec-fetcher/schedule"
	"github.com/cK0nrad/tec-fetcher/sink"
	"github.com/cK0nrad/tec-fetcher/speed"
)

// ErrInternal is returned for any schedule-reload failure the caller
// is not allowed to distinguish, wrong secret included.
var ErrInternal = errors.New("internal error")

// Store is created once per process. raw, json and schedule each sit
// behind their own reader/writer lock; there is deliberately no
// atomicity across fields. Readers copy bytes out and release.
type Store struct {
	log *zap.Logger

	secret      string
	scheduleDir string

	rawMu sync.RWMutex
	raw   []byte

	jsonMu sync.RWMutex
	json   []byte

	schedMu sync.RWMutex
	sched   *schedule.Index

	speeds *speed.Tracker
	db     sink.Sink
}

// New builds a Store around an already loaded schedule. The initial
// JSON snapshot is the encoded empty array, so subscribers connected
// before the first fetch cycle still receive a complete document.
func New(log *zap.Logger, secret, scheduleDir string, sched *schedule.Index, db sink.Sink) *Store {
	s := &Store{
		log:         log,
		secret:      secret,
		scheduleDir: scheduleDir,
		sched:       sched,
		speeds:      speed.NewTracker(),
		db:          db,
	}
	// Encoding a constant literal cannot fail; the error is only
	// reachable through gzip writer misuse.
	s.json, _ = encodeSnapshot([]byte("[]"))
	return s
}

// RefreshRaw replaces the raw feed bytes wholesale.
func (s *Store) RefreshRaw(data []byte) {
	s.rawMu.Lock()
	s.raw = data
	s.rawMu.Unlock()
}

// RawData returns a copy of the last raw feed bytes.
func (s *Store) RawData() []byte {
	s.rawMu.RLock()
	defer s.rawMu.RUnlock()
	return append([]byte(nil), s.raw...)
}

// Refresh serializes the batch as JSON, base64-encodes it, compresses
// it at best level, and replaces the snapshot wholesale. The encoding
// work happens outside the lock.
func (s *Store) Refresh(batch []model.Bus) error {
	if batch == nil {
		batch = []model.Bus{}
	}

	text, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	encoded, err := encodeSnapshot(text)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	s.jsonMu.Lock()
	s.json = encoded
	s.jsonMu.Unlock()
	return nil
}

// RetrieveJSON returns a copy of the current snapshot.
func (s *Store) RetrieveJSON() []byte {
	s.jsonMu.RLock()
	defer s.jsonMu.RUnlock()
	return append([]byte(nil), s.json...)
}

// RefreshSchedule reloads the schedule dataset and atomically swaps it
// in, gated on the shared secret. Callers get ErrInternal whether the
// secret was empty, wrong, or the reload itself failed: none of those
// are theirs to tell apart.
func (s *Store) RefreshSchedule(candidateSecret string) error {
	if s.secret == "" {
		return ErrInternal
	}
	if subtle.ConstantTimeCompare([]byte(s.secret), []byte(candidateSecret)) != 1 {
		return ErrInternal
	}

	ix, err := schedule.Load(s.scheduleDir)
	if err != nil {
		s.log.Error("schedule reload failed", zap.Error(err))
		return ErrInternal
	}

	s.schedMu.Lock()
	s.sched = ix
	s.schedMu.Unlock()

	s.log.Info("schedule reloaded", zap.String("dir", s.scheduleDir))
	return nil
}

// Schedule returns the current schedule index. The index itself is
// immutable; holding the returned pointer across a reload simply keeps
// reading the old dataset.
func (s *Store) Schedule() *schedule.Index {
	s.schedMu.RLock()
	defer s.schedMu.RUnlock()
	return s.sched
}

// Speeds returns the shared speed tracker.
func (s *Store) Speeds() *speed.Tracker {
	return s.speeds
}

// RefreshDB forwards the batch to the sink. Failures are logged and
// swallowed: the in-memory snapshot was already published and the loop
// must go on.
func (s *Store) RefreshDB(ctx context.Context, batch []model.Bus) {
	if s.db == nil {
		return
	}
	if err := s.db.Insert(ctx, batch); err != nil {
		s.log.Error("sink write failed", zap.Error(err), zap.Int("batch", len(batch)))
	}
}

// encodeSnapshot applies the externally observable encoding chain:
// base64 then gzip at best compression.
func encodeSnapshot(text []byte) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(text)

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(encoded)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

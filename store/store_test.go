package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cK0nrad/tec-fetcher/model"
	"github.com/cK0nrad/tec-fetcher/sink"
	"github.com/cK0nrad/tec-fetcher/testutil"
)

// decodeSnapshot reverses the snapshot encoding chain: gunzip, then
// base64, leaving the JSON text.
func decodeSnapshot(t *testing.T, data []byte) []byte {
	t.Helper()

	r, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	encoded, err := io.ReadAll(r)
	require.NoError(t, err)

	text, err := base64.StdEncoding.DecodeString(string(encoded))
	require.NoError(t, err)
	return text
}

func newTestStore(t *testing.T, secret string, db sink.Sink) *Store {
	t.Helper()
	dir := testutil.ScheduleDir(t, testutil.ScheduleFiles())
	ix := testutil.LoadSchedule(t)
	return New(zap.NewNop(), secret, dir, ix, db)
}

func TestInitialSnapshotIsEmptyArray(t *testing.T) {
	s := newTestStore(t, "hunter2", nil)
	assert.Equal(t, "[]", string(decodeSnapshot(t, s.RetrieveJSON())))
}

func TestRefreshRawRoundTrip(t *testing.T) {
	s := newTestStore(t, "hunter2", nil)

	assert.Empty(t, s.RawData())

	payload := []byte{0x0a, 0x0b, 0x0c}
	s.RefreshRaw(payload)

	got := s.RawData()
	assert.Equal(t, payload, got)

	// The returned buffer is a copy: mutating it does not affect
	// later reads.
	got[0] = 0xff
	assert.Equal(t, payload, s.RawData())
}

func TestRefreshPublishesBatch(t *testing.T) {
	s := newTestStore(t, "hunter2", nil)

	batch := []model.Bus{
		{ID: "veh-1", Latitude: 50.63, Longitude: 5.57, Speed: 27},
		{ID: "veh-2", Latitude: 50.65, Longitude: 5.57},
	}
	require.NoError(t, s.Refresh(batch))

	var got []model.Bus
	require.NoError(t, json.Unmarshal(decodeSnapshot(t, s.RetrieveJSON()), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "veh-1", got[0].ID)
	assert.Equal(t, float32(27), got[0].Speed)
}

func TestRefreshNilBatchStaysEmptyArray(t *testing.T) {
	s := newTestStore(t, "hunter2", nil)
	require.NoError(t, s.Refresh(nil))
	assert.Equal(t, "[]", string(decodeSnapshot(t, s.RetrieveJSON())))
}

func TestRefreshSchedule(t *testing.T) {
	s := newTestStore(t, "hunter2", nil)
	before := s.Schedule()

	// Wrong secret: generic error, schedule untouched.
	err := s.RefreshSchedule("nope")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Same(t, before, s.Schedule())

	// Correct secret: a fresh index is swapped in.
	require.NoError(t, s.RefreshSchedule("hunter2"))
	assert.NotSame(t, before, s.Schedule())
	_, found := s.Schedule().Trip("t1")
	assert.True(t, found)
}

func TestRefreshScheduleEmptySecretAlwaysFails(t *testing.T) {
	s := newTestStore(t, "", nil)

	// An unset secret disables reloads outright, even for an
	// empty candidate.
	assert.ErrorIs(t, s.RefreshSchedule(""), ErrInternal)
	assert.ErrorIs(t, s.RefreshSchedule("anything"), ErrInternal)
}

func TestRefreshDBForwardsAndSwallowsErrors(t *testing.T) {
	mem := sink.NewMemory()
	s := newTestStore(t, "hunter2", mem)

	batch := []model.Bus{{ID: "veh-1"}}
	s.RefreshDB(context.Background(), batch)

	require.Len(t, mem.Batches(), 1)
	assert.Equal(t, "veh-1", mem.Batches()[0][0].ID)

	// A failing sink must not propagate.
	mem.Err = errors.New("connection lost")
	s.RefreshDB(context.Background(), batch)
	assert.Len(t, mem.Batches(), 1)
}

func TestSpeedsSharedHandle(t *testing.T) {
	s := newTestStore(t, "hunter2", nil)

	s.Speeds().Observe("veh-1", 10)
	assert.Equal(t, 1, s.Speeds().Len())
}

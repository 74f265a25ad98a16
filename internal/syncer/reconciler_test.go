package syncer

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

type fakeSource struct {
	events []model.Event
	err    error
}

func (f *fakeSource) ExtractAll(context.Context) ([]model.Event, map[uint64][]model.TicketType, map[uint64][]time.Time, error) {
	if f.err != nil {
		return nil, nil, nil, f.err
	}
	return f.events, map[uint64][]model.TicketType{}, map[uint64][]time.Time{}, nil
}

// fakeIndex is a map-backed index that records every mutation.
type fakeIndex struct {
	records   map[uint64]index.Record
	ensured   int
	upserts   int
	deletes   int
	upsertErr func(recs []index.Record) error
}

func newFakeIndex(ids ...uint64) *fakeIndex {
	fi := &fakeIndex{records: make(map[uint64]index.Record)}
	for _, id := range ids {
		fi.records[id] = index.Record{ID: id}
	}
	return fi
}

func (f *fakeIndex) EnsureCollection(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeIndex) ListIDs(context.Context) (map[uint64]struct{}, error) {
	ids := make(map[uint64]struct{}, len(f.records))
	for id := range f.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeIndex) Upsert(_ context.Context, recs []index.Record) error {
	f.upserts++
	if f.upsertErr != nil {
		if err := f.upsertErr(recs); err != nil {
			return err
		}
	}
	for _, r := range recs {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, ids []uint64) error {
	f.deletes++
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeIndex) ids() []uint64 {
	out := make([]uint64, 0, len(f.records))
	for id := range f.records {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func events(ids ...uint64) []model.Event {
	out := make([]model.Event, len(ids))
	for i, id := range ids {
		out[i] = model.Event{ID: id, Name: "event"}
	}
	return out
}

func TestRunConvergesIndexToSource(t *testing.T) {
	src := &fakeSource{events: events(1, 2, 3)}
	idx := newFakeIndex(2, 3, 9, 10) // 9 and 10 are orphans

	sum, err := New(src, idx).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2, 3}, idx.ids())
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 3, sum.Upserted)
	assert.Equal(t, 2, sum.Deleted)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, 1, idx.ensured)
}

func TestRunIdempotent(t *testing.T) {
	src := &fakeSource{events: events(1, 2)}
	idx := newFakeIndex()
	r := New(src, idx)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	first := idx.ids()

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, idx.ids())
	assert.Equal(t, 0, sum.Deleted, "nothing is stale on a repeat run")
	assert.Equal(t, 2, sum.Upserted)
}

func TestRunExtractFailureTouchesNothing(t *testing.T) {
	src := &fakeSource{err: errors.New("db gone")}
	idx := newFakeIndex(1, 2)

	_, err := New(src, idx).Run(context.Background())
	assert.ErrorIs(t, err, ErrExtractFailed)
	assert.Equal(t, 0, idx.ensured)
	assert.Equal(t, 0, idx.upserts)
	assert.Equal(t, 0, idx.deletes)
	assert.Equal(t, []uint64{1, 2}, idx.ids())
}

func TestRunToleratesFailedBatch(t *testing.T) {
	src := &fakeSource{events: events(1, 2, 3, 4, 5)}
	idx := newFakeIndex()
	idx.upsertErr = func(recs []index.Record) error {
		// Fail the batch holding event 3.
		for _, r := range recs {
			if r.ID == 3 {
				return errors.New("shard down")
			}
		}
		return nil
	}

	r := New(src, idx)
	r.batch = 2 // batches: [1 2] [3 4] [5]

	sum, err := r.Run(context.Background())
	require.NoError(t, err, "a failed batch must not fail the run")
	assert.Equal(t, 3, sum.Upserted)
	assert.Equal(t, 2, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, []uint64{1, 2, 5}, idx.ids(), "other batches still land")
}

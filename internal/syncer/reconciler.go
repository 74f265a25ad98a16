// Package syncer implements the reconciliation job that keeps the vector
// index consistent with the relational source of truth. One run extracts all
// events, transforms them into indexed records, diffs the id sets and applies
// an idempotent upsert/delete plan.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

var (
	// ErrExtractFailed aborts a run before any index mutation.
	ErrExtractFailed = errors.New("reconciliation extract failed")
	// ErrLoadFailed marks a failure while preparing or mutating the index.
	ErrLoadFailed = errors.New("reconciliation load failed")
)

// Source supplies the relational rows a run reads.
type Source interface {
	ExtractAll(ctx context.Context) ([]model.Event, map[uint64][]model.TicketType, map[uint64][]time.Time, error)
}

// Index is the slice of the vector index a run writes.
type Index interface {
	EnsureCollection(ctx context.Context) error
	ListIDs(ctx context.Context) (map[uint64]struct{}, error)
	Upsert(ctx context.Context, recs []index.Record) error
	Delete(ctx context.Context, ids []uint64) error
}

// Summary reports what one run did. Failed counts records whose upsert batch
// errored; those records stay stale in the index until the next run.
type Summary struct {
	Total    int
	Upserted int
	Deleted  int
	Failed   int
	Errors   []error
}

// Reconciler runs the extract/transform/load pass. It has no state between
// runs and no pause/resume; a failed run is simply re-run from scratch.
type Reconciler struct {
	source Source
	index  Index
	batch  int
}

const defaultBatchSize = 200

// New constructs a Reconciler over the given source and index.
func New(src Source, idx Index) *Reconciler {
	return &Reconciler{source: src, index: idx, batch: defaultBatchSize}
}

// Run executes one full pass. Extract or transform errors abort before the
// index is touched. During load, stale ids are deleted first, then records go
// out in batches with skip-and-report tolerance: a failed batch is recorded
// in the summary and the run continues. Re-running with unchanged source data
// leaves the index id set unchanged.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	events, tickets, showtimes, err := r.source.ExtractAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}

	records := make([]index.Record, 0, len(events))
	sourceIDs := make(map[uint64]struct{}, len(events))
	for _, ev := range events {
		records = append(records, Transform(ev, tickets[ev.ID], showtimes[ev.ID]))
		sourceIDs[ev.ID] = struct{}{}
	}

	if err := r.index.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	indexIDs, err := r.index.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	var stale []uint64
	for id := range indexIDs {
		if _, ok := sourceIDs[id]; !ok {
			stale = append(stale, id)
		}
	}

	sum := &Summary{Total: len(records)}
	if len(stale) > 0 {
		if err := r.index.Delete(ctx, stale); err != nil {
			return nil, fmt.Errorf("%w: delete stale: %v", ErrLoadFailed, err)
		}
		sum.Deleted = len(stale)
	}

	for start := 0; start < len(records); start += r.batch {
		end := start + r.batch
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		if err := r.index.Upsert(ctx, chunk); err != nil {
			sum.Failed += len(chunk)
			sum.Errors = append(sum.Errors, fmt.Errorf("upsert batch %d-%d: %w", start, end, err))
			continue
		}
		sum.Upserted += len(chunk)
	}

	if sum.Failed > 0 {
		log.Printf("sync: run finished with failures: upserted=%d deleted=%d failed=%d",
			sum.Upserted, sum.Deleted, sum.Failed)
	} else {
		log.Printf("sync: run finished: upserted=%d deleted=%d", sum.Upserted, sum.Deleted)
	}
	return sum, nil
}

// Package orphans detects candidates whose owner left the roster and moves
// them to a new owner in best-effort batches.
package orphans

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruit-tracker/internal/directory"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// DefaultConcurrency bounds in-flight per-candidate writes when the caller
// does not choose.
const DefaultConcurrency = 4

// ErrAbandoned marks items that were never attempted because the batch was
// cancelled.
var ErrAbandoned = errors.New("reassignment abandoned")

// Find returns the candidates whose createdBy does not resolve to a user in
// the directory. Input order is preserved.
func Find(all []types.Candidate, dir *directory.Directory) []types.Candidate {
	out := make([]types.Candidate, 0)
	for _, c := range all {
		if !dir.Exists(c.CreatedBy) {
			out = append(out, c)
		}
	}
	return out
}

// Failure is one candidate the batch could not reassign.
type Failure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
	err   error
}

// Err returns the underlying error.
func (f Failure) Err() error { return f.err }

// Result is the per-item outcome of a batch. Both lists follow input order.
type Result struct {
	Succeeded []uuid.UUID `json:"succeeded"`
	Failed    []Failure   `json:"failed"`
}

// Total is the number of items the batch covered.
func (r Result) Total() int { return len(r.Succeeded) + len(r.Failed) }

// Partial reports whether some but not every item failed.
func (r Result) Partial() bool { return len(r.Failed) > 0 && len(r.Succeeded) > 0 }

// FailedIDs lists the candidates a caller may retry.
func (r Result) FailedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

// ApplyFunc performs the write for a single candidate.
type ApplyFunc func(ctx context.Context, id uuid.UUID) error

// Reassign runs apply once for every distinct id with at most concurrency writes in flight.
// Item failures are collected, never returned as an error, so one bad write
// does not stop the rest. When ctx is cancelled the remaining items are
// reported as abandoned; writes that already landed stay applied.
func Reassign(ctx context.Context, ids []uuid.UUID, apply ApplyFunc, concurrency int) Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	ids = Dedupe(ids)

	// each goroutine owns one slot
	errs := make([]error, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, id := range ids {
		if ctx.Err() != nil {
			errs[i] = ErrAbandoned
			continue
		}
		g.Go(func() error {
			var err error
			if ctx.Err() != nil {
				err = ErrAbandoned
			} else {
				err = apply(ctx, id)
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, id := range ids {
		if errs[i] == nil {
			res.Succeeded = append(res.Succeeded, id)
			continue
		}
		res.Failed = append(res.Failed, Failure{ID: id, Error: errs[i].Error(), err: errs[i]})
	}
	if res.Succeeded == nil {
		res.Succeeded = []uuid.UUID{}
	}
	if res.Failed == nil {
		res.Failed = []Failure{}
	}
	return res
}

// Dedupe drops repeated ids, keeping first occurrence order.
func Dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Summary renders "4/5 reassigned" style progress text.
func (r Result) Summary() string {
	return fmt.Sprintf("%d/%d reassigned", len(r.Succeeded), r.Total())
}

package tracker

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/orphans"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// FindOrphanCandidates lists candidates whose creator is no longer in the roster.
func (s *Service) FindOrphanCandidates(ctx context.Context, actor types.User) ([]types.Candidate, error) {
	if err := requireAdmin(actor, "list orphan candidates"); err != nil {
		return nil, err
	}
	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListCandidates(ctx, CandidateQuery{})
	if err != nil {
		return nil, &types.StoreError{Op: "list candidates", Cause: err}
	}
	found := orphans.Find(all, dir)
	sortNewestFirst(found)
	return found, nil
}

// ReassignCandidates moves each candidate to newOwner independently. A
// failed item never aborts the batch; cancelling ctx abandons the items not
// yet started and keeps the ones already written. The returned error is only
// set when the batch as a whole is refused.
func (s *Service) ReassignCandidates(ctx context.Context, actor types.User, req types.ReassignRequest) (*orphans.Result, error) {
	const op = "reassign candidates"
	if err := requireAdmin(actor, op); err != nil {
		return nil, err
	}
	if err := types.Validate(op, req); err != nil {
		return nil, err
	}
	owner, err := s.store.GetUser(ctx, req.NewOwnerID)
	if err != nil {
		return nil, storeErr(op, "user", req.NewOwnerID, err)
	}

	apply := func(ctx context.Context, id uuid.UUID) error {
		_, err := s.store.UpdateCandidate(ctx, id, func(c *types.Candidate) error {
			c.CreatedBy = owner.ID
			c.UpdatedAt = s.now()
			return nil
		})
		return storeErr("reassign candidate", "candidate", id, err)
	}
	res := orphans.Reassign(ctx, req.CandidateIDs, apply, s.opts.ReassignConcurrency)

	if len(res.Succeeded) > 0 {
		// detached so an abandoned batch still reports what it moved
		s.publish(context.WithoutCancel(ctx), events.Event{
			Type:         events.TypeCandidatesReassigned,
			ActorID:      actor.ID,
			CandidateIDs: res.Succeeded,
			NewOwnerID:   ptr(owner.ID),
		})
	}
	return &res, nil
}

// IsAbandoned reports whether a reassignment failure came from cancellation.
func IsAbandoned(f orphans.Failure) bool {
	return errors.Is(f.Err(), orphans.ErrAbandoned)
}

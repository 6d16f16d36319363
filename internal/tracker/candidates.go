package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/lifecycle"
	"github.com/jonathan/recruit-tracker/internal/types"
	"github.com/jonathan/recruit-tracker/internal/visibility"
)

// ListCandidates returns one page of the candidates the actor may see,
// narrowed by filter. Finance actors always get the Joined view.
func (s *Service) ListCandidates(ctx context.Context, actor types.User, filter ListFilter, page, pageSize int) (*Page, error) {
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if st, forced := scope.ForcedStatus(); forced {
		filter.Status = st
	}
	if filter.Status != "" {
		if _, err := types.ParseStatus(string(filter.Status)); err != nil {
			return nil, types.NewValidationError("list candidates", "status", err.Error())
		}
	}

	all, err := s.store.ListCandidates(ctx, CandidateQuery{
		Owners: scope.Owners(),
		Status: filter.Status,
		JobID:  filter.JobID,
	})
	if err != nil {
		return nil, &types.StoreError{Op: "list candidates", Cause: err}
	}
	jobs, err := s.jobIndex(ctx)
	if err != nil {
		return nil, err
	}

	visible := scope.Candidates(all)
	matched := make([]types.Candidate, 0, len(visible))
	for i := range visible {
		if filter.matches(&visible[i], jobs[visible[i].JobID]) {
			matched = append(matched, visible[i])
		}
	}
	sortNewestFirst(matched)

	page, pageSize = normalizePage(page, pageSize, s.opts.DefaultPageSize)
	out := paginate(matched, page, pageSize)
	return &out, nil
}

func (s *Service) jobIndex(ctx context.Context) (map[uuid.UUID]*types.Job, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, &types.StoreError{Op: "list jobs", Cause: err}
	}
	idx := make(map[uuid.UUID]*types.Job, len(jobs))
	for i := range jobs {
		idx[jobs[i].ID] = &jobs[i]
	}
	return idx, nil
}

// GetCandidate returns a candidate the actor may see.
func (s *Service) GetCandidate(ctx context.Context, actor types.User, id uuid.UUID) (*types.Candidate, error) {
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, storeErr("get candidate", "candidate", id, err)
	}
	if !scope.CanView(c) {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: "view candidate " + id.String(), Reason: "candidate is outside the actor's visibility"}
	}
	return c, nil
}

// CreateCandidate submits a candidate against an open job. The candidate
// starts in New with empty histories and is owned by the actor.
func (s *Service) CreateCandidate(ctx context.Context, actor types.User, req types.CreateCandidateRequest) (*types.Candidate, error) {
	const op = "create candidate"
	if actor.ReadOnly() {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: fmt.Sprintf("role %s is read-only", actor.Role)}
	}
	if err := types.Validate(op, req); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, storeErr(op, "job", req.JobID, err)
	}
	if job.Status != types.JobOpen {
		return nil, types.NewValidationError(op, "job_id", "job is not open for new candidates")
	}
	if err := s.intake.ValidateFields(job, req.Fields); err != nil {
		return nil, err
	}

	now := s.now()
	c := &types.Candidate{
		ID:                    uuid.New(),
		JobID:                 job.ID,
		CreatedBy:             actor.ID,
		Fields:                req.Fields,
		Notes:                 req.Notes,
		ResumeURL:             req.ResumeURL,
		Status:                types.StatusNew,
		StatusHistory:         []types.StatusHistoryEntry{},
		InterviewStageHistory: []types.StageHistoryEntry{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, storeErr(op, "candidate", c.ID, err)
	}

	s.publish(ctx, events.Event{Type: events.TypeCandidateCreated, ActorID: actor.ID, CandidateID: ptr(c.ID), JobID: ptr(job.ID)})
	return c, nil
}

// UpdateCandidateFields edits intake data, notes and the resume reference.
// Lifecycle fields are only reachable through ChangeStatus and
// CompleteInterviewStage.
func (s *Service) UpdateCandidateFields(ctx context.Context, actor types.User, id uuid.UUID, req types.UpdateCandidateRequest) (*types.Candidate, error) {
	const op = "update candidate"
	if err := types.Validate(op, req); err != nil {
		return nil, err
	}
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.jobOf(ctx, op, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateCandidate(ctx, id, func(c *types.Candidate) error {
		if err := canMutate(scope, c, op); err != nil {
			return err
		}
		if req.Fields != nil {
			if err := s.intake.ValidateFields(job, req.Fields); err != nil {
				return err
			}
			c.Fields = req.Fields
		}
		if req.Notes != nil {
			c.Notes = *req.Notes
		}
		if req.ResumeURL != nil {
			c.ResumeURL = *req.ResumeURL
		}
		c.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, storeErr(op, "candidate", id, err)
	}

	s.publish(ctx, events.Event{Type: events.TypeCandidateUpdated, ActorID: actor.ID, CandidateID: ptr(id), JobID: ptr(updated.JobID)})
	return updated, nil
}

// DeleteCandidate removes the record entirely. Only admins and the owner may delete.
func (s *Service) DeleteCandidate(ctx context.Context, actor types.User, id uuid.UUID) error {
	const op = "delete candidate"
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return err
	}
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return storeErr(op, "candidate", id, err)
	}
	if !scope.CanDelete(c) {
		return &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: "only admins and the owner may delete a candidate"}
	}
	if err := s.store.DeleteCandidate(ctx, id); err != nil {
		return storeErr(op, "candidate", id, err)
	}

	s.publish(ctx, events.Event{Type: events.TypeCandidateDeleted, ActorID: actor.ID, CandidateID: ptr(id), JobID: ptr(c.JobID)})
	return nil
}

// ChangeStatus runs a status transition inside the candidate's atomic update.
func (s *Service) ChangeStatus(ctx context.Context, actor types.User, id uuid.UUID, change types.StatusChange) (*types.Candidate, error) {
	const op = "change status"
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.jobOf(ctx, op, id)
	if err != nil {
		return nil, err
	}

	var from types.Status
	updated, err := s.store.UpdateCandidate(ctx, id, func(c *types.Candidate) error {
		if err := canMutate(scope, c, op); err != nil {
			return err
		}
		from = c.Status
		return lifecycle.Apply(c, job, actor, change, s.now())
	})
	if err != nil {
		return nil, storeErr(op, "candidate", id, err)
	}

	s.publish(ctx, events.Event{
		Type:        events.TypeCandidateStatusChanged,
		ActorID:     actor.ID,
		CandidateID: ptr(id),
		JobID:       ptr(job.ID),
		From:        string(from),
		To:          string(updated.Status),
	})
	return updated, nil
}

// StageCompletionResult is the candidate after a stage completion plus where
// the interview process now stands.
type StageCompletionResult struct {
	Candidate *types.Candidate      `json:"candidate"`
	Stage     lifecycle.StageResult `json:"stage"`
	Finalized bool                  `json:"finalized"`
}

// CompleteInterviewStage resolves the pending stage. With Finalize set, a
// Rejected outcome also moves the candidate to Rejected in the same atomic
// update, attributed to the client with the stage notes as the reason.
func (s *Service) CompleteInterviewStage(ctx context.Context, actor types.User, id uuid.UUID, req types.StageCompletion) (*StageCompletionResult, error) {
	const op = "complete interview stage"
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.jobOf(ctx, op, id)
	if err != nil {
		return nil, err
	}

	var (
		res       lifecycle.StageResult
		from      types.Status
		finalized bool
	)
	updated, err := s.store.UpdateCandidate(ctx, id, func(c *types.Candidate) error {
		if err := canMutate(scope, c, op); err != nil {
			return err
		}
		from = c.Status
		now := s.now()
		r, err := lifecycle.CompleteStage(c, job, actor, req, now)
		if err != nil {
			return err
		}
		res = r
		if req.Finalize && req.Outcome == types.OutcomeRejected {
			if err := lifecycle.Apply(c, job, actor, lifecycle.RejectionFor(req.StageName, req.Notes), now); err != nil {
				return err
			}
			finalized = true
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(op, "candidate", id, err)
	}

	s.publish(ctx, events.Event{
		Type:        events.TypeCandidateStageCompleted,
		ActorID:     actor.ID,
		CandidateID: ptr(id),
		JobID:       ptr(job.ID),
		Stage:       res.Completed,
		Outcome:     string(res.Outcome),
	})
	if finalized {
		s.publish(ctx, events.Event{
			Type:        events.TypeCandidateStatusChanged,
			ActorID:     actor.ID,
			CandidateID: ptr(id),
			JobID:       ptr(job.ID),
			From:        string(from),
			To:          string(updated.Status),
		})
	}
	return &StageCompletionResult{Candidate: updated, Stage: res, Finalized: finalized}, nil
}

// jobOf loads the job a candidate belongs to.
func (s *Service) jobOf(ctx context.Context, op string, candidateID uuid.UUID) (*types.Job, error) {
	c, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, storeErr(op, "candidate", candidateID, err)
	}
	job, err := s.store.GetJob(ctx, c.JobID)
	if err != nil {
		return nil, storeErr(op, "job", c.JobID, err)
	}
	return job, nil
}

func canMutate(scope visibility.Scope, c *types.Candidate, op string) error {
	actor := scope.Actor()
	if actor.ReadOnly() {
		return &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: fmt.Sprintf("role %s is read-only", actor.Role)}
	}
	if !scope.CanMutate(c) {
		return &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: "candidate is outside the actor's visibility"}
	}
	return nil
}

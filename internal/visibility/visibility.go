// Package visibility decides which candidates and jobs an actor may see or change.
//
// Rules:
//
//	Admin               all candidates
//	Manager             candidates created by self or a two-level reportee
//	Recruiter, Mentor   candidates created by self
//	Finance             all candidates, Joined only, read-only
package visibility

import (
	"github.com/google/uuid"
	"github.com/jonathan/recruit-tracker/internal/directory"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// Scope is the resolved view of one actor against one roster snapshot.
type Scope struct {
	actor  types.User
	owners directory.Set // nil means unrestricted
}

// For resolves the actor's scope.
func For(actor types.User, dir *directory.Directory) Scope {
	s := Scope{actor: actor}
	switch {
	case actor.Admin(), actor.Role == types.RoleFinance:
		return s
	case actor.Role == types.RoleManager:
		s.owners = dir.ReporteesOf(actor.ID)
	default:
		s.owners = directory.Set{}
	}
	s.owners[actor.ID] = struct{}{}
	return s
}

// Actor returns the user the scope was resolved for.
func (s Scope) Actor() types.User {
	return s.actor
}

// Unrestricted reports whether the scope admits every owner.
func (s Scope) Unrestricted() bool {
	return s.owners == nil
}

// Owners returns the creator IDs the actor may see, or nil when unrestricted.
func (s Scope) Owners() []uuid.UUID {
	if s.owners == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(s.owners))
	for id := range s.owners {
		out = append(out, id)
	}
	return out
}

// ForcedStatus returns the status filter the actor cannot widen.
func (s Scope) ForcedStatus() (types.Status, bool) {
	if s.actor.ReadOnly() {
		return types.StatusJoined, true
	}
	return "", false
}

// CanView reports whether the candidate is visible to the actor.
func (s Scope) CanView(c *types.Candidate) bool {
	if st, ok := s.ForcedStatus(); ok && c.Status != st {
		return false
	}
	if s.owners == nil {
		return true
	}
	return s.owners.Has(c.CreatedBy)
}

// CanMutate reports whether the actor may change the candidate's lifecycle.
func (s Scope) CanMutate(c *types.Candidate) bool {
	return !s.actor.ReadOnly() && s.CanView(c)
}

// CanDelete reports whether the actor may hard-delete the candidate.
func (s Scope) CanDelete(c *types.Candidate) bool {
	return s.actor.Admin() || (!s.actor.ReadOnly() && c.CreatedBy == s.actor.ID)
}

// Candidates returns the subset of all that the actor may view, in input order.
func (s Scope) Candidates(all []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, 0, len(all))
	for i := range all {
		if s.CanView(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// VisibleCandidates is the one-shot form of For(actor, dir).Candidates(all).
func VisibleCandidates(actor types.User, all []types.Candidate, dir *directory.Directory) []types.Candidate {
	return For(actor, dir).Candidates(all)
}

// CanViewJob reports whether the job appears in the actor's management list.
// Recruiters and mentors see every open job so they can submit candidates.
func (s Scope) CanViewJob(j *types.Job) bool {
	if s.actor.Admin() || s.actor.Role == types.RoleFinance {
		return true
	}
	if s.owners.Has(j.CreatedBy) {
		return true
	}
	if s.actor.Role == types.RoleManager {
		return false
	}
	return j.Status == types.JobOpen
}

// CanManageJob reports whether the actor may edit the job.
func (s Scope) CanManageJob(j *types.Job) bool {
	if s.actor.Admin() {
		return true
	}
	return s.actor.Role == types.RoleManager && s.owners.Has(j.CreatedBy)
}

// Jobs returns the subset of all in the actor's management list.
func (s Scope) Jobs(all []types.Job) []types.Job {
	out := make([]types.Job, 0, len(all))
	for i := range all {
		if s.CanViewJob(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

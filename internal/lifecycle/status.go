// Package lifecycle implements the candidate status state machine and the
// interview stage sub-machine.
//
// Valid status graph:
//
//	New ──► Shortlisted ──► Interviewed ──► Selected ──► Joined
//	 │           │               │             │  ▲        │ ▲
//	 │           │               │             └──┘        └─┘   (re-entry edits dates)
//	 └───────────┴───────────────┴─────────────┴──► Rejected ──► Dropped
//
// Every non-terminal status may also move to Hold or Dropped, and Hold may
// resume to any funnel status. Joined and Rejected only leave to Dropped.
// Dropped is terminal.
//
// Functions here are pure: they mutate the candidate passed in and never
// touch storage. Callers run them inside a per-candidate atomic update.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// allowedTransitions lists every permitted (from → to) pair.
var allowedTransitions = map[types.Status][]types.Status{
	types.StatusNew: {
		types.StatusShortlisted, types.StatusInterviewed, types.StatusRejected,
		types.StatusDropped, types.StatusHold,
	},
	types.StatusShortlisted: {
		types.StatusNew, types.StatusInterviewed, types.StatusSelected,
		types.StatusRejected, types.StatusDropped, types.StatusHold,
	},
	types.StatusInterviewed: {
		types.StatusShortlisted, types.StatusSelected, types.StatusRejected,
		types.StatusDropped, types.StatusHold,
	},
	types.StatusSelected: {
		types.StatusSelected, types.StatusJoined, types.StatusRejected,
		types.StatusDropped, types.StatusHold,
	},
	types.StatusJoined:   {types.StatusJoined, types.StatusDropped},
	types.StatusRejected: {types.StatusDropped},
	types.StatusHold: {
		types.StatusNew, types.StatusShortlisted, types.StatusInterviewed,
		types.StatusSelected, types.StatusRejected, types.StatusDropped,
	},
	// Dropped is terminal
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to types.Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from the given one.
func NextStatuses(from types.Status) []types.Status {
	return append([]types.Status(nil), allowedTransitions[from]...)
}

// Apply validates change against the candidate's current state and, when
// accepted, updates the lifecycle fields and appends exactly one status
// history entry. On error c is left untouched.
//
// Auxiliary fields are only ever set, never cleared, so earlier values stay
// on the record for audit.
func Apply(c *types.Candidate, job *types.Job, actor types.User, change types.StatusChange, now time.Time) error {
	const op = "change status"

	if actor.ReadOnly() {
		return &types.AuthorizationError{
			ActorID: actor.ID,
			Action:  "change candidate status",
			Reason:  fmt.Sprintf("role %s is read-only", actor.Role),
		}
	}
	if err := types.Validate(op, change); err != nil {
		return err
	}
	if err := requireDates(op, change); err != nil {
		return err
	}
	if job == nil || job.ID != c.JobID {
		return types.NotFound("job", c.JobID)
	}

	from := c.Status
	if from == "" {
		from = types.StatusNew
	}
	if !IsTransitionAllowed(from, change.Target) {
		return types.NewValidationError(op, "status",
			fmt.Sprintf("transition %s → %s is not allowed", from, change.Target))
	}

	snap := &types.StatusSnapshot{}
	switch change.Target {
	case types.StatusInterviewed:
		stage := change.InterviewStage
		switch {
		case stage != "":
			if !job.HasStage(stage) {
				return stageNotFound(job, stage)
			}
		case c.InterviewStage != "" && job.HasStage(c.InterviewStage):
			stage = c.InterviewStage
		default:
			stage = job.FirstStage()
		}
		c.InterviewStage = stage
		snap.InterviewStage = stage

	case types.StatusSelected:
		c.SelectionDate = change.SelectionDate
		snap.SelectionDate = change.SelectionDate
		if !zeroDate(change.ExpectedJoiningDate) {
			c.ExpectedJoiningDate = change.ExpectedJoiningDate
			snap.ExpectedJoiningDate = change.ExpectedJoiningDate
		}
		if change.OfferedCTC != nil {
			c.OfferedCTC = change.OfferedCTC
			snap.OfferedCTC = change.OfferedCTC
		}

	case types.StatusJoined:
		c.JoiningDate = change.JoiningDate
		c.OfferedCTC = change.OfferedCTC
		snap.JoiningDate = change.JoiningDate
		snap.OfferedCTC = change.OfferedCTC
		if change.OfferLetterURL != "" {
			c.OfferLetterURL = change.OfferLetterURL
			snap.OfferLetterURL = change.OfferLetterURL
		}

	case types.StatusRejected:
		by := change.RejectedBy
		if by == "" {
			by = RejectionAttribution(c, from, actor)
		}
		c.RejectionReason = change.RejectionReason
		c.RejectedBy = by
		snap.RejectionReason = change.RejectionReason
		snap.RejectedBy = by

	case types.StatusDropped:
		by := change.DroppedBy
		if by == "" {
			by = DefaultAttribution(from, actor)
		}
		c.DroppedBy = by
		snap.DroppedBy = by
	}

	comment := change.Comment
	if comment == "" && change.Target == types.StatusRejected {
		comment = change.RejectionReason
	}

	entry := types.StatusHistoryEntry{
		Status:        change.Target,
		From:          from,
		Comment:       comment,
		UpdatedBy:     actor.ID,
		UpdatedByName: actor.Name,
		At:            now.UTC(),
	}
	if *snap != (types.StatusSnapshot{}) {
		entry.Snapshot = snap
	}

	c.Status = change.Target
	c.StatusHistory = append(c.StatusHistory, entry)
	c.UpdatedAt = now.UTC()
	return nil
}

func zeroDate(d *types.Date) bool {
	return d == nil || d.IsZero()
}

// requireDates rejects present but zero dates for the targets that need one.
func requireDates(op string, change types.StatusChange) error {
	var field string
	switch {
	case change.Target == types.StatusSelected && zeroDate(change.SelectionDate):
		field = "selection_date"
	case change.Target == types.StatusJoined && zeroDate(change.JoiningDate):
		field = "joining_date"
	default:
		return nil
	}
	return types.NewValidationError(op, field, "is required")
}

func stageNotFound(job *types.Job, stage string) *types.ReferenceError {
	return &types.ReferenceError{
		Kind:    "stage",
		ID:      stage,
		Message: fmt.Sprintf("not a stage of job %q", job.Title),
	}
}

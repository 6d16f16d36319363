package lifecycle

import (
	"fmt"
	"time"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// StageResult describes where a stage completion left the candidate.
type StageResult struct {
	Completed string             `json:"completed"`
	Outcome   types.StageOutcome `json:"outcome"`
	Next      string             `json:"next,omitempty"`
	Last      bool               `json:"last"`
}

// stageStatuses are the statuses in which stages may be completed. Screening
// usually happens before a candidate is formally marked Interviewed.
var stageStatuses = map[types.Status]bool{
	types.StatusShortlisted: true,
	types.StatusInterviewed: true,
}

// PendingStage returns the stage awaiting an outcome: the recorded
// interviewStage when it still belongs to the job, otherwise the first stage
// without a history entry. ok is false when every stage is done.
func PendingStage(c *types.Candidate, job *types.Job) (string, bool) {
	if c.InterviewStage != "" && job.HasStage(c.InterviewStage) && !c.StageCompleted(c.InterviewStage) {
		return c.InterviewStage, true
	}
	for _, s := range job.Stages {
		if !c.StageCompleted(s.Name) {
			return s.Name, true
		}
	}
	return "", false
}

// CompleteStage resolves the pending interview stage. It appends one
// interview stage history entry and, on Selected, advances interviewStage to
// the following stage. It never changes the candidate's status: leaving the
// funnel after the last stage or after a rejection is the caller's decision.
func CompleteStage(c *types.Candidate, job *types.Job, actor types.User, req types.StageCompletion, now time.Time) (StageResult, error) {
	const op = "complete interview stage"

	if actor.ReadOnly() {
		return StageResult{}, &types.AuthorizationError{
			ActorID: actor.ID,
			Action:  "complete interview stages",
			Reason:  fmt.Sprintf("role %s is read-only", actor.Role),
		}
	}
	if err := types.Validate(op, req); err != nil {
		return StageResult{}, err
	}
	if job == nil || job.ID != c.JobID {
		return StageResult{}, types.NotFound("job", c.JobID)
	}
	if !job.HasStage(req.StageName) {
		return StageResult{}, stageNotFound(job, req.StageName)
	}
	if !stageStatuses[c.Status] {
		return StageResult{}, types.NewValidationError(op, "status",
			fmt.Sprintf("stages cannot be completed while candidate is %s", c.Status))
	}
	if c.StageRejected() {
		return StageResult{}, types.NewValidationError(op, "stage_name", "interview process already ended in rejection")
	}
	if c.StageCompleted(req.StageName) {
		return StageResult{}, types.NewValidationError(op, "stage_name",
			fmt.Sprintf("stage %q is already completed", req.StageName))
	}
	pending, ok := PendingStage(c, job)
	if !ok || pending != req.StageName {
		return StageResult{}, types.NewValidationError(op, "stage_name",
			fmt.Sprintf("stage %q is not pending; expected %q", req.StageName, pending))
	}

	c.InterviewStageHistory = append(c.InterviewStageHistory, types.StageHistoryEntry{
		StageName:     req.StageName,
		Outcome:       req.Outcome,
		Notes:         req.Notes,
		UpdatedBy:     actor.ID,
		UpdatedByName: actor.Name,
		At:            now.UTC(),
	})
	c.UpdatedAt = now.UTC()

	res := StageResult{Completed: req.StageName, Outcome: req.Outcome}
	if req.Outcome == types.OutcomeRejected {
		c.InterviewStage = req.StageName
		return res, nil
	}
	next, hasNext := job.NextStage(req.StageName)
	if !hasNext {
		c.InterviewStage = req.StageName
		res.Last = true
		return res, nil
	}
	c.InterviewStage = next
	res.Next = next
	return res, nil
}

// RejectionFor builds the status change that follows a rejected stage:
// attributed to the client, with the stage notes as the reason.
func RejectionFor(stage, notes string) types.StatusChange {
	notes = truncateRunes(notes, maxReasonLen)
	reason := notes
	if reason == "" {
		reason = fmt.Sprintf("Rejected at %s stage", stage)
	}
	return types.StatusChange{
		Target:          types.StatusRejected,
		RejectionReason: reason,
		RejectedBy:      AttributionExternal,
		Comment:         notes,
	}
}

const maxReasonLen = 2000

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

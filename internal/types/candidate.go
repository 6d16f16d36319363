package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the top-level funnel state of a candidate.
type Status string

// Candidate statuses.
const (
	StatusNew         Status = "New"
	StatusShortlisted Status = "Shortlisted"
	StatusInterviewed Status = "Interviewed"
	StatusSelected    Status = "Selected"
	StatusJoined      Status = "Joined"
	StatusRejected    Status = "Rejected"
	StatusDropped     Status = "Dropped"
	StatusHold        Status = "Hold"
)

// AllStatuses lists every status in funnel order.
var AllStatuses = []Status{
	StatusNew, StatusShortlisted, StatusInterviewed, StatusSelected,
	StatusJoined, StatusRejected, StatusDropped, StatusHold,
}

// ParseStatus converts a raw string to a Status, returning an error for unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown candidate status %q", s)
}

// StageOutcome is the resolution of a single interview stage.
type StageOutcome string

// Stage outcomes.
const (
	OutcomeSelected StageOutcome = "Selected"
	OutcomeRejected StageOutcome = "Rejected"
)

// ParseStageOutcome converts a raw string to a StageOutcome.
func ParseStageOutcome(s string) (StageOutcome, error) {
	o := StageOutcome(s)
	switch o {
	case OutcomeSelected, OutcomeRejected:
		return o, nil
	}
	return "", fmt.Errorf("unknown stage outcome %q", s)
}

// Candidate is an applicant tied to one job.
//
// Fields holds the job-defined intake data and carries no lifecycle meaning.
// Everything from Status down is owned by the status and stage machines.
type Candidate struct {
	ID             uuid.UUID      `json:"id"`
	JobID          uuid.UUID      `json:"job_id"`
	CreatedBy      uuid.UUID      `json:"created_by"`
	Fields         map[string]any `json:"fields"`
	Notes          string         `json:"notes,omitempty"`
	ResumeURL      string         `json:"resume_url,omitempty"`
	OfferLetterURL string         `json:"offer_letter_url,omitempty"`

	Status              Status   `json:"status"`
	InterviewStage      string   `json:"interview_stage,omitempty"`
	SelectionDate       *Date    `json:"selection_date,omitempty"`
	ExpectedJoiningDate *Date    `json:"expected_joining_date,omitempty"`
	JoiningDate         *Date    `json:"joining_date,omitempty"`
	OfferedCTC          *float64 `json:"offered_ctc,omitempty"`
	RejectionReason     string   `json:"rejection_reason,omitempty"`
	RejectedBy          string   `json:"rejected_by,omitempty"`
	DroppedBy           string   `json:"dropped_by,omitempty"`

	StatusHistory         []StatusHistoryEntry `json:"status_history"`
	InterviewStageHistory []StageHistoryEntry  `json:"interview_stage_history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusSnapshot records the auxiliary fields a transition captured.
type StatusSnapshot struct {
	InterviewStage      string   `json:"interview_stage,omitempty"`
	SelectionDate       *Date    `json:"selection_date,omitempty"`
	ExpectedJoiningDate *Date    `json:"expected_joining_date,omitempty"`
	JoiningDate         *Date    `json:"joining_date,omitempty"`
	OfferedCTC          *float64 `json:"offered_ctc,omitempty"`
	OfferLetterURL      string   `json:"offer_letter_url,omitempty"`
	RejectionReason     string   `json:"rejection_reason,omitempty"`
	RejectedBy          string   `json:"rejected_by,omitempty"`
	DroppedBy           string   `json:"dropped_by,omitempty"`
}

// StatusHistoryEntry is one accepted status transition.
type StatusHistoryEntry struct {
	Status        Status          `json:"status"`
	From          Status          `json:"from"`
	Comment       string          `json:"comment,omitempty"`
	Snapshot      *StatusSnapshot `json:"snapshot,omitempty"`
	UpdatedBy     uuid.UUID       `json:"updated_by"`
	UpdatedByName string          `json:"updated_by_name,omitempty"`
	At            time.Time       `json:"at"`
}

// StageHistoryEntry is one completed interview stage.
type StageHistoryEntry struct {
	StageName     string       `json:"stage_name"`
	Outcome       StageOutcome `json:"outcome"`
	Notes         string       `json:"notes,omitempty"`
	UpdatedBy     uuid.UUID    `json:"updated_by"`
	UpdatedByName string       `json:"updated_by_name,omitempty"`
	At            time.Time    `json:"at"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	if c.Fields != nil {
		out.Fields = make(map[string]any, len(c.Fields))
		for k, v := range c.Fields {
			out.Fields[k] = v
		}
	}
	out.SelectionDate = c.SelectionDate.clone()
	out.ExpectedJoiningDate = c.ExpectedJoiningDate.clone()
	out.JoiningDate = c.JoiningDate.clone()
	if c.OfferedCTC != nil {
		v := *c.OfferedCTC
		out.OfferedCTC = &v
	}
	out.StatusHistory = append([]StatusHistoryEntry(nil), c.StatusHistory...)
	out.InterviewStageHistory = append([]StageHistoryEntry(nil), c.InterviewStageHistory...)
	return &out
}

// StageCompleted reports whether the named stage already has a history entry.
func (c *Candidate) StageCompleted(name string) bool {
	for _, e := range c.InterviewStageHistory {
		if e.StageName == name {
			return true
		}
	}
	return false
}

// StageRejected reports whether any completed stage ended in rejection.
func (c *Candidate) StageRejected() bool {
	for _, e := range c.InterviewStageHistory {
		if e.Outcome == OutcomeRejected {
			return true
		}
	}
	return false
}

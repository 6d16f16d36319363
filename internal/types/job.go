package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the hiring state of a job opening.
type JobStatus string

// Job statuses.
const (
	JobOpen   JobStatus = "Open"
	JobClosed JobStatus = "Closed"
)

// ParseJobStatus converts a raw string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobOpen, JobClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Stage is a named step of a job's interview process.
type Stage struct {
	Name        string `json:"name" yaml:"name" validate:"required,max=100"`
	Responsible Role   `json:"responsible,omitempty" yaml:"responsible"`
}

// Job is an opening candidates are submitted against.
// Stages are ordered; their names form the vocabulary of Candidate.InterviewStage.
type Job struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Client         string          `json:"client"`
	ClientContacts []string        `json:"client_contacts,omitempty"`
	Stages         []Stage         `json:"stages"`
	Status         JobStatus       `json:"status"`
	IntakeSchema   json.RawMessage `json:"intake_schema,omitempty"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StageIndex returns the position of the named stage, or -1 if the job has no such stage.
func (j *Job) StageIndex(name string) int {
	for i, s := range j.Stages {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// HasStage reports whether name is one of the job's stages.
func (j *Job) HasStage(name string) bool {
	return j.StageIndex(name) >= 0
}

// NextStage returns the stage after name. ok is false when name is the last
// stage or not a stage of this job.
func (j *Job) NextStage(name string) (next string, ok bool) {
	i := j.StageIndex(name)
	if i < 0 || i+1 >= len(j.Stages) {
		return "", false
	}
	return j.Stages[i+1].Name, true
}

// FirstStage returns the first stage name, or "" when the job has no stages.
func (j *Job) FirstStage() string {
	if len(j.Stages) == 0 {
		return ""
	}
	return j.Stages[0].Name
}

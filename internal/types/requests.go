package types

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateUserRequest creates a roster member. Only admins may issue it.
type CreateUserRequest struct {
	Name     string     `json:"name" yaml:"name" validate:"required,min=1,max=200"`
	Email    string     `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	Role     Role       `json:"role" yaml:"role" validate:"required,oneof=Admin Manager Recruiter Mentor Finance"`
	IsAdmin  bool       `json:"is_admin" yaml:"is_admin"`
	Reporter *uuid.UUID `json:"reporter,omitempty" yaml:"reporter"`
}

// UpdateUserRequest replaces a user's editable attributes.
type UpdateUserRequest = CreateUserRequest

// CreateJobRequest creates a job opening.
type CreateJobRequest struct {
	Title          string          `json:"title" validate:"required,max=200"`
	Client         string          `json:"client" validate:"required,max=200"`
	ClientContacts []string        `json:"client_contacts,omitempty" validate:"omitempty,dive,email"`
	Stages         []Stage         `json:"stages" validate:"required,min=1,dive"`
	Status         JobStatus       `json:"status,omitempty" validate:"omitempty,oneof=Open Closed"`
	IntakeSchema   json.RawMessage `json:"intake_schema,omitempty"`
}

// UpdateJobRequest replaces a job's editable attributes.
type UpdateJobRequest = CreateJobRequest

// CreateCandidateRequest submits a candidate against a job.
type CreateCandidateRequest struct {
	JobID     uuid.UUID      `json:"job_id" validate:"required"`
	Fields    map[string]any `json:"fields" validate:"required"`
	Notes     string         `json:"notes,omitempty" validate:"max=5000"`
	ResumeURL string         `json:"resume_url,omitempty" validate:"omitempty,url"`
}

// UpdateCandidateRequest edits intake data. Lifecycle fields are not editable here.
type UpdateCandidateRequest struct {
	Fields    map[string]any `json:"fields,omitempty"`
	Notes     *string        `json:"notes,omitempty" validate:"omitnil,max=5000"`
	ResumeURL *string        `json:"resume_url,omitempty" validate:"omitnil,omitempty,url"`
}

// StatusChange is a request to move a candidate to Target.
// Required auxiliary fields depend on Target.
type StatusChange struct {
	Target              Status   `json:"status" validate:"required,oneof=New Shortlisted Interviewed Selected Joined Rejected Dropped Hold"`
	Comment             string   `json:"comment,omitempty" validate:"required_if=Target Dropped,max=2000"`
	InterviewStage      string   `json:"interview_stage,omitempty" validate:"max=100"`
	SelectionDate       *Date    `json:"selection_date,omitempty" validate:"required_if=Target Selected"`
	ExpectedJoiningDate *Date    `json:"expected_joining_date,omitempty"`
	JoiningDate         *Date    `json:"joining_date,omitempty" validate:"required_if=Target Joined"`
	OfferedCTC          *float64 `json:"offered_ctc,omitempty" validate:"required_if=Target Joined,omitnil,gt=0"`
	OfferLetterURL      string   `json:"offer_letter_url,omitempty" validate:"omitempty,url"`
	RejectionReason     string   `json:"rejection_reason,omitempty" validate:"required_if=Target Rejected,max=2000"`
	RejectedBy          string   `json:"rejected_by,omitempty" validate:"max=100"`
	DroppedBy           string   `json:"dropped_by,omitempty" validate:"max=100"`
}

// StageCompletion resolves one interview stage.
// Finalize asks the service to also drive the status change a rejection implies.
type StageCompletion struct {
	StageName string       `json:"stage_name" validate:"required,max=100"`
	Outcome   StageOutcome `json:"outcome" validate:"required,oneof=Selected Rejected"`
	Notes     string       `json:"notes,omitempty" validate:"max=5000"`
	Finalize  bool         `json:"finalize,omitempty"`
}

// ReassignRequest moves ownership of candidates to another user.
type ReassignRequest struct {
	CandidateIDs []uuid.UUID `json:"candidate_ids" validate:"required,min=1,max=1000"`
	NewOwnerID   uuid.UUID   `json:"new_owner_id" validate:"required"`
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

var defaultValidator = NewValidator()

// Validate checks v against its struct tags and converts failures into a
// ValidationError listing every offending field.
func Validate(op string, v any) error {
	err := defaultValidator.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError(op, "(root)", err.Error())
	}
	out := &ValidationError{Op: op, Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: describeTag(fe)})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must have at least " + fe.Param() + " entries"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

package tracker

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// ListJobs returns the jobs in the actor's management list, newest first.
func (s *Service) ListJobs(ctx context.Context, actor types.User) ([]types.Job, error) {
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, &types.StoreError{Op: "list jobs", Cause: err}
	}
	jobs := scope.Jobs(all)
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

// GetJob returns a job from the actor's management list.
func (s *Service) GetJob(ctx context.Context, actor types.User, id uuid.UUID) (*types.Job, error) {
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, storeErr("get job", "job", id, err)
	}
	if !scope.CanViewJob(job) {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: "view job " + id.String(), Reason: "job is outside the actor's visibility"}
	}
	return job, nil
}

// CreateJob opens a job. Admins and managers may create jobs.
func (s *Service) CreateJob(ctx context.Context, actor types.User, req types.CreateJobRequest) (*types.Job, error) {
	const op = "create job"
	if !actor.Admin() && actor.Role != types.RoleManager {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: "only admins and managers create jobs"}
	}
	if err := s.validateJob(op, req); err != nil {
		return nil, err
	}
	now := s.now()
	job := &types.Job{
		ID:        uuid.New(),
		CreatedBy: actor.ID,
		CreatedAt: now,
	}
	applyJobRequest(job, req)
	job.UpdatedAt = now
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, storeErr(op, "job", job.ID, err)
	}
	return job, nil
}

// UpdateJob replaces a job's editable attributes. A stage that a candidate of
// the job currently sits on cannot be renamed or removed; completed stages
// stay in the candidates' history as recorded.
func (s *Service) UpdateJob(ctx context.Context, actor types.User, id uuid.UUID, req types.UpdateJobRequest) (*types.Job, error) {
	const op = "update job"
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, storeErr(op, "job", id, err)
	}
	if !scope.CanManageJob(job) {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: "job is outside the actor's management scope"}
	}
	if err := s.validateJob(op, req); err != nil {
		return nil, err
	}
	if err := s.checkStagesInUse(ctx, op, job.ID, req.Stages); err != nil {
		return nil, err
	}
	applyJobRequest(job, req)
	job.UpdatedAt = s.now()
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, storeErr(op, "job", id, err)
	}
	return job, nil
}

// checkStagesInUse refuses a stage list that drops the current interview
// stage of any candidate of the job.
func (s *Service) checkStagesInUse(ctx context.Context, op string, jobID uuid.UUID, stages []types.Stage) error {
	keep := make(map[string]bool, len(stages))
	for _, st := range stages {
		keep[st.Name] = true
	}
	cands, err := s.store.ListCandidates(ctx, CandidateQuery{JobID: jobID})
	if err != nil {
		return &types.StoreError{Op: "list candidates", Cause: err}
	}
	ve := &types.ValidationError{Op: op}
	reported := make(map[string]bool)
	for _, c := range cands {
		if c.JobID != jobID || c.InterviewStage == "" || keep[c.InterviewStage] || reported[c.InterviewStage] {
			continue
		}
		reported[c.InterviewStage] = true
		ve.Fields = append(ve.Fields, types.FieldError{
			Field:   "stages",
			Message: fmt.Sprintf("stage %q is the current stage of candidate %s", c.InterviewStage, c.ID),
		})
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func (s *Service) validateJob(op string, req types.CreateJobRequest) error {
	if err := types.Validate(op, req); err != nil {
		return err
	}
	seen := make(map[string]bool, len(req.Stages))
	for i, st := range req.Stages {
		if seen[st.Name] {
			return types.NewValidationError(op, fmt.Sprintf("stages[%d].name", i), fmt.Sprintf("duplicate stage %q", st.Name))
		}
		seen[st.Name] = true
		if st.Responsible != "" {
			if _, err := types.ParseRole(string(st.Responsible)); err != nil {
				return types.NewValidationError(op, fmt.Sprintf("stages[%d].responsible", i), err.Error())
			}
		}
	}
	return s.intake.CheckSchema(req.IntakeSchema)
}

func applyJobRequest(job *types.Job, req types.CreateJobRequest) {
	job.Title = req.Title
	job.Client = req.Client
	job.ClientContacts = append([]string(nil), req.ClientContacts...)
	job.Stages = append([]types.Stage(nil), req.Stages...)
	job.Status = req.Status
	if job.Status == "" {
		job.Status = types.JobOpen
	}
	job.IntakeSchema = req.IntakeSchema
}

// ClientNotification is the command handed to the mail dispatcher.
type ClientNotification struct {
	JobID        uuid.UUID   `json:"job_id"`
	Client       string      `json:"client"`
	Contacts     []string    `json:"contacts"`
	CandidateIDs []uuid.UUID `json:"candidate_ids"`
}

// RequestClientNotification asks the external mailer to send candidates of a
// job to the client's contacts. With no ids given, every candidate of the job
// the actor can see is included. Delivery itself happens elsewhere.
func (s *Service) RequestClientNotification(ctx context.Context, actor types.User, jobID uuid.UUID, ids []uuid.UUID) (*ClientNotification, error) {
	const op = "notify client"
	if actor.ReadOnly() {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: op, Reason: fmt.Sprintf("role %s is read-only", actor.Role)}
	}
	scope, _, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, storeErr(op, "job", jobID, err)
	}
	if len(job.ClientContacts) == 0 {
		return nil, types.NewValidationError(op, "client_contacts", "job has no client contacts")
	}

	cands, err := s.store.ListCandidates(ctx, CandidateQuery{Owners: scope.Owners(), JobID: jobID})
	if err != nil {
		return nil, &types.StoreError{Op: "list candidates", Cause: err}
	}
	visible := make(map[uuid.UUID]bool)
	var all []uuid.UUID
	for _, c := range scope.Candidates(cands) {
		if c.JobID != jobID {
			continue
		}
		visible[c.ID] = true
		all = append(all, c.ID)
	}

	selected := all
	if len(ids) > 0 {
		selected = make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if !visible[id] {
				return nil, &types.ReferenceError{Kind: "candidate", ID: id.String(), Message: "not a visible candidate of this job"}
			}
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		return nil, types.NewValidationError(op, "candidate_ids", "no candidates to send")
	}

	n := &ClientNotification{
		JobID:        job.ID,
		Client:       job.Client,
		Contacts:     append([]string(nil), job.ClientContacts...),
		CandidateIDs: selected,
	}
	// the command is the whole operation, so a failed publish is reported
	err = s.events.Publish(ctx, events.Event{
		Type:         events.TypeNotifyClient,
		ActorID:      actor.ID,
		JobID:        ptr(job.ID),
		CandidateIDs: n.CandidateIDs,
		Contacts:     n.Contacts,
		At:           s.now(),
	})
	if err != nil {
		return nil, &types.StoreError{Op: op, Cause: err}
	}
	return n, nil
}

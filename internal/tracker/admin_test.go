package tracker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

func TestUserManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.CreateUser(ctx, f.admin, types.CreateUserRequest{Name: "Nia New", Role: types.RoleRecruiter, Reporter: &f.manager.ID})
	require.NoError(t, err)
	assert.Equal(t, f.manager.ID, *u.Reporter)

	_, err = f.svc.CreateUser(ctx, f.manager, types.CreateUserRequest{Name: "Nope", Role: types.RoleRecruiter})
	var ae *types.AuthorizationError
	require.ErrorAs(t, err, &ae)

	missing := uuid.New()
	_, err = f.svc.CreateUser(ctx, f.admin, types.CreateUserRequest{Name: "Dangling", Role: types.RoleRecruiter, Reporter: &missing})
	var re *types.ReferenceError
	require.ErrorAs(t, err, &re)

	_, err = f.svc.CreateUser(ctx, f.admin, types.CreateUserRequest{Name: "Bad", Role: "Intern"})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "role", ve.Fields[0].Field)

	_, err = f.svc.UpdateUser(ctx, f.admin, u.ID, types.UpdateUserRequest{Name: "Nia", Role: types.RoleMentor, Reporter: &u.ID})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reporter", ve.Fields[0].Field)

	updated, err := f.svc.UpdateUser(ctx, f.admin, u.ID, types.UpdateUserRequest{Name: "Nia", Role: types.RoleMentor})
	require.NoError(t, err)
	assert.Equal(t, types.RoleMentor, updated.Role)
	assert.Nil(t, updated.Reporter)

	require.ErrorAs(t, f.svc.DeleteUser(ctx, f.admin, f.admin.ID), &ve)
	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, u.ID))
	require.ErrorAs(t, f.svc.DeleteUser(ctx, f.admin, u.ID), &re)

	users, err := f.svc.ListUsers(ctx, f.recruiter)
	require.NoError(t, err)
	assert.Len(t, users, 6)
	assert.Equal(t, "Ada Admin", users[0].Name)
}

func TestReportees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Reportees(ctx, f.manager, f.manager.ID)
	require.NoError(t, err)
	names := []string{}
	for _, u := range got {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"Mia Mentor", "Rae Recruiter"}, names)

	got, err = f.svc.Reportees(ctx, f.admin, f.admin.ID)
	require.NoError(t, err)
	require.Len(t, got, 1, "non-managers see one level")
	assert.Equal(t, f.manager.ID, got[0].ID)

	_, err = f.svc.Reportees(ctx, f.recruiter, f.manager.ID)
	var ae *types.AuthorizationError
	require.ErrorAs(t, err, &ae)

	_, err = f.svc.Reportees(ctx, f.admin, uuid.New())
	var re *types.ReferenceError
	require.ErrorAs(t, err, &re)
}

func TestJobManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateJob(ctx, f.recruiter, types.CreateJobRequest{Title: "X", Client: "Y", Stages: []types.Stage{{Name: "A"}}})
	var ae *types.AuthorizationError
	require.ErrorAs(t, err, &ae)

	var ve *types.ValidationError
	_, err = f.svc.CreateJob(ctx, f.admin, types.CreateJobRequest{Title: "X", Client: "Y", Stages: []types.Stage{{Name: "A"}, {Name: "A"}}})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "stages[1].name", ve.Fields[0].Field)

	_, err = f.svc.CreateJob(ctx, f.admin, types.CreateJobRequest{Title: "X", Client: "Y"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "stages", ve.Fields[0].Field)

	_, err = f.svc.CreateJob(ctx, f.admin, types.CreateJobRequest{Title: "X", Client: "Y", Stages: []types.Stage{{Name: "A"}}, IntakeSchema: json.RawMessage(`{"type": 7}`)})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "intake_schema", ve.Fields[0].Field)

	foreign, err := f.svc.CreateJob(ctx, f.admin, types.CreateJobRequest{Title: "Data Engineer", Client: "Globex", Stages: []types.Stage{{Name: "Panel"}}, Status: types.JobClosed})
	require.NoError(t, err)

	mgrJobs, err := f.svc.ListJobs(ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, mgrJobs, 1)
	assert.Equal(t, f.job.ID, mgrJobs[0].ID)

	adminJobs, err := f.svc.ListJobs(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, adminJobs, 2)

	_, err = f.svc.GetJob(ctx, f.recruiter, foreign.ID)
	require.ErrorAs(t, err, &ae, "closed foreign jobs are hidden from recruiters")

	_, err = f.svc.UpdateJob(ctx, f.manager, foreign.ID, types.UpdateJobRequest{Title: "Mine now", Client: "Globex", Stages: []types.Stage{{Name: "Panel"}}})
	require.ErrorAs(t, err, &ae)

	updated, err := f.svc.UpdateJob(ctx, f.manager, f.job.ID, types.UpdateJobRequest{
		Title:  "Senior Backend Engineer",
		Client: "Acme",
		Stages: []types.Stage{{Name: "Screening"}, {Name: "Technical"}, {Name: "System Design"}, {Name: "HR"}},
		Status: types.JobOpen,
	})
	require.NoError(t, err)
	assert.Len(t, updated.Stages, 4)
	assert.Empty(t, updated.ClientContacts)
	assert.Equal(t, f.job.CreatedBy, updated.CreatedBy)
}

func TestRequestClientNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.candidate(t, f.recruiter, "Grace")
	other := f.candidate(t, f.peer, "Linus")

	n, err := f.svc.RequestClientNotification(ctx, f.recruiter, f.job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mine.ID}, n.CandidateIDs)
	assert.Equal(t, []string{"hiring@acme.example"}, n.Contacts)

	cmds := f.events.OfType(events.TypeNotifyClient)
	require.Len(t, cmds, 1)
	assert.Equal(t, []uuid.UUID{mine.ID}, cmds[0].CandidateIDs)

	_, err = f.svc.RequestClientNotification(ctx, f.recruiter, f.job.ID, []uuid.UUID{other.ID})
	var re *types.ReferenceError
	require.ErrorAs(t, err, &re)

	_, err = f.svc.RequestClientNotification(ctx, f.finance, f.job.ID, nil)
	var ae *types.AuthorizationError
	require.ErrorAs(t, err, &ae)

	n, err = f.svc.RequestClientNotification(ctx, f.admin, f.job.ID, []uuid.UUID{other.ID, mine.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{other.ID, mine.ID}, n.CandidateIDs)

	f.events.Err = errors.New("redis down")
	_, err = f.svc.RequestClientNotification(ctx, f.admin, f.job.ID, nil)
	var se *types.StoreError
	require.ErrorAs(t, err, &se)
}

func TestResolveActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.ResolveActor(ctx, f.mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RoleMentor, u.Role)

	_, err = f.svc.ResolveActor(ctx, uuid.New())
	var ae *types.AuthorizationError
	require.ErrorAs(t, err, &ae)

	assert.True(t, tracker.SystemActor().Admin())
}

func TestUpdateJob_StageInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.candidate(t, f.recruiter, "Grace")
	_, err := f.svc.ChangeStatus(ctx, f.recruiter, c.ID, types.StatusChange{Target: types.StatusInterviewed, InterviewStage: "Technical"})
	require.NoError(t, err)

	_, err = f.svc.UpdateJob(ctx, f.manager, f.job.ID, types.UpdateJobRequest{
		Title:  "Backend Engineer",
		Client: "Acme",
		Stages: []types.Stage{{Name: "Screening"}, {Name: "Onsite"}},
	})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "stages", ve.Fields[0].Field)
	assert.Contains(t, ve.Fields[0].Message, `"Technical"`)

	job, err := f.svc.GetJob(ctx, f.manager, f.job.ID)
	require.NoError(t, err)
	assert.True(t, job.HasStage("Technical"), "refused update leaves the stages as they were")

	// Keeping the occupied stage while renaming the others is fine.
	updated, err := f.svc.UpdateJob(ctx, f.manager, f.job.ID, types.UpdateJobRequest{
		Title:  "Backend Engineer",
		Client: "Acme",
		Stages: []types.Stage{{Name: "Phone Screen"}, {Name: "Technical"}},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Stages, 2)
}

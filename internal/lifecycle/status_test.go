package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/recruit-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func backendJob() *types.Job {
	return &types.Job{
		ID:     uuid.New(),
		Title:  "Backend Engineer",
		Client: "Acme",
		Status: types.JobOpen,
		Stages: []types.Stage{
			{Name: "Screening", Responsible: types.RoleRecruiter},
			{Name: "Technical", Responsible: types.RoleManager},
			{Name: "HR", Responsible: types.RoleManager},
		},
	}
}

func newCandidate(job *types.Job, status types.Status) *types.Candidate {
	return &types.Candidate{
		ID:        uuid.New(),
		JobID:     job.ID,
		CreatedBy: uuid.New(),
		Fields:    map[string]any{"name": "Ada"},
		Status:    status,
	}
}

func actor(role types.Role) types.User {
	return types.User{ID: uuid.New(), Name: "Actor " + string(role), Role: role}
}

func date(s string) *types.Date {
	d, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ctc(v float64) *float64 { return &v }

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %T: %v", err, err)
	out := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to types.Status
		want     bool
	}{
		{types.StatusNew, types.StatusShortlisted, true},
		{types.StatusShortlisted, types.StatusInterviewed, true},
		{types.StatusInterviewed, types.StatusSelected, true},
		{types.StatusSelected, types.StatusJoined, true},
		{types.StatusSelected, types.StatusSelected, true},
		{types.StatusJoined, types.StatusJoined, true},
		{types.StatusJoined, types.StatusDropped, true},
		{types.StatusRejected, types.StatusDropped, true},
		{types.StatusHold, types.StatusInterviewed, true},
		{types.StatusNew, types.StatusJoined, false},
		{types.StatusJoined, types.StatusRejected, false},
		{types.StatusRejected, types.StatusShortlisted, false},
		{types.StatusDropped, types.StatusNew, false},
		{types.StatusShortlisted, types.StatusShortlisted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransitionAllowed(tt.from, tt.to))
		})
	}
}

func TestDroppedIsTerminal(t *testing.T) {
	for _, to := range types.AllStatuses {
		assert.False(t, IsTransitionAllowed(types.StatusDropped, to), "Dropped -> %s", to)
	}
	assert.Empty(t, NextStatuses(types.StatusDropped))
}

func TestApply_AppendsOneHistoryEntryPerTransition(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusNew)
	recruiter := actor(types.RoleRecruiter)

	steps := []types.StatusChange{
		{Target: types.StatusShortlisted, Comment: "good profile"},
		{Target: types.StatusInterviewed},
		{Target: types.StatusSelected, SelectionDate: date("2026-03-01"), OfferedCTC: ctc(1200000)},
		{Target: types.StatusSelected, SelectionDate: date("2026-03-03"), ExpectedJoiningDate: date("2026-04-01")},
		{Target: types.StatusJoined, JoiningDate: date("2026-04-02"), OfferedCTC: ctc(1250000), OfferLetterURL: "https://files.example.com/offer.pdf"},
	}
	for i, step := range steps {
		require.NoError(t, Apply(c, job, recruiter, step, now.Add(time.Duration(i)*time.Minute)))
		assert.Len(t, c.StatusHistory, i+1)
	}

	assert.Equal(t, types.StatusJoined, c.Status)
	assert.Equal(t, "2026-03-03", c.SelectionDate.String(), "re-entering Selected edits the date in place")
	assert.Equal(t, "2026-04-01", c.ExpectedJoiningDate.String())
	assert.Equal(t, 1250000.0, *c.OfferedCTC)
	assert.Equal(t, "https://files.example.com/offer.pdf", c.OfferLetterURL)
	assert.Equal(t, "Screening", c.InterviewStage, "entering Interviewed defaults to the first stage")

	first := c.StatusHistory[0]
	assert.Equal(t, types.StatusNew, first.From)
	assert.Equal(t, types.StatusShortlisted, first.Status)
	assert.Equal(t, "good profile", first.Comment)
	assert.Equal(t, recruiter.ID, first.UpdatedBy)
	assert.Equal(t, now, first.At)
	assert.Nil(t, first.Snapshot)

	reentry := c.StatusHistory[3]
	assert.Equal(t, types.StatusSelected, reentry.From)
	assert.Equal(t, types.StatusSelected, reentry.Status)
	require.NotNil(t, reentry.Snapshot)
	assert.Equal(t, "2026-04-01", reentry.Snapshot.ExpectedJoiningDate.String())
}

func TestApply_JoinedRequiresJoiningDate(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusSelected)
	before := c.Clone()

	err := Apply(c, job, actor(types.RoleManager), types.StatusChange{
		Target:     types.StatusJoined,
		OfferedCTC: ctc(10),
	}, now)

	assert.Equal(t, []string{"joining_date"}, fieldNames(t, err))
	assert.Equal(t, before, c, "a rejected transition leaves the candidate untouched")
}

func TestApply_RequiredFieldsPerTarget(t *testing.T) {
	job := backendJob()
	tests := []struct {
		name   string
		from   types.Status
		change types.StatusChange
		fields []string
	}{
		{"selected without date", types.StatusInterviewed, types.StatusChange{Target: types.StatusSelected}, []string{"selection_date"}},
		{"joined without anything", types.StatusSelected, types.StatusChange{Target: types.StatusJoined}, []string{"joining_date", "offered_ctc"}},
		{"joined with zero ctc", types.StatusSelected, types.StatusChange{Target: types.StatusJoined, JoiningDate: date("2026-01-01"), OfferedCTC: ctc(0)}, []string{"offered_ctc"}},
		{"rejected without reason", types.StatusInterviewed, types.StatusChange{Target: types.StatusRejected}, []string{"rejection_reason"}},
		{"dropped without comment", types.StatusJoined, types.StatusChange{Target: types.StatusDropped}, []string{"comment"}},
		{"bad offer letter url", types.StatusSelected, types.StatusChange{Target: types.StatusJoined, JoiningDate: date("2026-01-01"), OfferedCTC: ctc(5), OfferLetterURL: "not a url"}, []string{"offer_letter_url"}},
		{"unknown status", types.StatusNew, types.StatusChange{Target: "Ghosted"}, []string{"status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCandidate(job, tt.from)
			err := Apply(c, job, actor(types.RoleManager), tt.change, now)
			assert.ElementsMatch(t, tt.fields, fieldNames(t, err))
			assert.Equal(t, tt.from, c.Status)
			assert.Empty(t, c.StatusHistory)
		})
	}
}

func TestApply_IllegalTransition(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusRejected)

	err := Apply(c, job, actor(types.RoleAdmin), types.StatusChange{Target: types.StatusShortlisted}, now)

	assert.Equal(t, []string{"status"}, fieldNames(t, err))
	assert.Equal(t, types.StatusRejected, c.Status)
}

func TestApply_FinanceIsReadOnly(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusNew)

	err := Apply(c, job, actor(types.RoleFinance), types.StatusChange{Target: types.StatusShortlisted}, now)

	var ae *types.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, types.StatusNew, c.Status)
	assert.Empty(t, c.StatusHistory)
}

func TestApply_UnknownJob(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusNew)

	err := Apply(c, backendJob(), actor(types.RoleAdmin), types.StatusChange{Target: types.StatusShortlisted}, now)

	var re *types.ReferenceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "job", re.Kind)
}

func TestApply_InterviewedValidatesStageName(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusShortlisted)

	err := Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusInterviewed, InterviewStage: "Onsite"}, now)
	var re *types.ReferenceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "stage", re.Kind)
	assert.Empty(t, c.InterviewStage)

	require.NoError(t, Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusInterviewed, InterviewStage: "Technical"}, now))
	assert.Equal(t, "Technical", c.InterviewStage)
	assert.Equal(t, "Technical", c.StatusHistory[0].Snapshot.InterviewStage)
}

func TestApply_DefaultAttribution(t *testing.T) {
	job := backendJob()
	tests := []struct {
		prior types.Status
		want  string
	}{
		{types.StatusShortlisted, "Manager"},
		{types.StatusInterviewed, "Client"},
		{types.StatusSelected, "Client"},
		{types.StatusJoined, "Client"},
	}
	for _, tt := range tests {
		t.Run("dropped from "+string(tt.prior), func(t *testing.T) {
			c := newCandidate(job, tt.prior)
			require.NoError(t, Apply(c, job, actor(types.RoleRecruiter), types.StatusChange{Target: types.StatusDropped, Comment: "withdrew"}, now))
			assert.Equal(t, tt.want, c.DroppedBy)
			assert.Equal(t, "withdrew", c.StatusHistory[0].Comment)
		})
	}

	t.Run("rejected from interviewed", func(t *testing.T) {
		c := newCandidate(job, types.StatusInterviewed)
		require.NoError(t, Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusRejected, RejectionReason: "weak system design"}, now))
		assert.Equal(t, "Client", c.RejectedBy)
		assert.Equal(t, "weak system design", c.RejectionReason)
		assert.Equal(t, "weak system design", c.StatusHistory[0].Comment, "reason doubles as the history comment")
	})

	t.Run("explicit attribution wins", func(t *testing.T) {
		c := newCandidate(job, types.StatusInterviewed)
		require.NoError(t, Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusDropped, Comment: "counter offer", DroppedBy: "Candidate"}, now))
		assert.Equal(t, "Candidate", c.DroppedBy)
	})
}

func TestApply_NeverClearsAuxiliaryFields(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusSelected)
	c.SelectionDate = date("2026-02-01")
	c.OfferedCTC = ctc(900000)

	require.NoError(t, Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusRejected, RejectionReason: "offer declined"}, now))
	require.NoError(t, Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusDropped, Comment: "closing"}, now))

	assert.Equal(t, "2026-02-01", c.SelectionDate.String())
	assert.Equal(t, 900000.0, *c.OfferedCTC)
	assert.Equal(t, "offer declined", c.RejectionReason)
	assert.Equal(t, types.StatusDropped, c.Status)
	assert.Len(t, c.StatusHistory, 2)
}

func TestApply_EmptyStatusTreatedAsNew(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, "")

	require.NoError(t, Apply(c, job, actor(types.RoleRecruiter), types.StatusChange{Target: types.StatusShortlisted}, now))
	assert.Equal(t, types.StatusNew, c.StatusHistory[0].From)
}

func TestApply_ZeroDatesCountAsMissing(t *testing.T) {
	job := backendJob()
	tests := []struct {
		name   string
		from   types.Status
		change types.StatusChange
		field  string
	}{
		{"selected with zero date", types.StatusInterviewed, types.StatusChange{Target: types.StatusSelected, SelectionDate: &types.Date{}}, "selection_date"},
		{"joined with zero date", types.StatusSelected, types.StatusChange{Target: types.StatusJoined, JoiningDate: &types.Date{}, OfferedCTC: ctc(5)}, "joining_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCandidate(job, tt.from)
			err := Apply(c, job, actor(types.RoleManager), tt.change, now)
			assert.Equal(t, []string{tt.field}, fieldNames(t, err))
			assert.Equal(t, tt.from, c.Status)
			assert.Nil(t, c.JoiningDate)
			assert.Nil(t, c.SelectionDate)
			assert.Empty(t, c.StatusHistory)
		})
	}
}

func TestApply_RejectionAfterStageRejection(t *testing.T) {
	job := backendJob()
	c := newCandidate(job, types.StatusShortlisted)
	c.InterviewStageHistory = []types.StageHistoryEntry{
		{StageName: "Screening", Outcome: types.OutcomeRejected, At: now},
	}

	require.NoError(t, Apply(c, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusRejected, RejectionReason: "failed screening"}, now))
	assert.Equal(t, AttributionExternal, c.RejectedBy)

	// Without a rejected stage the Shortlisted default still applies.
	other := newCandidate(job, types.StatusShortlisted)
	require.NoError(t, Apply(other, job, actor(types.RoleManager), types.StatusChange{Target: types.StatusRejected, RejectionReason: "overqualified"}, now))
	assert.Equal(t, AttributionInternal, other.RejectedBy)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-tracker/internal/config"
	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/memstore"
	"github.com/jonathan/recruit-tracker/internal/server/ratelimit"
	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memstore.Store
	events  *events.Recorder

	admin, manager, recruiter, peer, finance types.User
	job                                      uuid.UUID
}

func newTestServer(t *testing.T, rl *ratelimit.Config) *testServer {
	t.Helper()
	ctx := context.Background()
	ts := &testServer{t: t, store: memstore.New(), events: &events.Recorder{}}

	svc, err := tracker.New(ts.store, ts.events, tracker.Options{ReassignConcurrency: 2})
	require.NoError(t, err)

	mk := func(name string, role types.Role, reporter *types.User) types.User {
		u := types.User{ID: uuid.New(), Name: name, Role: role, CreatedAt: time.Now()}
		if reporter != nil {
			u.Reporter = &reporter.ID
		}
		require.NoError(t, ts.store.CreateUser(ctx, &u))
		return u
	}
	ts.admin = mk("Ada Admin", types.RoleAdmin, nil)
	ts.manager = mk("Max Manager", types.RoleManager, &ts.admin)
	ts.recruiter = mk("Rae Recruiter", types.RoleRecruiter, &ts.manager)
	ts.peer = mk("Pat Peer", types.RoleRecruiter, nil)
	ts.finance = mk("Fin Finance", types.RoleFinance, nil)

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	srv, err := New(svc, Config{JWT: &config.JWTConfig{Secret: testSecret}, RateLimit: rl})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	ts.handler = srv.Handler()

	var job types.Job
	ts.do(ts.manager, http.MethodPost, "/jobs", types.CreateJobRequest{
		Title:          "Backend Engineer",
		Client:         "Acme",
		ClientContacts: []string{"hiring@acme.example"},
		Stages:         []types.Stage{{Name: "Screening"}, {Name: "Technical"}, {Name: "HR"}},
	}, http.StatusCreated, &job)
	ts.job = job.ID
	return ts
}

func (ts *testServer) request(as *types.User, method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+signToken(ts.t, testSecret, as.ID, "", time.Now().Add(time.Hour)))
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// do performs a request, asserts the status and decodes the body into out.
func (ts *testServer) do(as types.User, method, path string, body any, want int, out any) {
	ts.t.Helper()
	rec := ts.request(&as, method, path, body)
	require.Equal(ts.t, want, rec.Code, rec.Body.String())
	if out != nil {
		require.NoError(ts.t, json.NewDecoder(rec.Body).Decode(out))
	}
}

func (ts *testServer) candidate(owner types.User, name string) types.Candidate {
	ts.t.Helper()
	var c types.Candidate
	ts.do(owner, http.MethodPost, "/candidates", types.CreateCandidateRequest{
		JobID:  ts.job,
		Fields: map[string]any{"name": name},
	}, http.StatusCreated, &c)
	return c
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.request(nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.request(nil, http.MethodGet, "/candidates", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	stranger := types.User{ID: uuid.New()}
	rec = ts.request(&stranger, http.MethodGet, "/candidates", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var me types.User
	ts.do(ts.recruiter, http.MethodGet, "/me", nil, http.StatusOK, &me)
	assert.Equal(t, ts.recruiter.ID, me.ID)
}

func TestCandidateLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	c := ts.candidate(ts.recruiter, "Grace Hopper")
	assert.Equal(t, types.StatusNew, c.Status)

	path := "/candidates/" + c.ID.String()

	// Visibility: the manager sees a reportee's candidate, an unrelated peer does not.
	ts.do(ts.manager, http.MethodGet, path, nil, http.StatusOK, nil)
	ts.do(ts.peer, http.MethodGet, path, nil, http.StatusForbidden, nil)
	ts.do(ts.recruiter, http.MethodGet, "/candidates/not-a-uuid", nil, http.StatusBadRequest, nil)
	ts.do(ts.recruiter, http.MethodGet, "/candidates/"+uuid.NewString(), nil, http.StatusNotFound, nil)

	// Missing required auxiliary field lists the field.
	var body errorBody
	ts.do(ts.recruiter, http.MethodPost, path+"/status", types.StatusChange{Target: types.StatusRejected}, http.StatusBadRequest, &body)
	require.NotEmpty(t, body.Fields)
	assert.Equal(t, "rejection_reason", body.Fields[0].Field)

	ts.do(ts.recruiter, http.MethodPost, path+"/status", types.StatusChange{Target: types.StatusInterviewed}, http.StatusOK, &c)
	assert.Equal(t, types.StatusInterviewed, c.Status)
	assert.Equal(t, "Screening", c.InterviewStage)
	require.Len(t, c.StatusHistory, 1)

	var res tracker.StageCompletionResult
	ts.do(ts.recruiter, http.MethodPost, path+"/stages", types.StageCompletion{StageName: "Screening", Outcome: types.OutcomeSelected}, http.StatusOK, &res)
	assert.Equal(t, "Technical", res.Candidate.InterviewStage)
	assert.Equal(t, types.StatusInterviewed, res.Candidate.Status)

	ts.do(ts.recruiter, http.MethodPost, path+"/stages", types.StageCompletion{StageName: "Technical", Outcome: types.OutcomeRejected, Notes: "weak on systems", Finalize: true}, http.StatusOK, &res)
	assert.True(t, res.Finalized)
	assert.Equal(t, types.StatusRejected, res.Candidate.Status)
	assert.Equal(t, "Client", res.Candidate.RejectedBy)

	ts.do(ts.finance, http.MethodPost, path+"/status", types.StatusChange{Target: types.StatusHold}, http.StatusForbidden, nil)

	notes := "call back in spring"
	ts.do(ts.recruiter, http.MethodPatch, path, types.UpdateCandidateRequest{Notes: &notes}, http.StatusOK, &c)
	assert.Equal(t, notes, c.Notes)

	ts.do(ts.peer, http.MethodDelete, path, nil, http.StatusForbidden, nil)
	rec := ts.request(&ts.recruiter, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	ts.do(ts.recruiter, http.MethodGet, path, nil, http.StatusNotFound, nil)
}

func TestListCandidates(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, name := range []string{"Ann", "Bob", "Cid"} {
		ts.candidate(ts.recruiter, name)
	}
	ts.candidate(ts.peer, "Dee")

	var page tracker.Page
	ts.do(ts.manager, http.MethodGet, "/candidates?page=1&page_size=2", nil, http.StatusOK, &page)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)

	ts.do(ts.admin, http.MethodGet, "/candidates?search=dee", nil, http.StatusOK, &page)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "Dee", page.Items[0].Fields["name"])

	ts.do(ts.finance, http.MethodGet, "/candidates", nil, http.StatusOK, &page)
	assert.Zero(t, page.TotalCount, "finance only sees joined candidates")

	ts.do(ts.admin, http.MethodGet, "/candidates?status=Selected&selection_from=2026-13-01", nil, http.StatusBadRequest, nil)
	ts.do(ts.admin, http.MethodGet, "/candidates?job_id=nope", nil, http.StatusBadRequest, nil)
	ts.do(ts.admin, http.MethodGet, "/candidates?status=Limbo", nil, http.StatusBadRequest, nil)
}

func TestOrphanReassignment(t *testing.T) {
	ts := newTestServer(t, nil)
	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		ids = append(ids, ts.candidate(ts.peer, name).ID)
	}
	rec := ts.request(&ts.admin, http.MethodDelete, "/users/"+ts.peer.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	ts.do(ts.manager, http.MethodGet, "/candidates/orphans", nil, http.StatusForbidden, nil)
	var orphaned []types.Candidate
	ts.do(ts.admin, http.MethodGet, "/candidates/orphans", nil, http.StatusOK, &orphaned)
	assert.Len(t, orphaned, 5)

	ts.store.FailWrite = func(id uuid.UUID) error {
		if id == ids[2] {
			return errors.New("disk full")
		}
		return nil
	}
	var resp ReassignResponse
	ts.do(ts.admin, http.MethodPost, "/candidates/orphans/reassign", types.ReassignRequest{CandidateIDs: ids, NewOwnerID: ts.recruiter.ID}, http.StatusMultiStatus, &resp)
	assert.Len(t, resp.Succeeded, 4)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, ids[2], resp.Failed[0].ID)
	assert.Equal(t, "4/5 reassigned", resp.Summary)

	ts.store.FailWrite = nil
	ts.do(ts.admin, http.MethodPost, "/candidates/orphans/reassign", types.ReassignRequest{CandidateIDs: []uuid.UUID{ids[2]}, NewOwnerID: ts.recruiter.ID}, http.StatusOK, &resp)
	assert.Equal(t, "1/1 reassigned", resp.Summary)

	ts.do(ts.admin, http.MethodGet, "/candidates/orphans", nil, http.StatusOK, &orphaned)
	assert.Empty(t, orphaned)

	ts.do(ts.admin, http.MethodPost, "/candidates/orphans/reassign", types.ReassignRequest{CandidateIDs: ids, NewOwnerID: uuid.New()}, http.StatusNotFound, nil)
	ts.do(ts.admin, http.MethodPost, "/candidates/orphans/reassign", types.ReassignRequest{NewOwnerID: ts.recruiter.ID}, http.StatusBadRequest, nil)
}

func TestUsersAndJobs(t *testing.T) {
	ts := newTestServer(t, nil)

	var u types.User
	ts.do(ts.admin, http.MethodPost, "/users", types.CreateUserRequest{Name: "Nia", Role: types.RoleRecruiter, Reporter: &ts.manager.ID}, http.StatusCreated, &u)
	ts.do(ts.manager, http.MethodPost, "/users", types.CreateUserRequest{Name: "No", Role: types.RoleRecruiter}, http.StatusForbidden, nil)

	var team []types.User
	ts.do(ts.manager, http.MethodGet, "/users/"+ts.manager.ID.String()+"/reportees", nil, http.StatusOK, &team)
	assert.Len(t, team, 2)

	ts.do(ts.admin, http.MethodPut, "/users/"+u.ID.String(), types.UpdateUserRequest{Name: "Nia", Role: types.RoleMentor}, http.StatusOK, &u)
	assert.Equal(t, types.RoleMentor, u.Role)

	var jobs []types.Job
	ts.do(ts.recruiter, http.MethodGet, "/jobs", nil, http.StatusOK, &jobs)
	assert.Len(t, jobs, 1)
	ts.do(ts.recruiter, http.MethodPost, "/jobs", types.CreateJobRequest{Title: "X", Client: "Y", Stages: []types.Stage{{Name: "S"}}}, http.StatusForbidden, nil)

	rec := ts.request(&ts.manager, http.MethodPost, "/jobs", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyClient(t *testing.T) {
	ts := newTestServer(t, nil)
	c := ts.candidate(ts.recruiter, "Grace")

	var n tracker.ClientNotification
	ts.do(ts.recruiter, http.MethodPost, "/jobs/"+ts.job.String()+"/notify", nil, http.StatusAccepted, &n)
	assert.Equal(t, []uuid.UUID{c.ID}, n.CandidateIDs)
	assert.Len(t, ts.events.OfType(events.TypeNotifyClient), 1)

	ts.events.Err = errors.New("redis down")
	ts.do(ts.recruiter, http.MethodPost, "/jobs/"+ts.job.String()+"/notify", NotifyClientRequest{CandidateIDs: []uuid.UUID{c.ID}}, http.StatusServiceUnavailable, nil)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/candidates/orphans/reassign", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	})
	req := types.ReassignRequest{CandidateIDs: []uuid.UUID{uuid.New()}, NewOwnerID: ts.admin.ID}

	first := ts.request(&ts.admin, http.MethodPost, "/candidates/orphans/reassign", req)
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := ts.request(&ts.admin, http.MethodPost, "/candidates/orphans/reassign", req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

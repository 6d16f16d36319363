package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/orphans"
	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// ReassignResponse reports a reassignment batch item by item.
type ReassignResponse struct {
	orphans.Result
	Summary string `json:"summary"`
}

// parseListQuery maps query parameters onto a ListFilter plus paging.
func parseListQuery(q url.Values) (tracker.ListFilter, int, int, error) {
	const op = "list candidates"
	f := tracker.ListFilter{
		Search:   q.Get("search"),
		Status:   types.Status(q.Get("status")),
		Client:   q.Get("client"),
		JobTitle: q.Get("job_title"),
		Stage:    q.Get("stage"),
	}
	if v := q.Get("job_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, 0, 0, types.NewValidationError(op, "job_id", "must be a UUID")
		}
		f.JobID = id
	}

	ranges := []struct {
		prefix string
		dst    *tracker.DateRange
	}{
		{"selection", &f.Selection},
		{"expected_joining", &f.ExpectedJoining},
		{"joining", &f.Joining},
	}
	for _, rg := range ranges {
		for _, side := range []string{"from", "to"} {
			key := rg.prefix + "_" + side
			v := q.Get(key)
			if v == "" {
				continue
			}
			d, err := types.ParseDate(v)
			if err != nil {
				return f, 0, 0, types.NewValidationError(op, key, "must be a YYYY-MM-DD date")
			}
			if side == "from" {
				rg.dst.From = d
			} else {
				rg.dst.To = d
			}
		}
	}

	page, size := 0, 0
	for key, dst := range map[string]*int{"page": &page, "page_size": &size} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, 0, 0, types.NewValidationError(op, key, "must be an integer")
		}
		*dst = n
	}
	return f, page, size, nil
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	filter, page, size, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	result, err := s.svc.ListCandidates(r.Context(), actor, filter, page, size)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := s.svc.GetCandidate(r.Context(), actor, id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req types.CreateCandidateRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	c, err := s.svc.CreateCandidate(r.Context(), actor, req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req types.UpdateCandidateRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	c, err := s.svc.UpdateCandidateFields(r.Context(), actor, id, req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteCandidate(r.Context(), actor, id); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var change types.StatusChange
	if !s.decode(w, r, &change, false) {
		return
	}
	c, err := s.svc.ChangeStatus(r.Context(), actor, id, change)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleCompleteStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req types.StageCompletion
	if !s.decode(w, r, &req, false) {
		return
	}
	res, err := s.svc.CompleteInterviewStage(r.Context(), actor, id, req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleListOrphans(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.FindOrphanCandidates(r.Context(), actor)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, list)
}

// handleReassign answers 200 when every item moved and 207 when any failed.
func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req types.ReassignRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	res, err := s.svc.ReassignCandidates(r.Context(), actor, req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	status := http.StatusOK
	if len(res.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	s.jsonResponse(w, status, ReassignResponse{Result: *res, Summary: res.Summary()})
}

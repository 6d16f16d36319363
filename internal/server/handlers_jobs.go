package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// NotifyClientRequest optionally narrows a notification to specific candidates.
type NotifyClientRequest struct {
	CandidateIDs []uuid.UUID `json:"candidate_ids,omitempty"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	jobs, err := s.svc.ListJobs(r.Context(), actor)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	job, err := s.svc.GetJob(r.Context(), actor, id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req types.CreateJobRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	job, err := s.svc.CreateJob(r.Context(), actor, req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req types.UpdateJobRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	job, err := s.svc.UpdateJob(r.Context(), actor, id, req)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleNotifyClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req NotifyClientRequest
	if !s.decode(w, r, &req, true) {
		return
	}
	n, err := s.svc.RequestClientNotification(r.Context(), actor, id, req.CandidateIDs)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, n)
}

// Package memstore is an in-memory tracker.Store used by tests and by
// "serve --store=memory" for local runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// Store keeps every record in maps guarded by mu. Candidate updates also hold
// a per-candidate lock for the whole read-modify-write.
type Store struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]types.User
	jobs       map[uuid.UUID]types.Job
	candidates map[uuid.UUID]*types.Candidate
	locks      map[uuid.UUID]*sync.Mutex

	// FailWrite, when set, is consulted before a candidate update is
	// persisted; a non-nil result fails that write.
	FailWrite func(id uuid.UUID) error
}

var _ tracker.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]types.User),
		jobs:       make(map[uuid.UUID]types.Job),
		candidates: make(map[uuid.UUID]*types.Candidate),
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, types.ErrNotFound)
}

func copyUser(u types.User) types.User {
	if u.Reporter != nil {
		r := *u.Reporter
		u.Reporter = &r
	}
	return u
}

func copyJob(j types.Job) types.Job {
	j.ClientContacts = append([]string(nil), j.ClientContacts...)
	j.Stages = append([]types.Stage(nil), j.Stages...)
	j.IntakeSchema = append([]byte(nil), j.IntakeSchema...)
	return j
}

// ListUsers returns every user.
func (s *Store) ListUsers(ctx context.Context) ([]types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	u = copyUser(u)
	return &u, nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(_ context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	s.users[u.ID] = copyUser(*u)
	return nil
}

// UpdateUser replaces an existing user.
func (s *Store) UpdateUser(_ context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return notFound("user", u.ID)
	}
	s.users[u.ID] = copyUser(*u)
	return nil
}

// DeleteUser removes a user. Candidates keep their createdBy reference.
func (s *Store) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(s.users, id)
	return nil
}

// ListJobs returns every job.
func (s *Store) ListJobs(ctx context.Context) ([]types.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, copyJob(j))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetJob returns a job by ID.
func (s *Store) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, notFound("job", id)
	}
	j = copyJob(j)
	return &j, nil
}

// CreateJob inserts a job.
func (s *Store) CreateJob(_ context.Context, j *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; ok {
		return fmt.Errorf("job %s already exists", j.ID)
	}
	s.jobs[j.ID] = copyJob(*j)
	return nil
}

// UpdateJob replaces an existing job.
func (s *Store) UpdateJob(_ context.Context, j *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return notFound("job", j.ID)
	}
	s.jobs[j.ID] = copyJob(*j)
	return nil
}

// ListCandidates returns candidates matching q, oldest first.
func (s *Store) ListCandidates(ctx context.Context, q tracker.CandidateQuery) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var owners map[uuid.UUID]bool
	if q.Owners != nil {
		owners = make(map[uuid.UUID]bool, len(q.Owners))
		for _, id := range q.Owners {
			owners[id] = true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if owners != nil && !owners[c.CreatedBy] {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.JobID != uuid.Nil && c.JobID != q.JobID {
			continue
		}
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// GetCandidate returns a candidate by ID.
func (s *Store) GetCandidate(_ context.Context, id uuid.UUID) (*types.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, notFound("candidate", id)
	}
	return c.Clone(), nil
}

// CreateCandidate inserts a candidate.
func (s *Store) CreateCandidate(_ context.Context, c *types.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[c.ID]; ok {
		return fmt.Errorf("candidate %s already exists", c.ID)
	}
	s.candidates[c.ID] = c.Clone()
	return nil
}

func (s *Store) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// UpdateCandidate applies fn to a copy of the candidate and stores the copy
// only when fn succeeds.
func (s *Store) UpdateCandidate(ctx context.Context, id uuid.UUID, fn tracker.MutateFunc) (*types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	cur, ok := s.candidates[id]
	var work *types.Candidate
	if ok {
		work = cur.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, notFound("candidate", id)
	}

	if err := fn(work); err != nil {
		return nil, err
	}
	if s.FailWrite != nil {
		if err := s.FailWrite(id); err != nil {
			return nil, fmt.Errorf("failed to write candidate %s: %w", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return nil, notFound("candidate", id)
	}
	s.candidates[id] = work
	return work.Clone(), nil
}

// DeleteCandidate removes a candidate.
func (s *Store) DeleteCandidate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return notFound("candidate", id)
	}
	delete(s.candidates, id)
	delete(s.locks, id)
	return nil
}

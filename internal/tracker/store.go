package tracker

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// CandidateQuery narrows a candidate listing at the storage layer.
// Zero values mean "no restriction".
type CandidateQuery struct {
	Owners []uuid.UUID // nil means any creator
	Status types.Status
	JobID  uuid.UUID
}

// MutateFunc edits a candidate inside a store's per-candidate atomic update.
// Returning an error aborts the update without writing anything, and the
// store hands that error back unchanged.
type MutateFunc func(c *types.Candidate) error

// Store is the persistence boundary of the tracker. Missing records are
// reported with an error wrapping types.ErrNotFound.
type Store interface {
	ListUsers(ctx context.Context) ([]types.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	CreateUser(ctx context.Context, u *types.User) error
	UpdateUser(ctx context.Context, u *types.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListJobs(ctx context.Context) ([]types.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	CreateJob(ctx context.Context, j *types.Job) error
	UpdateJob(ctx context.Context, j *types.Job) error

	ListCandidates(ctx context.Context, q CandidateQuery) ([]types.Candidate, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error)
	CreateCandidate(ctx context.Context, c *types.Candidate) error
	// UpdateCandidate runs fn against the current state of the candidate and
	// persists the result atomically. Concurrent updates of the same
	// candidate are serialized, so history appends are never lost.
	UpdateCandidate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*types.Candidate, error)
	DeleteCandidate(ctx context.Context, id uuid.UUID) error
}

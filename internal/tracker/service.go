// Package tracker contains the business logic of the recruitment tracker.
// It is transport-agnostic: used by the HTTP server and the CLI.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/directory"
	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/intake"
	"github.com/jonathan/recruit-tracker/internal/orphans"
	"github.com/jonathan/recruit-tracker/internal/types"
	"github.com/jonathan/recruit-tracker/internal/visibility"
)

// Paging limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	DefaultPageSize     int
	ReassignConcurrency int
	Now                 func() time.Time
}

// Service encapsulates all tracker business logic.
type Service struct {
	store  Store
	events events.Publisher
	intake *intake.Validator
	opts   Options
}

// New returns a configured Service. A nil publisher discards events.
func New(store Store, pub events.Publisher, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("tracker: store is required")
	}
	if pub == nil {
		pub = events.Nop{}
	}
	iv, err := intake.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.DefaultPageSize > MaxPageSize {
		opts.DefaultPageSize = MaxPageSize
	}
	if opts.ReassignConcurrency <= 0 {
		opts.ReassignConcurrency = orphans.DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, events: pub, intake: iv, opts: opts}, nil
}

// SystemActor is the identity used by operator tooling such as the CLI.
// It has administrative reach and is not part of the roster.
func SystemActor() types.User {
	return types.User{ID: uuid.Nil, Name: "system", Role: types.RoleAdmin, IsAdmin: true}
}

// ResolveActor loads the roster entry for an authenticated user ID.
func (s *Service) ResolveActor(ctx context.Context, id uuid.UUID) (types.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.User{}, &types.AuthorizationError{ActorID: id, Action: "use the tracker", Reason: "user is not in the roster"}
		}
		return types.User{}, &types.StoreError{Op: "resolve actor", Cause: err}
	}
	return *u, nil
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *Service) directory(ctx context.Context) (*directory.Directory, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, &types.StoreError{Op: "list users", Cause: err}
	}
	return directory.New(users), nil
}

func (s *Service) scope(ctx context.Context, actor types.User) (visibility.Scope, *directory.Directory, error) {
	dir, err := s.directory(ctx)
	if err != nil {
		return visibility.Scope{}, nil, err
	}
	return visibility.For(actor, dir), dir, nil
}

// storeErr classifies an error coming back from the store. Domain errors
// raised inside a MutateFunc pass through untouched.
func storeErr(op, kind string, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if types.IsDomainError(err) {
		return err
	}
	if errors.Is(err, types.ErrNotFound) {
		return types.NotFound(kind, id)
	}
	return &types.StoreError{Op: op, Cause: err}
}

// publish is best effort: the write that produced e has already landed.
func (s *Service) publish(ctx context.Context, e events.Event) {
	e.At = s.now()
	if err := s.events.Publish(ctx, e); err != nil {
		slog.Warn("publish event failed", "type", e.Type, "err", err)
	}
}

func requireAdmin(actor types.User, action string) error {
	if actor.Admin() {
		return nil
	}
	return &types.AuthorizationError{ActorID: actor.ID, Action: action, Reason: "admin only"}
}

func ptr[T any](v T) *T { return &v }

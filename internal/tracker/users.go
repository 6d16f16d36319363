package tracker

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// ListUsers returns the roster ordered by name. Every authenticated user may
// read it so owners and reporters can be displayed.
func (s *Service) ListUsers(ctx context.Context, _ types.User) ([]types.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, &types.StoreError{Op: "list users", Cause: err}
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// GetUser returns one roster entry.
func (s *Service) GetUser(ctx context.Context, _ types.User, id uuid.UUID) (*types.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr("get user", "user", id, err)
	}
	return u, nil
}

// CreateUser adds a roster member. Admin only.
func (s *Service) CreateUser(ctx context.Context, actor types.User, req types.CreateUserRequest) (*types.User, error) {
	const op = "create user"
	if err := requireAdmin(actor, op); err != nil {
		return nil, err
	}
	if err := types.Validate(op, req); err != nil {
		return nil, err
	}
	u := &types.User{ID: uuid.New()}
	if err := s.checkReporter(ctx, op, u.ID, req.Reporter); err != nil {
		return nil, err
	}
	applyUserRequest(u, req)
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, storeErr(op, "user", u.ID, err)
	}
	return u, nil
}

// UpdateUser replaces a user's editable attributes. Admin only.
func (s *Service) UpdateUser(ctx context.Context, actor types.User, id uuid.UUID, req types.UpdateUserRequest) (*types.User, error) {
	const op = "update user"
	if err := requireAdmin(actor, op); err != nil {
		return nil, err
	}
	if err := types.Validate(op, req); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(op, "user", id, err)
	}
	if err := s.checkReporter(ctx, op, id, req.Reporter); err != nil {
		return nil, err
	}
	applyUserRequest(u, req)
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, storeErr(op, "user", id, err)
	}
	return u, nil
}

// DeleteUser removes a roster member. Candidates the user created are left
// in place and surface as orphans until reassigned.
func (s *Service) DeleteUser(ctx context.Context, actor types.User, id uuid.UUID) error {
	const op = "delete user"
	if err := requireAdmin(actor, op); err != nil {
		return err
	}
	if id == actor.ID {
		return types.NewValidationError(op, "id", "users cannot delete themselves")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return storeErr(op, "user", id, err)
	}
	return nil
}

// Reportees returns the users id can see through the hierarchy: two levels
// for managers, direct reportees otherwise. Admins may ask about anyone,
// other users only about themselves.
func (s *Service) Reportees(ctx context.Context, actor types.User, id uuid.UUID) ([]types.User, error) {
	if !actor.Admin() && actor.ID != id {
		return nil, &types.AuthorizationError{ActorID: actor.ID, Action: "list reportees of " + id.String(), Reason: "only admins may inspect other users' teams"}
	}
	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	if !dir.Exists(id) {
		return nil, types.NotFound("user", id)
	}
	set := dir.ReporteesOf(id)
	out := make([]types.User, 0, len(set))
	for rid := range set {
		if u, ok := dir.User(rid); ok {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// checkReporter requires the reporter to resolve and not be the user itself.
// Longer cycles are tolerated; the directory guards its traversals.
func (s *Service) checkReporter(ctx context.Context, op string, self uuid.UUID, reporter *uuid.UUID) error {
	if reporter == nil {
		return nil
	}
	if *reporter == self {
		return types.NewValidationError(op, "reporter", "a user cannot report to themselves")
	}
	if _, err := s.store.GetUser(ctx, *reporter); err != nil {
		return storeErr(op, "user", *reporter, err)
	}
	return nil
}

func applyUserRequest(u *types.User, req types.CreateUserRequest) {
	u.Name = req.Name
	u.Email = req.Email
	u.Role = req.Role
	u.IsAdmin = req.IsAdmin
	u.Reporter = req.Reporter
}

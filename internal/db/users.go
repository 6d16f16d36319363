package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruit-tracker/internal/types"
)

const userColumns = `id, name, COALESCE(email, ''), role, is_admin, reporter, created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsAdmin, &u.Reporter, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = types.Role(role)
	return &u, nil
}

// ListUsers returns every user ordered by creation time.
func (db *DB) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, notFound("user", err))
	}
	return u, nil
}

// CreateUser inserts a user.
func (db *DB) CreateUser(ctx context.Context, u *types.User) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role, is_admin, reporter, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, string(u.Role), u.IsAdmin, u.Reporter, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser replaces a user's attributes.
func (db *DB) UpdateUser(ctx context.Context, u *types.User) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE users SET name = $2, email = NULLIF($3, ''), role = $4, is_admin = $5, reporter = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.Name, u.Email, string(u.Role), u.IsAdmin, u.Reporter, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, types.ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user. Candidates and reportees keep their references.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// Package seed loads a YAML roster and job list into a tracker store.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// File is the on-disk seed document.
type File struct {
	Users []User `yaml:"users"`
	Jobs  []Job  `yaml:"jobs"`
}

// User is one roster entry. Reporter holds the id of another user, which may
// live in the file or already in the store.
type User struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	IsAdmin  bool   `yaml:"is_admin"`
	Reporter string `yaml:"reporter"`
}

// Job is one job entry.
type Job struct {
	ID             string        `yaml:"id"`
	Title          string        `yaml:"title"`
	Client         string        `yaml:"client"`
	ClientContacts []string      `yaml:"client_contacts"`
	Stages         []types.Stage `yaml:"stages"`
	Status         string        `yaml:"status"`
	CreatedBy      string        `yaml:"created_by"`
}

// Summary counts what Apply wrote.
type Summary struct {
	UsersCreated int
	UsersUpdated int
	JobsCreated  int
	JobsUpdated  int
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("seed: payload is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return &f, nil
}

// LoadFile reads and decodes a seed file.
func LoadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return f, nil
}

// Apply upserts the file's users, then its jobs, into store. Seeding writes
// straight to storage, so it is an operator action with no actor checks.
// Reporter and creator references must resolve against the file or the store.
func Apply(ctx context.Context, store tracker.Store, f *File, now time.Time) (Summary, error) {
	var sum Summary

	users := make([]types.User, 0, len(f.Users))
	known := make(map[uuid.UUID]bool, len(f.Users))
	for i, u := range f.Users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			return sum, fmt.Errorf("seed: users[%d].id: %w", i, err)
		}
		role, err := types.ParseRole(u.Role)
		if err != nil {
			return sum, fmt.Errorf("seed: users[%d].role: %w", i, err)
		}
		if u.Name == "" {
			return sum, fmt.Errorf("seed: users[%d].name is required", i)
		}
		out := types.User{ID: id, Name: u.Name, Email: u.Email, Role: role, IsAdmin: u.IsAdmin, CreatedAt: now, UpdatedAt: now}
		if u.Reporter != "" {
			rid, err := uuid.Parse(u.Reporter)
			if err != nil {
				return sum, fmt.Errorf("seed: users[%d].reporter: %w", i, err)
			}
			if rid == id {
				return sum, fmt.Errorf("seed: users[%d] cannot report to itself", i)
			}
			out.Reporter = &rid
		}
		known[id] = true
		users = append(users, out)
	}

	resolve := func(id uuid.UUID) error {
		if known[id] {
			return nil
		}
		_, err := store.GetUser(ctx, id)
		return err
	}

	for i := range users {
		u := users[i]
		if u.Reporter != nil {
			if err := resolve(*u.Reporter); err != nil {
				return sum, fmt.Errorf("seed: reporter of %s: %w", u.Name, err)
			}
		}
		created, err := upsertUser(ctx, store, &u)
		if err != nil {
			return sum, err
		}
		if created {
			sum.UsersCreated++
		} else {
			sum.UsersUpdated++
		}
	}

	for i, j := range f.Jobs {
		job, err := toJob(i, j, now)
		if err != nil {
			return sum, err
		}
		if err := resolve(job.CreatedBy); err != nil {
			return sum, fmt.Errorf("seed: creator of job %q: %w", job.Title, err)
		}
		created, err := upsertJob(ctx, store, job)
		if err != nil {
			return sum, err
		}
		if created {
			sum.JobsCreated++
		} else {
			sum.JobsUpdated++
		}
	}
	return sum, nil
}

func toJob(i int, j Job, now time.Time) (*types.Job, error) {
	id, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("seed: jobs[%d].id: %w", i, err)
	}
	creator, err := uuid.Parse(j.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("seed: jobs[%d].created_by: %w", i, err)
	}
	status := types.JobOpen
	if j.Status != "" {
		if status, err = types.ParseJobStatus(j.Status); err != nil {
			return nil, fmt.Errorf("seed: jobs[%d].status: %w", i, err)
		}
	}
	if j.Title == "" || j.Client == "" {
		return nil, fmt.Errorf("seed: jobs[%d] needs a title and a client", i)
	}
	if len(j.Stages) == 0 {
		return nil, fmt.Errorf("seed: jobs[%d] has no stages", i)
	}
	seen := make(map[string]bool, len(j.Stages))
	for k, s := range j.Stages {
		if s.Name == "" || seen[s.Name] {
			return nil, fmt.Errorf("seed: jobs[%d].stages[%d].name is empty or duplicated", i, k)
		}
		seen[s.Name] = true
	}
	return &types.Job{
		ID: id, Title: j.Title, Client: j.Client, ClientContacts: j.ClientContacts,
		Stages: j.Stages, Status: status, CreatedBy: creator, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func upsertUser(ctx context.Context, store tracker.Store, u *types.User) (bool, error) {
	existing, err := store.GetUser(ctx, u.ID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		if err := store.CreateUser(ctx, u); err != nil {
			return false, fmt.Errorf("seed: create user %s: %w", u.Name, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("seed: load user %s: %w", u.Name, err)
	}
	u.CreatedAt = existing.CreatedAt
	if err := store.UpdateUser(ctx, u); err != nil {
		return false, fmt.Errorf("seed: update user %s: %w", u.Name, err)
	}
	return false, nil
}

func upsertJob(ctx context.Context, store tracker.Store, j *types.Job) (bool, error) {
	existing, err := store.GetJob(ctx, j.ID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		if err := store.CreateJob(ctx, j); err != nil {
			return false, fmt.Errorf("seed: create job %s: %w", j.Title, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("seed: load job %s: %w", j.Title, err)
	}
	j.CreatedAt = existing.CreatedAt
	if err := store.UpdateJob(ctx, j); err != nil {
		return false, fmt.Errorf("seed: update job %s: %w", j.Title, err)
	}
	return false, nil
}

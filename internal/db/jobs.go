package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruit-tracker/internal/types"
)

const jobColumns = `id, title, client, client_contacts, stages, status, intake_schema, created_by, created_at, updated_at`

func scanJob(row pgx.Row) (*types.Job, error) {
	var (
		j      types.Job
		stages []byte
		schema []byte
		status string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Client, &j.ClientContacts, &stages, &status, &schema,
		&j.CreatedBy, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stages, &j.Stages); err != nil {
		return nil, fmt.Errorf("failed to decode stages of job %s: %w", j.ID, err)
	}
	j.Status = types.JobStatus(status)
	if len(schema) > 0 {
		j.IntakeSchema = json.RawMessage(schema)
	}
	return &j, nil
}

// ListJobs returns every job ordered by creation time.
func (db *DB) ListJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]types.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// GetJob retrieves a job by ID.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, notFound("job", err))
	}
	return j, nil
}

// CreateJob inserts a job.
func (db *DB) CreateJob(ctx context.Context, j *types.Job) error {
	stages, err := json.Marshal(j.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, client, client_contacts, stages, status, intake_schema, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		j.ID, j.Title, j.Client, contacts(j.ClientContacts), stages, string(j.Status), nullJSON(j.IntakeSchema),
		j.CreatedBy, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJob replaces a job's editable attributes.
func (db *DB) UpdateJob(ctx context.Context, j *types.Job) error {
	stages, err := json.Marshal(j.Stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE jobs SET title = $2, client = $3, client_contacts = $4, stages = $5, status = $6,
		                 intake_schema = $7, updated_at = $8
		 WHERE id = $1`,
		j.ID, j.Title, j.Client, contacts(j.ClientContacts), stages, string(j.Status), nullJSON(j.IntakeSchema), j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", j.ID, types.ErrNotFound)
	}
	return nil
}

// contacts keeps the NOT NULL text[] column non-null.
func contacts(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

const candidateColumns = `id, job_id, created_by, fields, notes, resume_url, offer_letter_url,
	status, interview_stage, selection_date, expected_joining_date, joining_date, offered_ctc,
	rejection_reason, rejected_by, dropped_by, status_history, interview_stage_history,
	created_at, updated_at`

func scanCandidate(row pgx.Row) (*types.Candidate, error) {
	var (
		c                                  types.Candidate
		fields, statusHist, stageHist      []byte
		status                             string
		selection, expectedJoining, joined *time.Time
	)
	err := row.Scan(
		&c.ID, &c.JobID, &c.CreatedBy, &fields, &c.Notes, &c.ResumeURL, &c.OfferLetterURL,
		&status, &c.InterviewStage, &selection, &expectedJoining, &joined, &c.OfferedCTC,
		&c.RejectionReason, &c.RejectedBy, &c.DroppedBy, &statusHist, &stageHist,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = types.Status(status)
	c.SelectionDate = dateFrom(selection)
	c.ExpectedJoiningDate = dateFrom(expectedJoining)
	c.JoiningDate = dateFrom(joined)

	if err := json.Unmarshal(fields, &c.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields of candidate %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(statusHist, &c.StatusHistory); err != nil {
		return nil, fmt.Errorf("failed to decode status history of candidate %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(stageHist, &c.InterviewStageHistory); err != nil {
		return nil, fmt.Errorf("failed to decode stage history of candidate %s: %w", c.ID, err)
	}
	if c.StatusHistory == nil {
		c.StatusHistory = []types.StatusHistoryEntry{}
	}
	if c.InterviewStageHistory == nil {
		c.InterviewStageHistory = []types.StageHistoryEntry{}
	}
	return &c, nil
}

// ListCandidates returns candidates matching q, oldest first.
func (db *DB) ListCandidates(ctx context.Context, q tracker.CandidateQuery) ([]types.Candidate, error) {
	var (
		where []string
		args  []any
	)
	if q.Owners != nil {
		owners := make([]string, len(q.Owners))
		for i, id := range q.Owners {
			owners[i] = id.String()
		}
		args = append(args, owners)
		where = append(where, fmt.Sprintf("created_by = ANY($%d::uuid[])", len(args)))
	}
	if q.Status != "" {
		args = append(args, string(q.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.JobID != uuid.Nil {
		args = append(args, q.JobID)
		where = append(where, fmt.Sprintf("job_id = $%d", len(args)))
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]types.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetCandidate retrieves a candidate by ID.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate %s: %w", id, notFound("candidate", err))
	}
	return c, nil
}

// CreateCandidate inserts a candidate.
func (db *DB) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	fields, statusHist, stageHist, err := candidateDocs(c)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates (`+candidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		c.ID, c.JobID, c.CreatedBy, fields, c.Notes, c.ResumeURL, c.OfferLetterURL,
		string(c.Status), c.InterviewStage, dateValue(c.SelectionDate), dateValue(c.ExpectedJoiningDate),
		dateValue(c.JoiningDate), c.OfferedCTC, c.RejectionReason, c.RejectedBy, c.DroppedBy,
		statusHist, stageHist, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// UpdateCandidate locks the candidate row, applies fn and writes the result
// in one transaction. History entries added by fn are appended in SQL so the
// stored arrays only ever grow.
func (db *DB) UpdateCandidate(ctx context.Context, id uuid.UUID, fn tracker.MutateFunc) (*types.Candidate, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	cur, err := scanCandidate(tx.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock candidate %s: %w", id, notFound("candidate", err))
	}

	work := cur.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}

	fields, err := json.Marshal(work.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	newStatus, err := json.Marshal(appended(cur.StatusHistory, work.StatusHistory))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status history: %w", err)
	}
	newStages, err := json.Marshal(appended(cur.InterviewStageHistory, work.InterviewStageHistory))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stage history: %w", err)
	}

	updated, err := scanCandidate(tx.QueryRow(ctx,
		`UPDATE candidates SET
			created_by = $2, fields = $3, notes = $4, resume_url = $5, offer_letter_url = $6,
			status = $7, interview_stage = $8, selection_date = $9, expected_joining_date = $10,
			joining_date = $11, offered_ctc = $12, rejection_reason = $13, rejected_by = $14,
			dropped_by = $15,
			status_history = status_history || $16::jsonb,
			interview_stage_history = interview_stage_history || $17::jsonb,
			updated_at = $18
		 WHERE id = $1
		 RETURNING `+candidateColumns,
		id, work.CreatedBy, fields, work.Notes, work.ResumeURL, work.OfferLetterURL,
		string(work.Status), work.InterviewStage, dateValue(work.SelectionDate),
		dateValue(work.ExpectedJoiningDate), dateValue(work.JoiningDate), work.OfferedCTC,
		work.RejectionReason, work.RejectedBy, work.DroppedBy, newStatus, newStages, work.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update candidate %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// DeleteCandidate removes a candidate.
func (db *DB) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", id, types.ErrNotFound)
	}
	return nil
}

func candidateDocs(c *types.Candidate) (fields, statusHist, stageHist []byte, err error) {
	f := c.Fields
	if f == nil {
		f = map[string]any{}
	}
	if fields, err = json.Marshal(f); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	if statusHist, err = json.Marshal(appended(nil, c.StatusHistory)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal status history: %w", err)
	}
	if stageHist, err = json.Marshal(appended(nil, c.InterviewStageHistory)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal stage history: %w", err)
	}
	return fields, statusHist, stageHist, nil
}

// appended returns the entries of next beyond the length of prev. History is
// append-only, so anything else is a no-op.
func appended[T any](prev, next []T) []T {
	if len(next) <= len(prev) {
		return []T{}
	}
	return next[len(prev):]
}

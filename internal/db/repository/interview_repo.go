package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devdm/interview-platform/internal/interview"
)

// Querier is the subset of pgxpool.Pool the repositories need; it keeps the
// SQL layer swappable in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InterviewRepository provides the durable, authoritative interview records
// behind the session cache.
type InterviewRepository struct {
	db Querier
}

func NewInterviewRepository(db Querier) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// Create inserts a fresh interview in the ready state.
func (r *InterviewRepository) Create(ctx context.Context, candidate interview.Candidate) (interview.Record, error) {
	const q = `
		INSERT INTO interviews (candidate_id, candidate_name, candidate_email, candidate_phone, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, candidate_id, candidate_name, candidate_email, candidate_phone, status, score, summary, created_at, updated_at`

	record, err := scanRecord(r.db.QueryRow(ctx, q,
		candidate.ID, candidate.Name, candidate.Email, candidate.PhoneNo, interview.StatusReady,
	))
	if err != nil {
		return interview.Record{}, fmt.Errorf("create interview: %w", err)
	}
	return record, nil
}

// GetByID fetches one interview, or interview.ErrRecordNotFound.
func (r *InterviewRepository) GetByID(ctx context.Context, id int64) (interview.Record, error) {
	const q = `
		SELECT id, candidate_id, candidate_name, candidate_email, candidate_phone, status, score, summary, created_at, updated_at
		FROM interviews WHERE id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Record{}, interview.ErrRecordNotFound
	}
	if err != nil {
		return interview.Record{}, fmt.Errorf("get interview: %w", err)
	}
	return record, nil
}

// UpdateStatus moves the interview through its lifecycle.
func (r *InterviewRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE interviews SET status = $2, updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, q, id, status); err != nil {
		return fmt.Errorf("update interview status: %w", err)
	}
	return nil
}

// SetResult records the evaluator's verdict on a completed interview.
func (r *InterviewRepository) SetResult(ctx context.Context, id int64, score int, summary string) error {
	const q = `UPDATE interviews SET score = $2, summary = $3, updated_at = now() WHERE id = $1`
	if _, err := r.db.Exec(ctx, q, id, score, summary); err != nil {
		return fmt.Errorf("set interview result: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (interview.Record, error) {
	var record interview.Record
	err := row.Scan(
		&record.ID,
		&record.Candidate.ID, &record.Candidate.Name, &record.Candidate.Email, &record.Candidate.PhoneNo,
		&record.Status, &record.Score, &record.Summary, &record.CreatedAt, &record.UpdatedAt,
	)
	return record, err
}

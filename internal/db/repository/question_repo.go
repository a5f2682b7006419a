package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/devdm/interview-platform/internal/interview"
)

// QuestionRepository is the durable mirror of the per-interview question
// list. The session cache remains the working copy; these rows let a lost
// session be rebuilt and answered history be reported after completion.
type QuestionRepository struct {
	db Querier
}

func NewQuestionRepository(db Querier) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Create inserts an unanswered question and returns it with its assigned id.
func (r *QuestionRepository) Create(ctx context.Context, interviewID int64, text, difficulty, qType string, options []string) (interview.Question, error) {
	opts, err := encodeOptions(options)
	if err != nil {
		return interview.Question{}, err
	}

	const q = `
		INSERT INTO questions (interview_id, text, difficulty, type, options)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, text, difficulty, type, options, answer, score, is_answered`

	return r.scanQuestion(r.db.QueryRow(ctx, q, interviewID, text, difficulty, qType, opts))
}

// UpdateAnswer records the candidate's answer and its score.
func (r *QuestionRepository) UpdateAnswer(ctx context.Context, id int64, answer string, score int) error {
	const q = `UPDATE questions SET answer = $2, score = $3, is_answered = TRUE WHERE id = $1`
	if _, err := r.db.Exec(ctx, q, id, answer, score); err != nil {
		return fmt.Errorf("update question answer: %w", err)
	}
	return nil
}

// CountByInterview returns how many questions the interview holds.
func (r *QuestionRepository) CountByInterview(ctx context.Context, interviewID int64) (int, error) {
	const q = `SELECT count(*) FROM questions WHERE interview_id = $1`
	var n int
	if err := r.db.QueryRow(ctx, q, interviewID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// FindUnanswered returns the oldest unanswered question outside the excluded
// ids, or interview.ErrRecordNotFound when none remains.
func (r *QuestionRepository) FindUnanswered(ctx context.Context, interviewID int64, exclude []int64) (interview.Question, error) {
	const q = `
		SELECT id, text, difficulty, type, options, answer, score, is_answered
		FROM questions WHERE interview_id = $1 AND NOT is_answered AND id <> ALL($2)
		ORDER BY id ASC LIMIT 1`

	if exclude == nil {
		exclude = []int64{}
	}
	question, err := r.scanQuestion(r.db.QueryRow(ctx, q, interviewID, exclude))
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Question{}, interview.ErrRecordNotFound
	}
	return question, err
}

// ListAnswered returns answered questions in ask order.
func (r *QuestionRepository) ListAnswered(ctx context.Context, interviewID int64) ([]interview.Question, error) {
	const q = `
		SELECT id, text, difficulty, type, options, answer, score, is_answered
		FROM questions WHERE interview_id = $1 AND is_answered
		ORDER BY id ASC`
	return r.list(ctx, q, interviewID)
}

// ListByInterview returns every question of the interview in ask order.
func (r *QuestionRepository) ListByInterview(ctx context.Context, interviewID int64) ([]interview.Question, error) {
	const q = `
		SELECT id, text, difficulty, type, options, answer, score, is_answered
		FROM questions WHERE interview_id = $1
		ORDER BY id ASC`
	return r.list(ctx, q, interviewID)
}

func (r *QuestionRepository) list(ctx context.Context, query string, interviewID int64) ([]interview.Question, error) {
	rows, err := r.db.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []interview.Question
	for rows.Next() {
		question, err := r.scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

func (r *QuestionRepository) scanQuestion(row pgx.Row) (interview.Question, error) {
	var (
		question interview.Question
		opts     []byte
	)
	err := row.Scan(
		&question.ID, &question.Text, &question.Difficulty, &question.Type,
		&opts, &question.Answer, &question.Score, &question.IsAnswered,
	)
	if err != nil {
		return interview.Question{}, err
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &question.Options); err != nil {
			return interview.Question{}, fmt.Errorf("decode question options: %w", err)
		}
	}
	return question, nil
}

func encodeOptions(options []string) ([]byte, error) {
	if len(options) == 0 {
		return []byte("[]"), nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode question options: %w", err)
	}
	return raw, nil
}

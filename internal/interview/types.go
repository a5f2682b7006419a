package interview

import (
	"errors"
	"time"
)

// Interview lifecycle states.
const (
	StatusReady      = "ready"
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
)

// Difficulty constants.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question type constants. MCQ questions carry options; opinion questions are
// open-ended.
const (
	TypeMCQ     = "mcq"
	TypeOpinion = "opinion"
)

// MaxQuestions is the hard cap on questions per interview.
const MaxQuestions = 6

// difficultyTime maps difficulty to the per-question time budget in seconds.
var difficultyTime = map[string]int{
	DifficultyEasy:   20,
	DifficultyMedium: 60,
	DifficultyHard:   120,
}

// defaultTimeLeft is the fallback budget for an unknown difficulty.
const defaultTimeLeft = 60

var (
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrSessionFull      = errors.New("interview already holds the maximum number of questions")
	ErrSessionCompleted = errors.New("interview already completed")
	ErrLockHeld         = errors.New("interview session lock already held")
	ErrRecordNotFound   = errors.New("interview record not found")
	ErrGenerationFailed = errors.New("question generation failed")
	ErrEvaluationFailed = errors.New("interview evaluation failed")
)

// Question is one entry in an interview session. Created when generated or
// loaded from the database; mutated only through the session engine.
type Question struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	Difficulty string   `json:"difficulty"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	TimeLeft   int      `json:"timeLeft"`
	Answer     string   `json:"answer"`
	Score      int      `json:"score"`
	IsAnswered bool     `json:"isAnswered"`
}

// Candidate identity, captured once at session creation.
type Candidate struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	PhoneNo string `json:"phoneNo"`
}

// ReportQuestion is a read-only projection of a question for reports.
type ReportQuestion struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

// Report summarizes a session without exposing live references.
type Report struct {
	Candidate  Candidate        `json:"candidate"`
	Status     string           `json:"status"`
	TotalScore int              `json:"totalScore"`
	Questions  []ReportQuestion `json:"questions"`
}

// Record is the durable row behind a session: candidate identity, lifecycle
// status, and the final verdict once evaluated.
type Record struct {
	ID        int64
	Candidate Candidate
	Status    string
	Score     int
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package question

import "context"

// Generated is one freshly generated interview question before it has a
// database identity.
type Generated struct {
	Text       string   `json:"text"`
	Difficulty string   `json:"difficulty"`
	Type       string   `json:"type"`
	Options    []string `json:"options"`
}

// Asked is one already-asked question, handed to the generator so it can
// avoid repetition.
type Asked struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

// TranscriptEntry is one question/answer pair handed to the evaluator.
type TranscriptEntry struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

// Evaluation is the holistic verdict on a finished interview.
type Evaluation struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

// Generator produces one new question given the questions already asked, so
// the model can avoid repetition. Calls may take seconds and fail
// transiently; callers retry by re-issuing the same client action.
type Generator interface {
	Generate(ctx context.Context, history []Asked) (*Generated, error)
}

// Evaluator scores a completed transcript.
type Evaluator interface {
	Evaluate(ctx context.Context, transcript []TranscriptEntry) (*Evaluation, error)
}

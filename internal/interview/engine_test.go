package interview

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidate() Candidate {
	return Candidate{ID: 7, Name: "Ada", Email: "ada@example.com", PhoneNo: "555-0100"}
}

func testQuestion(id int64, difficulty string) Question {
	return Question{
		ID:         id,
		Text:       fmt.Sprintf("question %d", id),
		Difficulty: difficulty,
		Type:       TypeOpinion,
	}
}

func TestNewSessionFillsTimeBudgets(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{
		testQuestion(1, DifficultyEasy),
		testQuestion(2, DifficultyMedium),
		testQuestion(3, DifficultyHard),
		testQuestion(4, "impossible"),
	})

	assert.Equal(t, StatusReady, sess.Status)
	assert.Equal(t, 20, sess.Questions[0].TimeLeft)
	assert.Equal(t, 60, sess.Questions[1].TimeLeft)
	assert.Equal(t, 120, sess.Questions[2].TimeLeft)
	assert.Equal(t, 60, sess.Questions[3].TimeLeft, "unknown difficulty falls back to the default budget")
}

func TestNewSessionKeepsPersistedTimeForAnswered(t *testing.T) {
	answered := testQuestion(1, DifficultyHard)
	answered.IsAnswered = true

	sess := NewSession(testCandidate(), []Question{answered})
	assert.Equal(t, 0, sess.Questions[0].TimeLeft)
}

func TestCurrentQuestionStartsInterview(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})

	q := sess.CurrentQuestion()
	require.NotNil(t, q)
	assert.Equal(t, int64(1), q.ID)
	assert.Equal(t, StatusInProgress, sess.Status)
}

func TestCurrentQuestionVisibleWhilePaused(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.CurrentQuestion()
	sess.Pause()

	q := sess.CurrentQuestion()
	require.NotNil(t, q)
	assert.Equal(t, StatusPaused, sess.Status)
}

func TestCurrentQuestionPastEndCompletes(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.CurrentQuestion()
	sess.CurrentIndex = 1

	assert.Nil(t, sess.CurrentQuestion())
	assert.Equal(t, StatusCompleted, sess.Status)
	assert.Nil(t, sess.CurrentQuestion(), "completed stays terminal")
}

func TestAnswerRecordsWithoutAdvancing(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{
		testQuestion(1, DifficultyEasy),
		testQuestion(2, DifficultyEasy),
	})
	sess.CurrentQuestion()

	ok := sess.Answer("my answer", 0)
	require.True(t, ok)

	q := &sess.Questions[0]
	assert.True(t, q.IsAnswered)
	assert.Equal(t, "my answer", q.Answer)
	assert.Equal(t, 0, q.TimeLeft)
	assert.Equal(t, 0, sess.CurrentIndex, "answering must not move the cursor")
	assert.Equal(t, 1, sess.AnsweredCount())
}

func TestAnswerRejectedWhenCompleted(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.Submit()

	assert.False(t, sess.Answer("late", 0))
}

func TestAddQuestionAdvancesCursor(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.CurrentQuestion()
	sess.Answer("done", 0)

	installed, err := sess.AddQuestion(testQuestion(2, DifficultyHard))
	require.NoError(t, err)
	assert.Equal(t, int64(2), installed.ID)
	assert.Equal(t, 120, installed.TimeLeft)
	assert.Equal(t, 1, sess.CurrentIndex)

	q := sess.CurrentQuestion()
	require.NotNil(t, q)
	assert.Equal(t, int64(2), q.ID)
}

func TestAddQuestionDuplicateIsIdempotent(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})

	installed, err := sess.AddQuestion(testQuestion(1, DifficultyEasy))
	require.NoError(t, err)
	assert.Equal(t, int64(1), installed.ID)
	assert.Len(t, sess.Questions, 1)
}

func TestAddQuestionEnforcesCap(t *testing.T) {
	questions := make([]Question, 0, MaxQuestions)
	for i := 1; i <= MaxQuestions; i++ {
		questions = append(questions, testQuestion(int64(i), DifficultyEasy))
	}
	sess := NewSession(testCandidate(), questions)

	_, err := sess.AddQuestion(testQuestion(99, DifficultyEasy))
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Len(t, sess.Questions, MaxQuestions)
}

func TestAddQuestionRejectedWhenCompleted(t *testing.T) {
	sess := NewSession(testCandidate(), nil)
	sess.Submit()

	_, err := sess.AddQuestion(testQuestion(1, DifficultyEasy))
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestPauseResumeTransitions(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})

	sess.Pause()
	assert.Equal(t, StatusReady, sess.Status, "pause before start is a no-op")

	sess.CurrentQuestion()
	sess.Pause()
	assert.Equal(t, StatusPaused, sess.Status)

	sess.Resume()
	assert.Equal(t, StatusInProgress, sess.Status)

	sess.Submit()
	sess.Resume()
	assert.Equal(t, StatusCompleted, sess.Status, "completed is terminal")
}

func TestDecrementTimerClampsAtZero(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.CurrentQuestion()

	for i := 19; i >= 0; i-- {
		assert.Equal(t, i, sess.DecrementTimer())
	}
	assert.Equal(t, 0, sess.DecrementTimer(), "never goes negative")
}

func TestDecrementTimerOnlyRunsInProgress(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})

	assert.Equal(t, 0, sess.DecrementTimer(), "ready session does not count down")
	assert.Equal(t, 20, sess.Questions[0].TimeLeft)

	sess.CurrentQuestion()
	sess.Pause()
	assert.Equal(t, 0, sess.DecrementTimer())
	assert.Equal(t, 20, sess.Questions[0].TimeLeft, "paused session keeps its remaining time")
}

func TestReportIsDefensive(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.CurrentQuestion()
	sess.Answer("answer one", 0)
	sess.Questions[0].Score = 40

	report := sess.Report()
	assert.Equal(t, 40, report.TotalScore)
	require.Len(t, report.Questions, 1)

	report.Questions[0].Answer = "tampered"
	assert.Equal(t, "answer one", sess.Questions[0].Answer)
}

func TestTranscriptOnlyAnswered(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{
		testQuestion(1, DifficultyEasy),
		testQuestion(2, DifficultyEasy),
	})
	sess.CurrentQuestion()
	sess.Answer("first", 0)

	transcript := sess.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, int64(1), transcript[0].ID)
	assert.Equal(t, "first", transcript[0].Answer)
}

func TestSessionSurvivesJSONRoundTrip(t *testing.T) {
	sess := NewSession(testCandidate(), []Question{
		testQuestion(1, DifficultyEasy),
		testQuestion(2, DifficultyHard),
	})
	sess.CurrentQuestion()
	sess.Answer("the answer", 0)
	sess.Pause()

	raw, err := json.Marshal(sess)
	require.NoError(t, err)

	var restored Session
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.Equal(t, sess.Status, restored.Status)
	assert.Equal(t, sess.CurrentIndex, restored.CurrentIndex)
	assert.Equal(t, sess.Candidate, restored.Candidate)
	require.Len(t, restored.Questions, 2)
	assert.True(t, restored.Questions[0].IsAnswered)
	assert.Equal(t, "the answer", restored.Questions[0].Answer)
	assert.Equal(t, 120, restored.Questions[1].TimeLeft)
}

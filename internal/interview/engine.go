package interview

import "github.com/devdm/interview-platform/internal/question"

// Session is the live aggregate for one interview: its ordered questions, the
// cursor at the active question, the candidate, and the lifecycle status. It
// is the unit that round-trips through the session cache, so every field is
// JSON-serializable and every mutation goes through a method here.
//
// currentIndex invariant: 0 <= currentIndex <= len(questions). Once the status
// is completed nothing mutates further.
type Session struct {
	Questions    []Question `json:"questions"`
	Candidate    Candidate  `json:"candidate"`
	Status       string     `json:"status"`
	CurrentIndex int        `json:"currentIndex"`
}

// NewSession builds a session in the ready state. Questions loaded from the
// database get their time budget filled in from the difficulty table unless
// one was persisted.
func NewSession(candidate Candidate, questions []Question) *Session {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	for i := range qs {
		if qs[i].TimeLeft == 0 && !qs[i].IsAnswered {
			qs[i].TimeLeft = timeForDifficulty(qs[i].Difficulty)
		}
	}
	return &Session{
		Questions:    qs,
		Candidate:    candidate,
		Status:       StatusReady,
		CurrentIndex: 0,
	}
}

// CurrentQuestion returns the question at the cursor, transitioning
// ready -> in_progress on first access. Returns nil once completed, and
// force-completes the session if the cursor ran past the end.
func (s *Session) CurrentQuestion() *Question {
	if s.Status == StatusCompleted {
		return nil
	}
	if s.Status == StatusReady {
		s.Status = StatusInProgress
	}
	if s.Status != StatusInProgress && s.Status != StatusPaused {
		return nil
	}
	if s.CurrentIndex >= len(s.Questions) {
		s.Status = StatusCompleted
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// Answer records the answer on the current question and zeroes its remaining
// time. It does not advance the cursor or complete the session; that policy
// belongs to the caller, which knows the question count.
func (s *Session) Answer(answer string, score int) bool {
	if s.Status == StatusCompleted {
		return false
	}
	if s.CurrentIndex >= len(s.Questions) {
		return false
	}
	q := &s.Questions[s.CurrentIndex]
	q.Answer = answer
	q.Score = score
	q.TimeLeft = 0
	q.IsAnswered = true
	return true
}

// AddQuestion appends a question and moves the cursor to it. Inserting an id
// that is already present is an idempotent no-op returning the stored
// question, because a retried generation call may deliver the same question
// twice. Returns ErrSessionFull at the cap.
func (s *Session) AddQuestion(q Question) (*Question, error) {
	if s.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}
	for i := range s.Questions {
		if s.Questions[i].ID == q.ID {
			return &s.Questions[i], nil
		}
	}
	if len(s.Questions) >= MaxQuestions {
		return nil, ErrSessionFull
	}
	if q.TimeLeft == 0 {
		q.TimeLeft = timeForDifficulty(q.Difficulty)
	}
	s.Questions = append(s.Questions, q)
	s.CurrentIndex = len(s.Questions) - 1
	return &s.Questions[s.CurrentIndex], nil
}

// Pause suspends an in-progress interview. No-op in any other state.
func (s *Session) Pause() {
	if s.Status == StatusInProgress {
		s.Status = StatusPaused
	}
}

// Resume continues a paused interview. No-op in any other state.
func (s *Session) Resume() {
	if s.Status == StatusPaused {
		s.Status = StatusInProgress
	}
}

// Submit forces the session into the terminal completed state.
func (s *Session) Submit() {
	s.Status = StatusCompleted
}

// DecrementTimer reduces the current question's remaining time by one second,
// clamped at zero, and returns the new value. Outside in_progress it mutates
// nothing and returns 0, so the countdown loop can call it unconditionally.
func (s *Session) DecrementTimer() int {
	if s.Status != StatusInProgress {
		return 0
	}
	if s.CurrentIndex >= len(s.Questions) {
		return 0
	}
	q := &s.Questions[s.CurrentIndex]
	if q.TimeLeft > 0 {
		q.TimeLeft--
	}
	return q.TimeLeft
}

// AnsweredCount reports how many questions carry a recorded answer.
func (s *Session) AnsweredCount() int {
	count := 0
	for i := range s.Questions {
		if s.Questions[i].IsAnswered {
			count++
		}
	}
	return count
}

// AskedQuestions projects the history handed to the question generator.
func (s *Session) AskedQuestions() []question.Asked {
	asked := make([]question.Asked, 0, len(s.Questions))
	for i := range s.Questions {
		q := &s.Questions[i]
		asked = append(asked, question.Asked{
			ID:         q.ID,
			Text:       q.Text,
			Difficulty: q.Difficulty,
			Type:       q.Type,
		})
	}
	return asked
}

// Transcript projects every answered question for the evaluator.
func (s *Session) Transcript() []question.TranscriptEntry {
	entries := make([]question.TranscriptEntry, 0, len(s.Questions))
	for i := range s.Questions {
		q := &s.Questions[i]
		if !q.IsAnswered {
			continue
		}
		entries = append(entries, question.TranscriptEntry{
			ID:         q.ID,
			Text:       q.Text,
			Answer:     q.Answer,
			Score:      q.Score,
			Difficulty: q.Difficulty,
			Type:       q.Type,
		})
	}
	return entries
}

// Report returns a defensive projection of the session. Callers cannot reach
// the live question slice through it.
func (s *Session) Report() Report {
	total := 0
	questions := make([]ReportQuestion, 0, len(s.Questions))
	for i := range s.Questions {
		q := &s.Questions[i]
		total += q.Score
		questions = append(questions, ReportQuestion{
			ID:         q.ID,
			Text:       q.Text,
			Answer:     q.Answer,
			Score:      q.Score,
			Difficulty: q.Difficulty,
			Type:       q.Type,
		})
	}
	return Report{
		Candidate:  s.Candidate,
		Status:     s.Status,
		TotalScore: total,
		Questions:  questions,
	}
}

func timeForDifficulty(difficulty string) int {
	if secs, ok := difficultyTime[difficulty]; ok {
		return secs
	}
	return defaultTimeLeft
}

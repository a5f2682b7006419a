package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/devdm/interview-platform/internal/question"
	"github.com/devdm/interview-platform/pkg/http/ws"
)

// InterviewStore is the durable interview record behind the session cache.
type InterviewStore interface {
	Create(ctx context.Context, candidate Candidate) (Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetResult(ctx context.Context, id int64, score int, summary string) error
}

// QuestionStore is the durable mirror of the per-interview question list.
type QuestionStore interface {
	Create(ctx context.Context, interviewID int64, text, difficulty, qType string, options []string) (Question, error)
	UpdateAnswer(ctx context.Context, id int64, answer string, score int) error
	CountByInterview(ctx context.Context, interviewID int64) (int, error)
	FindUnanswered(ctx context.Context, interviewID int64, exclude []int64) (Question, error)
	ListAnswered(ctx context.Context, interviewID int64) ([]Question, error)
	ListByInterview(ctx context.Context, interviewID int64) ([]Question, error)
}

// Service orchestrates the interview lifecycle: session loading and
// persistence, answer recording, question generation, countdown wiring,
// and final evaluation. Every mutation of a session happens under that
// interview's lock, so the countdown loop and the message handler never
// interleave their read-modify-write cycles.
type Service struct {
	store      *SessionStore
	timers     *TimerService
	interviews InterviewStore
	questions  QuestionStore
	generator  question.Generator
	evaluator  question.Evaluator
	hub        *ws.Hub
	logger     zerolog.Logger

	genGroup singleflight.Group

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewService(
	store *SessionStore,
	timers *TimerService,
	interviews InterviewStore,
	questions QuestionStore,
	generator question.Generator,
	evaluator question.Evaluator,
	hub *ws.Hub,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:      store,
		timers:     timers,
		interviews: interviews,
		questions:  questions,
		generator:  generator,
		evaluator:  evaluator,
		hub:        hub,
		logger:     logger.With().Str("component", "interview_service").Logger(),
		locks:      make(map[int64]*sync.Mutex),
	}
}

// CreateInterview registers a new interview for the candidate. The session
// itself is built lazily on the first get_question over the socket.
func (s *Service) CreateInterview(ctx context.Context, candidate Candidate) (Record, error) {
	record, err := s.interviews.Create(ctx, candidate)
	if err != nil {
		return Record{}, err
	}
	s.logger.Info().Int64("interview_id", record.ID).Int64("candidate_id", candidate.ID).Msg("interview created")
	return record, nil
}

// Answer records the candidate's answer on the current question, then either
// hands out the next question or, once the question cap is reached, finalizes
// the interview. The returned message is what the caller should deliver. A
// late answer for an already-completed interview is ignored.
func (s *Service) Answer(ctx context.Context, userID, interviewID int64, answer string) (ws.Message, error) {
	return s.submitAnswer(ctx, userID, interviewID, answer, 0)
}

// submitAnswer is the shared path behind client answers and countdown
// expiries. A non-zero expectID gates the submission on the current question
// still being the one whose countdown ran out; a zero message with a nil
// error means the submission was dropped as stale.
func (s *Service) submitAnswer(ctx context.Context, userID, interviewID int64, answer string, expectID int64) (ws.Message, error) {
	msg, history, err := s.recordAnswer(ctx, userID, interviewID, answer, expectID)
	if err != nil || history == nil {
		return msg, err
	}
	return s.generateAndInstall(ctx, userID, interviewID, history)
}

// recordAnswer runs the locked half of an answer submission. When the next
// question has to be generated it returns the asked history instead of a
// message, so the slow generation call can run with the lock released.
func (s *Service) recordAnswer(ctx context.Context, userID, interviewID int64, answer string, expectID int64) (ws.Message, []question.Asked, error) {
	unlock, err := s.lockSession(ctx, interviewID)
	if err != nil {
		return ws.Message{}, nil, err
	}
	defer unlock()

	sess, err := s.store.Load(ctx, interviewID)
	if err != nil {
		return ws.Message{}, nil, err
	}
	if sess.Status == StatusCompleted {
		if expectID != 0 {
			return ws.Message{}, nil, nil
		}
		// Duplicate or late submission; answering is idempotent.
		return ws.NewMessage(ws.TypeInfo, ws.InfoPayload{Message: "interview already completed"}), nil, nil
	}

	current := sess.CurrentQuestion()
	if current == nil {
		msg, err := s.finalize(ctx, userID, interviewID, sess)
		return msg, nil, err
	}
	if expectID != 0 && current.ID != expectID {
		// The countdown that forced this answer is stale: the candidate
		// already answered and the interview moved on.
		return ws.Message{}, nil, nil
	}
	if !current.IsAnswered {
		answeredID := current.ID
		sess.Answer(answer, 0)
		if err := s.store.Save(ctx, interviewID, sess); err != nil {
			return ws.Message{}, nil, err
		}
		s.mirrorAnswer(answeredID, answer)
		s.timers.Stop(userID)
	}

	if sess.AnsweredCount() >= MaxQuestions {
		msg, err := s.finalize(ctx, userID, interviewID, sess)
		return msg, nil, err
	}
	return s.advance(ctx, userID, interviewID, sess)
}

// GetQuestion returns the question the candidate should be working on,
// rebuilding the session from the database when the cache entry is gone.
// For a completed interview it returns the final report instead.
func (s *Service) GetQuestion(ctx context.Context, userID, interviewID int64) (ws.Message, error) {
	msg, history, err := s.currentOrAdvance(ctx, userID, interviewID)
	if err != nil || history == nil {
		return msg, err
	}
	return s.generateAndInstall(ctx, userID, interviewID, history)
}

// currentOrAdvance runs the locked half of get_question, handing back the
// asked history when a question has to be generated.
func (s *Service) currentOrAdvance(ctx context.Context, userID, interviewID int64) (ws.Message, []question.Asked, error) {
	unlock, err := s.lockSession(ctx, interviewID)
	if err != nil {
		return ws.Message{}, nil, err
	}
	defer unlock()

	sess, err := s.loadOrRebuild(ctx, interviewID)
	if err != nil {
		return ws.Message{}, nil, err
	}
	if sess.Status == StatusCompleted {
		msg, err := s.completedMessage(ctx, interviewID, sess)
		return msg, nil, err
	}
	if len(sess.Questions) == 0 {
		// First contact: nothing asked yet.
		return s.advance(ctx, userID, interviewID, sess)
	}

	current := sess.CurrentQuestion()
	switch {
	case current == nil:
		// Cursor ran past the end; CurrentQuestion flipped the session
		// to completed.
		msg, err := s.finalize(ctx, userID, interviewID, sess)
		return msg, nil, err
	case current.IsAnswered:
		if sess.AnsweredCount() >= MaxQuestions {
			msg, err := s.finalize(ctx, userID, interviewID, sess)
			return msg, nil, err
		}
		return s.advance(ctx, userID, interviewID, sess)
	default:
		if err := s.store.Save(ctx, interviewID, sess); err != nil {
			return ws.Message{}, nil, err
		}
		s.mirrorStatus(interviewID, sess.Status)
		if sess.Status == StatusInProgress {
			s.startCountdown(userID, interviewID, current.ID)
		}
		return questionMessage(current), nil, nil
	}
}

// Pause suspends the countdown without tearing the session down.
func (s *Service) Pause(ctx context.Context, interviewID int64) (ws.Message, error) {
	msg := ws.NewMessage(ws.TypeInfo, ws.InfoPayload{Message: "interview paused"})
	return msg, s.transition(ctx, interviewID, func(sess *Session) { sess.Pause() })
}

// Resume continues a paused interview and re-emits the current question so
// the client can redraw it with the remaining time.
func (s *Service) Resume(ctx context.Context, userID, interviewID int64) (ws.Message, error) {
	unlock, err := s.lockSession(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}
	defer unlock()

	sess, err := s.store.Load(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}
	sess.Resume()
	current := sess.CurrentQuestion()
	if err := s.store.Save(ctx, interviewID, sess); err != nil {
		return ws.Message{}, err
	}
	s.mirrorStatus(interviewID, sess.Status)

	if current == nil {
		return ws.NewMessage(ws.TypeInfo, ws.InfoPayload{Message: "interview resumed"}), nil
	}
	s.startCountdown(userID, interviewID, current.ID)
	return questionMessage(current), nil
}

// GetInterview reports the session's lifecycle state and cursor.
func (s *Service) GetInterview(ctx context.Context, interviewID int64) (ws.Message, error) {
	sess, err := s.store.Load(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}

	payload := ws.InterviewStatePayload{
		Status:       sess.Status,
		CurrentIndex: sess.CurrentIndex,
	}
	if sess.CurrentIndex < len(sess.Questions) && sess.Status != StatusCompleted {
		qp := toQuestionPayload(&sess.Questions[sess.CurrentIndex])
		payload.CurrentQuestion = &qp
	}
	return ws.NewMessage(ws.TypeInterviewState, payload), nil
}

// GetAnswered lists the questions answered so far, from the cache when the
// session is live and from the database otherwise.
func (s *Service) GetAnswered(ctx context.Context, interviewID int64) (ws.Message, error) {
	sess, err := s.store.Load(ctx, interviewID)
	if err == nil {
		answered := make([]ws.ReportedQuestion, 0, len(sess.Questions))
		for i := range sess.Questions {
			q := &sess.Questions[i]
			if q.IsAnswered {
				answered = append(answered, toReportedQuestion(q))
			}
		}
		return ws.NewMessage(ws.TypeAnsweredList, ws.AnsweredListPayload{Questions: answered}), nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return ws.Message{}, err
	}

	rows, err := s.questions.ListAnswered(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}
	answered := make([]ws.ReportedQuestion, 0, len(rows))
	for i := range rows {
		answered = append(answered, toReportedQuestion(&rows[i]))
	}
	return ws.NewMessage(ws.TypeAnsweredList, ws.AnsweredListPayload{Questions: answered}), nil
}

// Disconnect releases per-connection resources. The session itself stays in
// the cache so a reconnect picks up where the candidate left off.
func (s *Service) Disconnect(userID int64) {
	s.timers.Stop(userID)
}

// loadOrRebuild loads the cached session, falling back to a rebuild from the
// durable record when the cache entry expired or was lost.
func (s *Service) loadOrRebuild(ctx context.Context, interviewID int64) (*Session, error) {
	sess, err := s.store.Load(ctx, interviewID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	record, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	rows, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	sess = NewSession(record.Candidate, rows)
	if record.Status == StatusCompleted {
		sess.Submit()
	} else {
		// Point the cursor at the first unanswered question.
		for sess.CurrentIndex < len(sess.Questions) && sess.Questions[sess.CurrentIndex].IsAnswered {
			sess.CurrentIndex++
		}
	}
	s.logger.Info().Int64("interview_id", interviewID).Int("questions", len(rows)).Msg("session rebuilt from database")
	return sess, nil
}

// advance reuses a durable unanswered question when one exists, installing
// it immediately. When nothing is reusable it persists the session and
// returns the asked history; the caller generates with the lock released.
func (s *Service) advance(ctx context.Context, userID, interviewID int64, sess *Session) (ws.Message, []question.Asked, error) {
	// Questions already in the session are not reusable: the current one is
	// being answered and its database mirror may lag behind.
	known := make([]int64, 0, len(sess.Questions))
	for i := range sess.Questions {
		known = append(known, sess.Questions[i].ID)
	}

	next, err := s.questions.FindUnanswered(ctx, interviewID, known)
	if errors.Is(err, ErrRecordNotFound) {
		if err := s.store.Save(ctx, interviewID, sess); err != nil {
			return ws.Message{}, nil, err
		}
		return ws.Message{}, sess.AskedQuestions(), nil
	}
	if err != nil {
		return ws.Message{}, nil, err
	}

	msg, err := s.install(ctx, userID, interviewID, sess, next)
	return msg, nil, err
}

// install adds the question as the session's current one, persists the
// session, and starts the countdown. Callers hold the session lock.
func (s *Service) install(ctx context.Context, userID, interviewID int64, sess *Session, next Question) (ws.Message, error) {
	installed, err := sess.AddQuestion(next)
	if err != nil {
		return ws.Message{}, err
	}

	was := sess.Status
	sess.CurrentQuestion() // ready -> in_progress on first delivery
	if err := s.store.Save(ctx, interviewID, sess); err != nil {
		return ws.Message{}, err
	}
	if sess.Status != was {
		s.mirrorStatus(interviewID, sess.Status)
	}

	s.startCountdown(userID, interviewID, installed.ID)
	return questionMessage(installed), nil
}

// generateAndInstall asks for a new question with no session lock held (the
// external call can take seconds), then re-acquires the lock to install the
// result.
func (s *Service) generateAndInstall(ctx context.Context, userID, interviewID int64, history []question.Asked) (ws.Message, error) {
	next, err := s.generateQuestion(ctx, interviewID, history)
	if err != nil {
		return ws.Message{}, err
	}

	unlock, err := s.lockSession(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}
	defer unlock()

	sess, err := s.store.Load(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}
	if sess.Status == StatusCompleted {
		// The interview finished while the question was in flight.
		return s.completedMessage(ctx, interviewID, sess)
	}
	return s.install(ctx, userID, interviewID, sess, next)
}

// generateQuestion asks the AI service for one new question and persists it.
// Callers run outside the session lock, so concurrent requests for the same
// interview genuinely share one flight; the idempotent install absorbs the
// duplicate delivery.
func (s *Service) generateQuestion(ctx context.Context, interviewID int64, history []question.Asked) (Question, error) {
	v, err, _ := s.genGroup.Do(strconv.FormatInt(interviewID, 10), func() (any, error) {
		// The session cap check runs against the cache; the row count catches
		// the case where a persisted question never made it into a snapshot.
		count, err := s.questions.CountByInterview(ctx, interviewID)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		if count >= MaxQuestions {
			return nil, ErrSessionFull
		}

		gen, err := s.generator.Generate(ctx, history)
		if err != nil {
			generationFailures.Inc()
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		created, err := s.questions.Create(ctx, interviewID, gen.Text, gen.Difficulty, gen.Type, gen.Options)
		if err != nil {
			return nil, fmt.Errorf("persist generated question: %w", err)
		}
		return created, nil
	})
	if err != nil {
		return Question{}, err
	}
	return v.(Question), nil
}

// finalize moves the session to completed, records the verdict durably, and
// only then removes the cache entry. An evaluation failure leaves the
// completed session cached so a later get_question can retry.
func (s *Service) finalize(ctx context.Context, userID, interviewID int64, sess *Session) (ws.Message, error) {
	sess.Submit()
	if err := s.store.Save(ctx, interviewID, sess); err != nil {
		return ws.Message{}, err
	}
	if err := s.interviews.UpdateStatus(ctx, interviewID, StatusCompleted); err != nil {
		return ws.Message{}, err
	}
	s.timers.Stop(userID)

	eval, err := s.evaluator.Evaluate(ctx, sess.Transcript())
	if err != nil {
		evaluationFailures.Inc()
		return ws.Message{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	if err := s.interviews.SetResult(ctx, interviewID, eval.Score, eval.Summary); err != nil {
		return ws.Message{}, err
	}

	if err := s.store.Delete(ctx, interviewID); err != nil {
		s.logger.Warn().Err(err).Int64("interview_id", interviewID).Msg("session cleanup failed")
	}
	interviewsCompleted.Inc()
	s.logger.Info().Int64("interview_id", interviewID).Int("score", eval.Score).Msg("interview completed")

	return completedFromSession(sess, eval.Score, eval.Summary), nil
}

// completedMessage serves the report for an already-completed interview. A
// missing verdict means an earlier evaluation failed, so it is retried here.
func (s *Service) completedMessage(ctx context.Context, interviewID int64, sess *Session) (ws.Message, error) {
	record, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		return ws.Message{}, err
	}

	if record.Summary == "" {
		eval, err := s.evaluator.Evaluate(ctx, sess.Transcript())
		if err != nil {
			evaluationFailures.Inc()
			return ws.Message{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
		}
		if err := s.interviews.SetResult(ctx, interviewID, eval.Score, eval.Summary); err != nil {
			return ws.Message{}, err
		}
		record.Score, record.Summary = eval.Score, eval.Summary
	}

	if err := s.store.Delete(ctx, interviewID); err != nil {
		s.logger.Warn().Err(err).Int64("interview_id", interviewID).Msg("session cleanup failed")
	}
	return completedFromSession(sess, record.Score, record.Summary), nil
}

// startCountdown launches the per-second countdown for the question. The
// loop stops on its own when the question changes, the session disappears,
// or the budget hits zero.
func (s *Service) startCountdown(userID, interviewID, questionID int64) {
	s.timers.Start(context.Background(), userID, func(ctx context.Context) (bool, error) {
		return s.tick(ctx, userID, interviewID, questionID)
	})
}

func (s *Service) tick(ctx context.Context, userID, interviewID, questionID int64) (bool, error) {
	unlock, err := s.lockSession(ctx, interviewID)
	if errors.Is(err, ErrLockHeld) {
		// Another actor is mutating the session; try again next second.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer unlock()

	sess, err := s.store.Load(ctx, interviewID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	current := sess.CurrentQuestion()
	if current == nil || current.ID != questionID {
		return false, nil
	}
	if sess.Status == StatusPaused {
		return true, nil
	}

	remaining := sess.DecrementTimer()
	if err := s.store.Save(ctx, interviewID, sess); err != nil {
		return false, err
	}

	update := ws.NewMessage(ws.TypeTimeUpdate, ws.TimeUpdatePayload{
		QuestionID: questionID,
		TimeLeft:   remaining,
		Status:     sess.Status,
	})
	if err := s.hub.SendToUser(userID, update); err != nil {
		s.logger.Debug().Err(err).Int64("user_id", userID).Msg("time update not delivered")
	}

	if remaining <= 0 {
		questionTimeouts.Inc()
		go s.expireQuestion(userID, interviewID, questionID)
		return false, nil
	}
	return true, nil
}

// expireQuestion force-submits an empty answer once the countdown hits zero,
// which advances the interview exactly like a candidate answer would. The
// question id re-check inside submitAnswer drops the forced answer when the
// candidate's own answer won the race.
func (s *Service) expireQuestion(userID, interviewID, questionID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info().Int64("interview_id", interviewID).Int64("question_id", questionID).Msg("question timed out")

	msg, err := s.submitAnswer(ctx, userID, interviewID, "", questionID)
	if err != nil {
		s.logger.Error().Err(err).Int64("interview_id", interviewID).Msg("timeout submission failed")
		return
	}
	if msg.Type == "" {
		// The question was answered between the final tick and this forced
		// submission; nothing to do.
		return
	}
	if err := s.hub.SendToUser(userID, msg); err != nil {
		s.logger.Debug().Err(err).Int64("user_id", userID).Msg("timeout message not delivered")
	}
}

// transition applies a state change under the session lock and persists it.
func (s *Service) transition(ctx context.Context, interviewID int64, apply func(*Session)) error {
	unlock, err := s.lockSession(ctx, interviewID)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.store.Load(ctx, interviewID)
	if err != nil {
		return err
	}
	apply(sess)
	if err := s.store.Save(ctx, interviewID, sess); err != nil {
		return err
	}
	s.mirrorStatus(interviewID, sess.Status)
	return nil
}

// lockSession serializes session access: the in-process mutex orders the
// countdown loop against the message handler, and the cache lease fences
// out other instances.
func (s *Service) lockSession(ctx context.Context, interviewID int64) (func(), error) {
	mu := s.sessionMutex(interviewID)
	mu.Lock()

	release, err := s.store.Acquire(ctx, interviewID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			s.logger.Warn().Err(err).Int64("interview_id", interviewID).Msg("lease release failed")
		}
		mu.Unlock()
	}, nil
}

func (s *Service) sessionMutex(interviewID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.locks[interviewID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[interviewID] = mu
	}
	return mu
}

// mirrorAnswer writes the answer through to the database off the hot path.
// The cache holds the authoritative copy until completion, so a failed
// mirror write is logged, not surfaced.
func (s *Service) mirrorAnswer(questionID int64, answer string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.questions.UpdateAnswer(ctx, questionID, answer, 0); err != nil {
			s.logger.Warn().Err(err).Int64("question_id", questionID).Msg("answer mirror write failed")
		}
	}()
}

// mirrorStatus writes a lifecycle change through to the database.
func (s *Service) mirrorStatus(interviewID int64, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.interviews.UpdateStatus(ctx, interviewID, status); err != nil {
			s.logger.Warn().Err(err).Int64("interview_id", interviewID).Msg("status mirror write failed")
		}
	}()
}

func questionMessage(q *Question) ws.Message {
	return ws.NewMessage(ws.TypeQuestion, toQuestionPayload(q))
}

func toQuestionPayload(q *Question) ws.QuestionPayload {
	return ws.QuestionPayload{
		ID:         q.ID,
		Text:       q.Text,
		Difficulty: q.Difficulty,
		Type:       q.Type,
		Options:    q.Options,
		TimeLeft:   q.TimeLeft,
	}
}

func toReportedQuestion(q *Question) ws.ReportedQuestion {
	return ws.ReportedQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Answer:     q.Answer,
		Score:      q.Score,
		Difficulty: q.Difficulty,
		Type:       q.Type,
	}
}

func completedFromSession(sess *Session, score int, summary string) ws.Message {
	report := sess.Report()
	questions := make([]ws.ReportedQuestion, 0, len(report.Questions))
	for _, rq := range report.Questions {
		questions = append(questions, ws.ReportedQuestion{
			ID:         rq.ID,
			Text:       rq.Text,
			Answer:     rq.Answer,
			Score:      rq.Score,
			Difficulty: rq.Difficulty,
			Type:       rq.Type,
		})
	}
	return ws.NewMessage(ws.TypeCompleted, ws.CompletedPayload{
		Status:    StatusCompleted,
		Score:     score,
		Summary:   summary,
		Questions: questions,
	})
}

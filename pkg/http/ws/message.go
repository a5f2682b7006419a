package ws

import "encoding/json"

// MessageType constants for the interview WebSocket protocol.
const (
	// Client -> Server
	TypeAnswer       = "answer"
	TypePause        = "pause"
	TypeResume       = "resume"
	TypeGetInterview = "get_interview"
	TypeGetQuestion  = "get_question"
	TypeGetAnswered  = "get_answered"
	TypeHeartbeat    = "heartbeat"

	// Server -> Client
	TypeAuthSuccess    = "auth_success"
	TypeQuestion       = "question"
	TypeCompleted      = "completed"
	TypeError          = "error"
	TypeInfo           = "info"
	TypeInterviewState = "interview_state"
	TypeTimeUpdate     = "time_update"
	TypeAnsweredList   = "answered_list"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed envelope. Marshal errors are
// swallowed into an empty payload; callers pass known-serializable structs.
func NewMessage(msgType string, payload any) Message {
	msg := Message{Type: msgType}
	if payload != nil {
		msg.Payload, _ = json.Marshal(payload)
	}
	return msg
}

// Client Messages (incoming)

type AnswerPayload struct {
	InterviewID int64  `json:"interviewId"`
	Answer      string `json:"answer"`
}

type PausePayload struct {
	InterviewID int64 `json:"interviewId"`
}

type ResumePayload struct {
	InterviewID int64 `json:"interviewId"`
}

type GetInterviewPayload struct {
	InterviewID int64 `json:"interviewId"`
}

type GetQuestionPayload struct {
	InterviewID int64 `json:"interviewId"`
}

type GetAnsweredPayload struct {
	InterviewID int64 `json:"interviewId"`
}

// Server Messages (outgoing)

type AuthSuccessPayload struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type QuestionPayload struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	Difficulty string   `json:"difficulty"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	TimeLeft   int      `json:"timeLeft"`
}

type TimeUpdatePayload struct {
	QuestionID int64  `json:"questionId"`
	TimeLeft   int    `json:"timeLeft"`
	Status     string `json:"status"`
}

type InterviewStatePayload struct {
	Status          string           `json:"status"`
	CurrentIndex    int              `json:"currentIndex"`
	CurrentQuestion *QuestionPayload `json:"currentQuestion"`
}

type ReportedQuestion struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

type CompletedPayload struct {
	Status    string             `json:"status"`
	Score     int                `json:"score"`
	Summary   string             `json:"summary"`
	Questions []ReportedQuestion `json:"questions"`
}

type AnsweredListPayload struct {
	Questions []ReportedQuestion `json:"questions"`
}

type InfoPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

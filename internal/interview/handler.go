package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	httperrors "github.com/devdm/interview-platform/pkg/http/errors"
	"github.com/devdm/interview-platform/pkg/http/ws"
)

// Handler routes interview WebSocket messages to the service and delivers
// the replies over the hub.
type Handler struct {
	service *Service
	hub     *ws.Hub
	logger  zerolog.Logger
}

func NewHandler(service *Service, hub *ws.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// handleMessage routes one inbound message. Replies echo the request id so
// the client can correlate them.
func (h *Handler) handleMessage(ctx context.Context, userID int64, msg ws.Message) error {
	messagesTotal.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case ws.TypeAnswer:
		return h.handleAnswer(ctx, userID, msg)
	case ws.TypePause:
		return h.handlePause(ctx, userID, msg)
	case ws.TypeResume:
		return h.handleResume(ctx, userID, msg)
	case ws.TypeGetInterview:
		return h.handleGetInterview(ctx, userID, msg)
	case ws.TypeGetQuestion:
		return h.handleGetQuestion(ctx, userID, msg)
	case ws.TypeGetAnswered:
		return h.handleGetAnswered(ctx, userID, msg)
	case ws.TypeHeartbeat:
		return h.reply(userID, msg, ws.NewMessage(ws.TypeInfo, ws.InfoPayload{Message: "pong"}))
	default:
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeUnknownMessageType,
			fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleAnswer(ctx context.Context, userID int64, msg ws.Message) error {
	var req ws.AnswerPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.InterviewID <= 0 {
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid answer payload")
	}

	resp, err := h.service.Answer(ctx, userID, req.InterviewID, req.Answer)
	if err != nil {
		return h.sendServiceError(userID, msg.RequestID, err)
	}
	return h.reply(userID, msg, resp)
}

func (h *Handler) handlePause(ctx context.Context, userID int64, msg ws.Message) error {
	var req ws.PausePayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.InterviewID <= 0 {
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid pause payload")
	}

	resp, err := h.service.Pause(ctx, req.InterviewID)
	if err != nil {
		return h.sendServiceError(userID, msg.RequestID, err)
	}
	return h.reply(userID, msg, resp)
}

func (h *Handler) handleResume(ctx context.Context, userID int64, msg ws.Message) error {
	var req ws.ResumePayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.InterviewID <= 0 {
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid resume payload")
	}

	resp, err := h.service.Resume(ctx, userID, req.InterviewID)
	if err != nil {
		return h.sendServiceError(userID, msg.RequestID, err)
	}
	return h.reply(userID, msg, resp)
}

func (h *Handler) handleGetInterview(ctx context.Context, userID int64, msg ws.Message) error {
	var req ws.GetInterviewPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.InterviewID <= 0 {
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid get_interview payload")
	}

	resp, err := h.service.GetInterview(ctx, req.InterviewID)
	if err != nil {
		return h.sendServiceError(userID, msg.RequestID, err)
	}
	return h.reply(userID, msg, resp)
}

func (h *Handler) handleGetQuestion(ctx context.Context, userID int64, msg ws.Message) error {
	var req ws.GetQuestionPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.InterviewID <= 0 {
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid get_question payload")
	}

	resp, err := h.service.GetQuestion(ctx, userID, req.InterviewID)
	if err != nil {
		return h.sendServiceError(userID, msg.RequestID, err)
	}
	return h.reply(userID, msg, resp)
}

func (h *Handler) handleGetAnswered(ctx context.Context, userID int64, msg ws.Message) error {
	var req ws.GetAnsweredPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.InterviewID <= 0 {
		return h.sendError(userID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid get_answered payload")
	}

	resp, err := h.service.GetAnswered(ctx, req.InterviewID)
	if err != nil {
		return h.sendServiceError(userID, msg.RequestID, err)
	}
	return h.reply(userID, msg, resp)
}

func (h *Handler) reply(userID int64, req ws.Message, resp ws.Message) error {
	resp.RequestID = req.RequestID
	return h.hub.SendToUser(userID, resp)
}

// sendServiceError translates domain errors into protocol error codes.
func (h *Handler) sendServiceError(userID int64, requestID string, err error) error {
	code := httperrors.ErrCodeInternalError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrRecordNotFound):
		code = httperrors.ErrCodeInterviewNotFound
	case errors.Is(err, ErrSessionCompleted):
		code = httperrors.ErrCodeConflict
	case errors.Is(err, ErrSessionFull):
		code = httperrors.ErrCodeQuestionLimitReached
	case errors.Is(err, ErrLockHeld):
		code = httperrors.ErrCodeSessionBusy
	case errors.Is(err, ErrGenerationFailed):
		code = httperrors.ErrCodeGenerationFailed
	case errors.Is(err, ErrEvaluationFailed):
		code = httperrors.ErrCodeEvaluationFailed
	}

	if code == httperrors.ErrCodeInternalError {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("interview operation failed")
		return h.sendError(userID, requestID, code, "Internal error")
	}
	return h.sendError(userID, requestID, code, err.Error())
}

func (h *Handler) sendError(userID int64, requestID, code, message string) error {
	msg := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	msg.RequestID = requestID
	return h.hub.SendToUser(userID, msg)
}

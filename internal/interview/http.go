package interview

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devdm/interview-platform/internal/auth/jwt"
	httperrors "github.com/devdm/interview-platform/pkg/http/errors"
)

// HTTPHandler exposes the REST intake surface: creating an interview and
// fetching its durable record.
type HTTPHandler struct {
	service *Service
	tokens  *jwt.Manager
	logger  zerolog.Logger
}

func NewHTTPHandler(service *Service, tokens *jwt.Manager, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		tokens:  tokens,
		logger:  logger.With().Str("component", "interview_http").Logger(),
	}
}

type createInterviewRequest struct {
	CandidateID int64  `json:"candidateId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNo     string `json:"phoneNo"`
}

type createInterviewResponse struct {
	InterviewID int64  `json:"interviewId"`
	Status      string `json:"status"`
	Token       string `json:"token"`
}

// HandleCreate registers an interview and issues the socket token the
// candidate connects with.
//
// Route: POST /v1/interviews
func (h *HTTPHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.CandidateID <= 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "candidateId is required", "candidateId")
		return
	}
	if req.Name == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "name is required", "name")
		return
	}
	if req.Email == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "email is required", "email")
		return
	}

	record, err := h.service.CreateInterview(r.Context(), Candidate{
		ID:      req.CandidateID,
		Name:    req.Name,
		Email:   req.Email,
		PhoneNo: req.PhoneNo,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("interview creation failed")
		httperrors.RespondInternalError(w, "Could not create interview")
		return
	}

	token, err := h.tokens.GenerateToken(req.CandidateID, req.Email, jwt.RoleCandidate)
	if err != nil {
		h.logger.Error().Err(err).Msg("token issuance failed")
		httperrors.RespondInternalError(w, "Could not issue token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createInterviewResponse{
		InterviewID: record.ID,
		Status:      record.Status,
		Token:       token,
	})
}

type interviewResponse struct {
	InterviewID int64     `json:"interviewId"`
	Candidate   Candidate `json:"candidate"`
	Status      string    `json:"status"`
	Score       int       `json:"score"`
	Summary     string    `json:"summary"`
}

// HandleGet returns the durable interview record.
//
// Route: GET /v1/interviews/{id}
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/interviews/"), "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidInterviewID, "Invalid interview id")
		return
	}

	record, err := h.service.interviews.GetByID(r.Context(), id)
	if errors.Is(err, ErrRecordNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeInterviewNotFound, "Interview not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("interview_id", id).Msg("interview lookup failed")
		httperrors.RespondInternalError(w, "Could not load interview")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(interviewResponse{
		InterviewID: record.ID,
		Candidate:   record.Candidate,
		Status:      record.Status,
		Score:       record.Score,
		Summary:     record.Summary,
	})
}

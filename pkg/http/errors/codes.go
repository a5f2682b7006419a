package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Interview errors
	ErrCodeInterviewNotFound       = "interview_not_found"
	ErrCodeInterviewCreationFailed = "interview_creation_failed"
	ErrCodeInvalidInterviewID      = "invalid_interview_id"
	ErrCodeQuestionLimitReached    = "question_limit_reached"
	ErrCodeGenerationFailed        = "generation_failed"
	ErrCodeEvaluationFailed        = "evaluation_failed"
	ErrCodeSubmitFailed            = "submit_failed"
	ErrCodeSessionBusy             = "session_busy"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)

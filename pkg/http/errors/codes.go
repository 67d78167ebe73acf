package errors

// Codes carried in ErrorResponse.Error and in WebSocket error payloads.
const (
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidPayload   = "invalid_payload"
	ErrCodeNotFound         = "not_found"

	ErrCodeDuelNotFound        = "duel_not_found"
	ErrCodeDuelNotActive       = "duel_not_active"
	ErrCodeDuelBusy            = "duel_busy"
	ErrCodeInvalidDuelID       = "invalid_duel_id"
	ErrCodeNotParticipant      = "not_participant"
	ErrCodeStaleQuestion       = "stale_question"
	ErrCodeAlreadyAnswered     = "already_answered"
	ErrCodeHintNotAllowed      = "hint_not_allowed"
	ErrCodeInvalidOption       = "invalid_option"
	ErrCodeSabotageUnavailable = "sabotage_unavailable"

	ErrCodeWordListNotFound = "word_list_not_found"
	ErrCodeWordListInvalid  = "word_list_invalid"

	ErrCodeEnqueueFailed      = "enqueue_failed"
	ErrCodeInvalidQueueToken  = "invalid_queue_token"
	ErrCodeQueueTokenNotFound = "queue_token_not_found"

	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeUnknownWindow      = "unknown_leaderboard_window"

	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)

package duel

import (
	"errors"
	"net/http"

	"github.com/gokatarajesh/word-duel/internal/words"
	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
)

// errorCode maps service errors onto HTTP status and wire error codes.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, ErrDuelNotFound):
		return http.StatusNotFound, httperrors.ErrCodeDuelNotFound
	case errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden, httperrors.ErrCodeNotParticipant
	case errors.Is(err, ErrDuelNotActive):
		return http.StatusConflict, httperrors.ErrCodeDuelNotActive
	case errors.Is(err, ErrStaleQuestion):
		return http.StatusConflict, httperrors.ErrCodeStaleQuestion
	case errors.Is(err, ErrAlreadyAnswered):
		return http.StatusConflict, httperrors.ErrCodeAlreadyAnswered
	case errors.Is(err, ErrHintNotAllowed):
		return http.StatusConflict, httperrors.ErrCodeHintNotAllowed
	case errors.Is(err, ErrInvalidOption):
		return http.StatusBadRequest, httperrors.ErrCodeInvalidOption
	case errors.Is(err, ErrSabotageUnavailable), errors.Is(err, ErrUnknownSabotage):
		return http.StatusConflict, httperrors.ErrCodeSabotageUnavailable
	case errors.Is(err, ErrLockHeld):
		return http.StatusConflict, httperrors.ErrCodeDuelBusy
	case errors.Is(err, words.ErrListNotFound):
		return http.StatusNotFound, httperrors.ErrCodeWordListNotFound
	case errors.Is(err, ErrNotEnoughWords), errors.Is(err, words.ErrEmptyList):
		return http.StatusUnprocessableEntity, httperrors.ErrCodeWordListInvalid
	case errors.Is(err, ErrMissingUser), errors.Is(err, ErrSameUser),
		errors.Is(err, ErrInvalidMode), errors.Is(err, ErrInvalidPreset):
		return http.StatusBadRequest, httperrors.ErrCodeValidationFailed
	default:
		return http.StatusInternalServerError, httperrors.ErrCodeInternalError
	}
}

package duel

import "errors"

var (
	ErrDuelNotFound        = errors.New("duel not found")
	ErrDuelExists          = errors.New("duel already exists")
	ErrDuelNotActive       = errors.New("duel is not active")
	ErrNotParticipant      = errors.New("user is not a participant of this duel")
	ErrMissingUser         = errors.New("challenger and opponent are required")
	ErrSameUser            = errors.New("a duel needs two different users")
	ErrInvalidMode         = errors.New("unknown duel mode")
	ErrInvalidPreset       = errors.New("unknown difficulty preset")
	ErrStaleQuestion       = errors.New("question is no longer current")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrHintNotAllowed      = errors.New("hint action not allowed right now")
	ErrInvalidOption       = errors.New("option cannot be eliminated")
	ErrSabotageUnavailable = errors.New("sabotage not available")
	ErrUnknownSabotage     = errors.New("unknown sabotage kind")
	ErrNotEnoughWords      = errors.New("word list has no playable entries for this mode")
	ErrLockHeld            = errors.New("duel is being updated")
)

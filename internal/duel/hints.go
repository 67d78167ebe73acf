package duel

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gokatarajesh/word-duel/internal/duel/hint"
)

// Hint event labels.
const (
	hintRequested  = "request"
	hintAccepted   = "accept"
	hintEliminated = "eliminate"
)

// RequestHint asks the other side, who has already answered, for help.
func (s *Service) RequestHint(ctx context.Context, id, userID uuid.UUID) (*Record, error) {
	rec, err := s.mutateHint(ctx, id, userID, func(rec *Record, role hint.Role, st hint.State) error {
		if !st.CanRequestHint {
			return ErrHintNotAllowed
		}
		rec.HintRequestedBy = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Hint(hintRequested)
	return rec, nil
}

// AcceptHint makes userID the hint provider for the current question.
func (s *Service) AcceptHint(ctx context.Context, id, userID uuid.UUID) (*Record, error) {
	rec, err := s.mutateHint(ctx, id, userID, func(rec *Record, _ hint.Role, st hint.State) error {
		if !st.CanAcceptHint {
			return ErrHintNotAllowed
		}
		rec.HintAccepted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Hint(hintAccepted)
	return rec, nil
}

// EliminateOption removes one wrong option from the requester's screen.
func (s *Service) EliminateOption(ctx context.Context, id, userID uuid.UUID, option string) (*Record, error) {
	rec, err := s.mutateHint(ctx, id, userID, func(rec *Record, _ hint.Role, st hint.State) error {
		if !st.CanEliminate {
			return ErrHintNotAllowed
		}
		opts := currentOptions(rec)
		entry := rec.Words[rec.CurrentIndex]
		switch {
		case !slices.Contains(opts.Answers, option):
			return fmt.Errorf("%w: %q is not on screen", ErrInvalidOption, option)
		case option == opts.Correct(entry.Answer):
			return fmt.Errorf("%w: %q is the winning option", ErrInvalidOption, option)
		case slices.Contains(rec.EliminatedOptions, option):
			return fmt.Errorf("%w: %q already eliminated", ErrInvalidOption, option)
		}
		rec.EliminatedOptions = append(rec.EliminatedOptions, option)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Hint(hintEliminated)
	return rec, nil
}

// mutateHint runs fn with userID's derived hint state. Hints only exist for
// multiple-choice duels.
func (s *Service) mutateHint(ctx context.Context, id, userID uuid.UUID, fn func(*Record, hint.Role, hint.State) error) (*Record, error) {
	return s.store.Mutate(ctx, id, func(rec *Record) error {
		role, err := activeRole(rec, userID)
		if err != nil {
			return err
		}
		if rec.Mode != ModeChoice {
			return ErrHintNotAllowed
		}
		if err := fn(rec, role, hint.Derive(rec.HintSnapshot(), role)); err != nil {
			return err
		}
		rec.UpdatedAt = s.opts.Now().UTC()
		return nil
	})
}

// TriggerSabotage casts kind on the other participant for the configured duration.
func (s *Service) TriggerSabotage(ctx context.Context, id, userID uuid.UUID, kind string) (*Record, error) {
	if !slices.Contains(sabotageKinds, kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSabotage, kind)
	}

	rec, err := s.store.Mutate(ctx, id, func(rec *Record) error {
		role, err := activeRole(rec, userID)
		if err != nil {
			return err
		}
		p := rec.Participant(role)
		if p.SabotagesLeft <= 0 {
			return fmt.Errorf("%w: none left", ErrSabotageUnavailable)
		}
		now := s.opts.Now().UTC()
		if rec.ActiveSabotage(role.Other(), now) != nil {
			return fmt.Errorf("%w: target already affected", ErrSabotageUnavailable)
		}

		p.SabotagesLeft--
		rec.Participant(role.Other()).Sabotage = &Sabotage{
			Target:    role.Other(),
			Kind:      kind,
			ExpiresAt: now.Add(s.opts.SabotageDuration),
		}
		rec.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Sabotage(kind)
	return rec, nil
}

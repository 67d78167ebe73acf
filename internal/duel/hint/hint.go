// Package hint derives what each duel participant may do in the hint exchange
// from a snapshot of the duel record.
//
// A player who is behind (has not answered while the other has) may ask for a
// hint. The player who already answered may accept, after which they become the
// provider and can eliminate up to MaxEliminations wrong options.
package hint

import "slices"

// Role identifies a side of the duel.
type Role string

// Role constants.
const (
	RoleChallenger Role = "challenger"
	RoleOpponent   Role = "opponent"
)

// Valid reports whether r names a side.
func (r Role) Valid() bool {
	return r == RoleChallenger || r == RoleOpponent
}

// Other returns the opposite side. An invalid role maps to the empty role.
func (r Role) Other() Role {
	switch r {
	case RoleChallenger:
		return RoleOpponent
	case RoleOpponent:
		return RoleChallenger
	default:
		return ""
	}
}

// MaxEliminations caps how many options a provider may remove per question.
const MaxEliminations = 2

// Snapshot is the slice of the duel record the hint exchange depends on.
// An empty HintRequestedBy means nobody has asked.
type Snapshot struct {
	ChallengerAnswered bool
	OpponentAnswered   bool
	HintRequestedBy    Role
	HintAccepted       bool
	EliminatedOptions  []string
}

// State is the hint exchange as seen by one participant.
type State struct {
	CanRequestHint    bool     `json:"can_request_hint"`
	IRequestedHint    bool     `json:"i_requested_hint"`
	TheyRequestedHint bool     `json:"they_requested_hint"`
	CanAcceptHint     bool     `json:"can_accept_hint"`
	IsHintProvider    bool     `json:"is_hint_provider"`
	CanEliminate      bool     `json:"can_eliminate"`
	EliminatedOptions []string `json:"eliminated_options"`
}

// Derive computes viewer's State from s.
func Derive(s Snapshot, viewer Role) State {
	if !viewer.Valid() {
		return State{}
	}

	answered, otherAnswered := s.ChallengerAnswered, s.OpponentAnswered
	if viewer == RoleOpponent {
		answered, otherAnswered = otherAnswered, answered
	}

	st := State{
		IRequestedHint:    s.HintRequestedBy == viewer,
		TheyRequestedHint: s.HintRequestedBy == viewer.Other(),
		EliminatedOptions: slices.Clone(s.EliminatedOptions),
	}
	if st.EliminatedOptions == nil {
		st.EliminatedOptions = []string{}
	}

	st.CanRequestHint = !answered && otherAnswered && s.HintRequestedBy == ""
	st.CanAcceptHint = answered && st.TheyRequestedHint && !s.HintAccepted
	st.IsHintProvider = answered && st.TheyRequestedHint && s.HintAccepted
	st.CanEliminate = st.IsHintProvider && len(s.EliminatedOptions) < MaxEliminations
	return st
}

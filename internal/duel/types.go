package duel

import (
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/word-duel/internal/duel/answers"
	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
	"github.com/gokatarajesh/word-duel/internal/duel/hint"
	"github.com/gokatarajesh/word-duel/internal/duel/scoring"
)

// Mode selects how a question is answered.
type Mode string

// Mode constants.
const (
	ModeChoice  Mode = "choice"  // pick one of several translations
	ModeAnagram Mode = "anagram" // rebuild the translation from scrambled letters
)

// Status lifecycle states.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Sabotage kinds.
const (
	SabotageBlur   = "blur"
	SabotageShake  = "shake"
	SabotageInvert = "invert"
	SabotageShrink = "shrink"
)

var sabotageKinds = []string{SabotageBlur, SabotageShake, SabotageInvert, SabotageShrink}

// Record is the duel document shared by both participants.
type Record struct {
	ID                 uuid.UUID               `json:"id"`
	Seed               string                  `json:"seed"`
	Mode               Mode                    `json:"mode"`
	Preset             difficulty.Preset       `json:"preset"`
	WordListID         string                  `json:"word_list_id"`
	Words              []answers.WordEntry     `json:"words"`
	Distribution       difficulty.Distribution `json:"distribution"`
	PerQuestionSeconds int                     `json:"per_question_seconds"`
	Status             string                  `json:"status"`
	CurrentIndex       int                     `json:"current_index"`
	QuestionStartedAt  time.Time               `json:"question_started_at"`

	Challenger Participant `json:"challenger"`
	Opponent   Participant `json:"opponent"`

	HintRequestedBy   hint.Role `json:"hint_requested_by,omitempty"`
	HintAccepted      bool      `json:"hint_accepted"`
	EliminatedOptions []string  `json:"eliminated_options"`

	Outcome     *Outcome   `json:"outcome,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Participant is one side of a duel.
type Participant struct {
	UserID        uuid.UUID      `json:"user_id"`
	DisplayName   string         `json:"display_name"`
	Answered      bool           `json:"answered"`
	Answers       []AnswerRecord `json:"answers"`
	Score         float64        `json:"score"`
	SabotagesLeft int            `json:"sabotages_left"`
	// Sabotage is the effect cast on this participant, kept after expiry until
	// replaced or the duel completes.
	Sabotage      *Sabotage      `json:"sabotage,omitempty"`
}

// AnswerRecord stores one graded response.
type AnswerRecord struct {
	Index       int       `json:"index"`
	Answer      string    `json:"answer"`
	Correct     bool      `json:"correct"`
	Late        bool      `json:"late"`
	Points      float64   `json:"points"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Sabotage is a timed effect one player casts on the other.
type Sabotage struct {
	Target    hint.Role `json:"target"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Outcome is fixed when the duel completes.
type Outcome struct {
	Winner     hint.Role       `json:"winner,omitempty"`
	Draw       bool            `json:"draw"`
	Challenger scoring.Summary `json:"challenger"`
	Opponent   scoring.Summary `json:"opponent"`
}

// RoleOf returns the side userID plays, or the empty role for outsiders.
func (r *Record) RoleOf(userID uuid.UUID) hint.Role {
	switch userID {
	case r.Challenger.UserID:
		return hint.RoleChallenger
	case r.Opponent.UserID:
		return hint.RoleOpponent
	default:
		return ""
	}
}

// Participant returns the side played by role. role must be valid.
func (r *Record) Participant(role hint.Role) *Participant {
	if role == hint.RoleOpponent {
		return &r.Opponent
	}
	return &r.Challenger
}

// HintSnapshot extracts the fields the hint exchange is derived from.
func (r *Record) HintSnapshot() hint.Snapshot {
	return hint.Snapshot{
		ChallengerAnswered: r.Challenger.Answered,
		OpponentAnswered:   r.Opponent.Answered,
		HintRequestedBy:    r.HintRequestedBy,
		HintAccepted:       r.HintAccepted,
		EliminatedOptions:  r.EliminatedOptions,
	}
}

// QuestionCount is the number of questions in the duel.
func (r *Record) QuestionCount() int {
	return len(r.Words)
}

// Deadline is when the current question stops accepting on-time answers.
func (r *Record) Deadline() time.Time {
	return r.QuestionStartedAt.Add(time.Duration(r.PerQuestionSeconds) * time.Second)
}

// ActiveSabotage returns the effect still running on target at now, if any.
// Each participant carries their own, so a counter-cast never shortens the
// caster's current effect.
func (r *Record) ActiveSabotage(target hint.Role, now time.Time) *Sabotage {
	p := r.Participant(target)
	if p.Sabotage == nil || !now.Before(p.Sabotage.ExpiresAt) {
		return nil
	}
	return p.Sabotage
}

// CreateRequest describes a new duel between two known users.
type CreateRequest struct {
	ChallengerID          uuid.UUID `json:"challenger_id"`
	ChallengerDisplayName string    `json:"challenger_display_name"`
	OpponentID            uuid.UUID `json:"opponent_id"`
	OpponentDisplayName   string    `json:"opponent_display_name"`
	Mode                  Mode      `json:"mode"`
	Preset                string    `json:"preset"`
	WordListID            string    `json:"word_list_id"`
	QuestionCount         int       `json:"question_count"`
}

// QuestionView is what one participant sees of the current question. It never
// carries the answer or whether a none-of-the-above option is in play.
type QuestionView struct {
	DuelID           uuid.UUID        `json:"duel_id"`
	Index            int              `json:"index"`
	Total            int              `json:"total"`
	Level            difficulty.Level `json:"level"`
	Prompt           string           `json:"prompt"`
	Options          []string         `json:"options,omitempty"`
	Letters          []string         `json:"letters,omitempty"`
	Eliminated       []string         `json:"eliminated_options"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Hint             hint.State       `json:"hint"`
	Sabotage         *Sabotage        `json:"sabotage,omitempty"`
}

// AnswerResult reports how a submission was graded.
type AnswerResult struct {
	Index    int       `json:"index"`
	Correct  bool      `json:"correct"`
	Late     bool      `json:"late"`
	Points   float64   `json:"points"`
	Advanced bool      `json:"advanced"`
	Complete bool      `json:"complete"`
	Received time.Time `json:"received"`
}

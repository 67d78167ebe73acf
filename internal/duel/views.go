package duel

import (
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
	"github.com/gokatarajesh/word-duel/internal/duel/hint"
	"github.com/gokatarajesh/word-duel/internal/duel/scoring"
	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

// StateView is the record as one participant may see it: no word list, no
// answers, and hint state derived for the viewer.
type StateView struct {
	DuelID             uuid.UUID               `json:"duel_id"`
	Mode               Mode                    `json:"mode"`
	Preset             difficulty.Preset       `json:"preset"`
	Status             string                  `json:"status"`
	Role               hint.Role               `json:"role"`
	CurrentIndex       int                     `json:"current_index"`
	Total              int                     `json:"total"`
	Distribution       difficulty.Distribution `json:"distribution"`
	PerQuestionSeconds int                     `json:"per_question_seconds"`
	QuestionStartedAt  time.Time               `json:"question_started_at"`
	Players            []PlayerView            `json:"players"`
	Hint               hint.State              `json:"hint"`
	Sabotage           *Sabotage               `json:"sabotage,omitempty"`
	Outcome            *Outcome                `json:"outcome,omitempty"`
}

// PlayerView is the public part of a participant.
type PlayerView struct {
	UserID        uuid.UUID `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	Role          hint.Role `json:"role"`
	Answered      bool      `json:"answered"`
	Score         float64   `json:"score"`
	SabotagesLeft int       `json:"sabotages_left"`
	Sabotage      *Sabotage `json:"sabotage,omitempty"`
}

// View renders the record for role at now.
func (r *Record) View(role hint.Role, now time.Time) StateView {
	v := StateView{
		DuelID:             r.ID,
		Mode:               r.Mode,
		Preset:             r.Preset,
		Status:             r.Status,
		Role:               role,
		CurrentIndex:       r.CurrentIndex,
		Total:              r.QuestionCount(),
		Distribution:       r.Distribution,
		PerQuestionSeconds: r.PerQuestionSeconds,
		QuestionStartedAt:  r.QuestionStartedAt,
		Sabotage:           r.ActiveSabotage(role, now),
		Outcome:            r.Outcome,
	}
	for _, side := range []hint.Role{hint.RoleChallenger, hint.RoleOpponent} {
		p := r.Participant(side)
		v.Players = append(v.Players, PlayerView{
			UserID:        p.UserID,
			DisplayName:   p.DisplayName,
			Role:          side,
			Answered:      p.Answered,
			Score:         p.Score,
			SabotagesLeft: p.SabotagesLeft,
			Sabotage:      r.ActiveSabotage(side, now),
		})
	}
	if r.Mode == ModeChoice && r.Status == StatusActive {
		v.Hint = hint.Derive(r.HintSnapshot(), role)
	} else {
		v.Hint = hint.State{EliminatedOptions: []string{}}
	}
	return v
}

func foundPayload(r *Record, role hint.Role) ws.DuelFoundPayload {
	return ws.DuelFoundPayload{
		DuelID:             r.ID.String(),
		Mode:               string(r.Mode),
		Preset:             string(r.Preset),
		Role:               string(role),
		QuestionCount:      r.QuestionCount(),
		PerQuestionSeconds: r.PerQuestionSeconds,
		Seed:               r.Seed,
		Players: []ws.Player{
			{UserID: r.Challenger.UserID.String(), DisplayName: r.Challenger.DisplayName, Role: string(hint.RoleChallenger)},
			{UserID: r.Opponent.UserID.String(), DisplayName: r.Opponent.DisplayName, Role: string(hint.RoleOpponent)},
		},
	}
}

func completePayload(r *Record) ws.DuelCompletePayload {
	out := ws.DuelCompletePayload{DuelID: r.ID.String(), Results: []ws.DuelResult{}}
	if r.Outcome == nil {
		return out
	}
	out.Winner = string(r.Outcome.Winner)
	out.Draw = r.Outcome.Draw
	for _, side := range []hint.Role{hint.RoleChallenger, hint.RoleOpponent} {
		p := r.Participant(side)
		s := r.Outcome.Challenger
		if side == hint.RoleOpponent {
			s = r.Outcome.Opponent
		}
		out.Results = append(out.Results, resultFor(p, side, s))
	}
	return out
}

func resultFor(p *Participant, role hint.Role, s scoring.Summary) ws.DuelResult {
	return ws.DuelResult{
		UserID:      p.UserID.String(),
		DisplayName: p.DisplayName,
		Role:        string(role),
		Score:       s.Score,
		MaxScore:    s.MaxScore,
		Correct:     s.Correct,
		Answered:    s.Answered,
		Accuracy:    s.Accuracy,
		SuccessRate: s.SuccessRate,
	}
}

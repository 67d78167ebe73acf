package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertDuelResult = `
INSERT INTO duel_results (
    duel_id, mode, preset, word_list_id, question_count,
    challenger_id, opponent_id, winner_id,
    challenger_score, opponent_score, summary,
    started_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (duel_id) DO NOTHING
`

type InsertDuelResultParams struct {
	DuelID          pgtype.UUID
	Mode            string
	Preset          string
	WordListID      string
	QuestionCount   int16
	ChallengerID    pgtype.UUID
	OpponentID      pgtype.UUID
	WinnerID        pgtype.UUID
	ChallengerScore float64
	OpponentScore   float64
	Summary         []byte
	StartedAt       pgtype.Timestamptz
	CompletedAt     pgtype.Timestamptz
}

func (q *Queries) InsertDuelResult(ctx context.Context, arg InsertDuelResultParams) error {
	_, err := q.db.Exec(ctx, insertDuelResult,
		arg.DuelID,
		arg.Mode,
		arg.Preset,
		arg.WordListID,
		arg.QuestionCount,
		arg.ChallengerID,
		arg.OpponentID,
		arg.WinnerID,
		arg.ChallengerScore,
		arg.OpponentScore,
		arg.Summary,
		arg.StartedAt,
		arg.CompletedAt,
	)
	return err
}

const getDuelResult = `
SELECT duel_id, mode, preset, word_list_id, question_count,
       challenger_id, opponent_id, winner_id,
       challenger_score, opponent_score, summary,
       started_at, completed_at
FROM duel_results
WHERE duel_id = $1
`

func (q *Queries) GetDuelResult(ctx context.Context, duelID pgtype.UUID) (DuelResult, error) {
	row := q.db.QueryRow(ctx, getDuelResult, duelID)
	var i DuelResult
	err := row.Scan(
		&i.DuelID,
		&i.Mode,
		&i.Preset,
		&i.WordListID,
		&i.QuestionCount,
		&i.ChallengerID,
		&i.OpponentID,
		&i.WinnerID,
		&i.ChallengerScore,
		&i.OpponentScore,
		&i.Summary,
		&i.StartedAt,
		&i.CompletedAt,
	)
	return i, err
}

package sqlcgen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type WordList struct {
	ListID    string
	Name      string
	Language  string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type WordEntry struct {
	EntryID      int64
	ListID       string
	Position     int32
	Word         string
	Answer       string
	WrongAnswers []string
}

type DuelResult struct {
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

type LeaderboardSnapshot struct {
	SnapshotID  int64
	TimeWindow  string
	GeneratedAt pgtype.Timestamptz
	Entries     []byte
	SourceHash  string
}

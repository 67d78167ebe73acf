package sqlcgen

import (
	"context"
)

const getWordList = `
SELECT list_id, name, language, created_at, updated_at
FROM word_lists
WHERE list_id = $1
`

func (q *Queries) GetWordList(ctx context.Context, listID string) (WordList, error) {
	row := q.db.QueryRow(ctx, getWordList, listID)
	var i WordList
	err := row.Scan(
		&i.ListID,
		&i.Name,
		&i.Language,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listWordEntries = `
SELECT entry_id, list_id, position, word, answer, wrong_answers
FROM word_entries
WHERE list_id = $1
ORDER BY position
`

func (q *Queries) ListWordEntries(ctx context.Context, listID string) ([]WordEntry, error) {
	rows, err := q.db.Query(ctx, listWordEntries, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WordEntry
	for rows.Next() {
		var i WordEntry
		if err := rows.Scan(
			&i.EntryID,
			&i.ListID,
			&i.Position,
			&i.Word,
			&i.Answer,
			&i.WrongAnswers,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertWordList = `
INSERT INTO word_lists (list_id, name, language)
VALUES ($1, $2, $3)
ON CONFLICT (list_id) DO UPDATE
SET name = EXCLUDED.name, language = EXCLUDED.language, updated_at = now()
RETURNING list_id, name, language, created_at, updated_at
`

type UpsertWordListParams struct {
	ListID   string
	Name     string
	Language string
}

func (q *Queries) UpsertWordList(ctx context.Context, arg UpsertWordListParams) (WordList, error) {
	row := q.db.QueryRow(ctx, upsertWordList, arg.ListID, arg.Name, arg.Language)
	var i WordList
	err := row.Scan(
		&i.ListID,
		&i.Name,
		&i.Language,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteWordEntries = `
DELETE FROM word_entries WHERE list_id = $1
`

func (q *Queries) DeleteWordEntries(ctx context.Context, listID string) error {
	_, err := q.db.Exec(ctx, deleteWordEntries, listID)
	return err
}

const insertWordEntry = `
INSERT INTO word_entries (list_id, position, word, answer, wrong_answers)
VALUES ($1, $2, $3, $4, $5)
`

type InsertWordEntryParams struct {
	ListID       string
	Position     int32
	Word         string
	Answer       string
	WrongAnswers []string
}

func (q *Queries) InsertWordEntry(ctx context.Context, arg InsertWordEntryParams) error {
	_, err := q.db.Exec(ctx, insertWordEntry,
		arg.ListID,
		arg.Position,
		arg.Word,
		arg.Answer,
		arg.WrongAnswers,
	)
	return err
}

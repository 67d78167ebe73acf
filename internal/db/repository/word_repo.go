package repository

import (
	"context"
	"fmt"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
)

type wordStore interface {
	GetWordList(ctx context.Context, listID string) (sqlcgen.WordList, error)
	ListWordEntries(ctx context.Context, listID string) ([]sqlcgen.WordEntry, error)
	UpsertWordList(ctx context.Context, arg sqlcgen.UpsertWordListParams) (sqlcgen.WordList, error)
	DeleteWordEntries(ctx context.Context, listID string) error
	InsertWordEntry(ctx context.Context, arg sqlcgen.InsertWordEntryParams) error
}

// WordRepository wraps queries for curated word lists.
type WordRepository struct {
	store wordStore
}

func NewWordRepository(store wordStore) *WordRepository {
	return &WordRepository{store: store}
}

// GetList returns a list header and its entries in position order.
func (r *WordRepository) GetList(ctx context.Context, listID string) (sqlcgen.WordList, []sqlcgen.WordEntry, error) {
	list, err := r.store.GetWordList(ctx, listID)
	if err != nil {
		return sqlcgen.WordList{}, nil, notFound(err)
	}
	entries, err := r.store.ListWordEntries(ctx, listID)
	if err != nil {
		return sqlcgen.WordList{}, nil, fmt.Errorf("list entries: %w", err)
	}
	return list, entries, nil
}

// ReplaceList upserts the header and rewrites every entry of the list.
func (r *WordRepository) ReplaceList(ctx context.Context, list sqlcgen.UpsertWordListParams, entries []sqlcgen.InsertWordEntryParams) error {
	if _, err := r.store.UpsertWordList(ctx, list); err != nil {
		return fmt.Errorf("upsert list: %w", err)
	}
	if err := r.store.DeleteWordEntries(ctx, list.ListID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for i, e := range entries {
		e.ListID = list.ListID
		e.Position = int32(i)
		if err := r.store.InsertWordEntry(ctx, e); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	return nil
}

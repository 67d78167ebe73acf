package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
)

type duelStore interface {
	InsertDuelResult(ctx context.Context, arg sqlcgen.InsertDuelResultParams) error
	GetDuelResult(ctx context.Context, duelID pgtype.UUID) (sqlcgen.DuelResult, error)
}

// DuelRepository persists finished duels.
type DuelRepository struct {
	store duelStore
}

// NewDuelRepository constructs a new duel repository.
func NewDuelRepository(store duelStore) *DuelRepository {
	return &DuelRepository{store: store}
}

// SaveResult stores a finished duel. Saving the same duel twice is a no-op.
func (r *DuelRepository) SaveResult(ctx context.Context, params sqlcgen.InsertDuelResultParams) error {
	return r.store.InsertDuelResult(ctx, params)
}

// GetResult fetches a finished duel by id.
func (r *DuelRepository) GetResult(ctx context.Context, duelID uuid.UUID) (sqlcgen.DuelResult, error) {
	res, err := r.store.GetDuelResult(ctx, pgtype.UUID{Bytes: duelID, Valid: true})
	if err != nil {
		return sqlcgen.DuelResult{}, notFound(err)
	}
	return res, nil
}

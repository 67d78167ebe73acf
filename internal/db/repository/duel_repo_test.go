package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
)

type mockDuelStore struct {
	mock.Mock
}

func (m *mockDuelStore) InsertDuelResult(ctx context.Context, arg sqlcgen.InsertDuelResultParams) error {
	return m.Called(ctx, arg).Error(0)
}

func (m *mockDuelStore) GetDuelResult(ctx context.Context, duelID pgtype.UUID) (sqlcgen.DuelResult, error) {
	args := m.Called(ctx, duelID)
	return args.Get(0).(sqlcgen.DuelResult), args.Error(1)
}

func TestDuelRepository_SaveResult(t *testing.T) {
	store := new(mockDuelStore)
	repo := NewDuelRepository(store)

	params := sqlcgen.InsertDuelResultParams{
		DuelID:          uuidFromByte(1),
		Mode:            "choice",
		Preset:          "easy",
		WordListID:      "default",
		QuestionCount:   3,
		ChallengerID:    uuidFromByte(2),
		OpponentID:      uuidFromByte(3),
		WinnerID:        uuidFromByte(2),
		ChallengerScore: 3.5,
		OpponentScore:   1,
	}
	store.On("InsertDuelResult", mock.Anything, params).Return(nil)

	assert.NoError(t, repo.SaveResult(context.Background(), params))
	store.AssertExpectations(t)
}

func TestDuelRepository_GetResult(t *testing.T) {
	store := new(mockDuelStore)
	repo := NewDuelRepository(store)

	id := uuid.New()
	pgID := pgtype.UUID{Bytes: id, Valid: true}
	expect := sqlcgen.DuelResult{DuelID: pgID, Mode: "anagram"}
	store.On("GetDuelResult", mock.Anything, pgID).Return(expect, nil)

	got, err := repo.GetResult(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, expect, got)
}

func TestDuelRepository_GetResultNotFound(t *testing.T) {
	store := new(mockDuelStore)
	repo := NewDuelRepository(store)

	store.On("GetDuelResult", mock.Anything, mock.Anything).Return(sqlcgen.DuelResult{}, pgx.ErrNoRows)

	_, err := repo.GetResult(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

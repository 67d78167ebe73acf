// Package words loads the word lists duels are played over.
//
// Lists live in Postgres and are cached in Redis. The list id "default" (or an
// empty id) always resolves to the list embedded in the binary, so a server
// without any curated lists can still host duels.
package words

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gokatarajesh/word-duel/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
	"github.com/gokatarajesh/word-duel/internal/duel/answers"
)

// DefaultListID names the embedded list.
const DefaultListID = "default"

var (
	ErrListNotFound = errors.New("word list not found")
	ErrEmptyList    = errors.New("word list has no playable entries")
	ErrReadOnlyList = errors.New("the default word list cannot be replaced")
)

// List is a named, ordered set of word entries.
type List struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Language string              `json:"language"`
	Entries  []answers.WordEntry `json:"entries"`
}

//go:embed default_words.json
var defaultWordsJSON []byte

var (
	defaultOnce sync.Once
	defaultList List
	defaultErr  error
)

// Default returns the embedded list.
func Default() (List, error) {
	defaultOnce.Do(func() {
		defaultErr = json.Unmarshal(defaultWordsJSON, &defaultList)
		if defaultErr == nil {
			defaultList.ID = DefaultListID
			defaultList.Entries = Validate(defaultList.Entries)
		}
	})
	if defaultErr != nil {
		return List{}, fmt.Errorf("decode default word list: %w", defaultErr)
	}
	out := defaultList
	out.Entries = cloneEntries(defaultList.Entries)
	return out, nil
}

// Validate trims every field, drops entries without a word or answer and
// removes blank or repeated wrong answers.
func Validate(entries []answers.WordEntry) []answers.WordEntry {
	out := make([]answers.WordEntry, 0, len(entries))
	for _, e := range entries {
		e.Word = strings.TrimSpace(e.Word)
		e.Answer = strings.TrimSpace(e.Answer)
		if e.Word == "" || e.Answer == "" {
			continue
		}
		wrong := lo.Map(e.WrongAnswers, func(s string, _ int) string { return strings.TrimSpace(s) })
		e.WrongAnswers = lo.Uniq(lo.Compact(wrong))
		out = append(out, e)
	}
	return out
}

// ListCache caches resolved lists (implemented by the Redis-backed Cache).
type ListCache interface {
	Get(ctx context.Context, listID string) (*List, error)
	Set(ctx context.Context, list List) error
	Delete(ctx context.Context, listID string) error
}

type listStore interface {
	GetList(ctx context.Context, listID string) (sqlcgen.WordList, []sqlcgen.WordEntry, error)
	ReplaceList(ctx context.Context, list sqlcgen.UpsertWordListParams, entries []sqlcgen.InsertWordEntryParams) error
}

// Service resolves word lists: embedded default, then cache, then Postgres.
type Service struct {
	repo   listStore
	cache  ListCache
	logger zerolog.Logger
}

// NewService wires the list sources. repo and cache may be nil.
func NewService(repo listStore, cache ListCache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger.With().Str("component", "words").Logger(),
	}
}

// List returns the list with the given id.
func (s *Service) List(ctx context.Context, listID string) (List, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" || listID == DefaultListID {
		return Default()
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, listID); err != nil {
			s.logger.Warn().Err(err).Str("list_id", listID).Msg("word list cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	list, err := s.load(ctx, listID)
	if err != nil {
		return List{}, err
	}
	s.store(ctx, list)
	return list, nil
}

// Refresh reloads a curated list from Postgres and rewrites its cache entry.
func (s *Service) Refresh(ctx context.Context, listID string) (List, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" || listID == DefaultListID {
		return Default()
	}
	list, err := s.load(ctx, listID)
	if err != nil {
		return List{}, err
	}
	s.store(ctx, list)
	return list, nil
}

func (s *Service) load(ctx context.Context, listID string) (List, error) {
	if s.repo == nil {
		return List{}, ErrListNotFound
	}
	header, rows, err := s.repo.GetList(ctx, listID)
	if errors.Is(err, repository.ErrNotFound) {
		return List{}, ErrListNotFound
	}
	if err != nil {
		return List{}, fmt.Errorf("load word list %s: %w", listID, err)
	}

	list := List{
		ID:       header.ListID,
		Name:     header.Name,
		Language: header.Language,
		Entries: Validate(lo.Map(rows, func(r sqlcgen.WordEntry, _ int) answers.WordEntry {
			return answers.WordEntry{Word: r.Word, Answer: r.Answer, WrongAnswers: r.WrongAnswers}
		})),
	}
	if len(list.Entries) == 0 {
		return List{}, ErrEmptyList
	}
	return list, nil
}

func (s *Service) store(ctx context.Context, list List) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, list); err != nil {
		s.logger.Warn().Err(err).Str("list_id", list.ID).Msg("word list cache write failed")
	}
}

// Save validates and stores a curated list, replacing any previous version.
func (s *Service) Save(ctx context.Context, list List) (List, error) {
	list.ID = strings.TrimSpace(list.ID)
	if list.ID == "" || list.ID == DefaultListID {
		return List{}, ErrReadOnlyList
	}
	if s.repo == nil {
		return List{}, errors.New("word list storage is not configured")
	}
	list.Entries = Validate(list.Entries)
	if len(list.Entries) == 0 {
		return List{}, ErrEmptyList
	}
	if list.Language == "" {
		list.Language = "es"
	}
	if list.Name == "" {
		list.Name = list.ID
	}

	rows := lo.Map(list.Entries, func(e answers.WordEntry, _ int) sqlcgen.InsertWordEntryParams {
		return sqlcgen.InsertWordEntryParams{Word: e.Word, Answer: e.Answer, WrongAnswers: e.WrongAnswers}
	})
	header := sqlcgen.UpsertWordListParams{ListID: list.ID, Name: list.Name, Language: list.Language}
	if err := s.repo.ReplaceList(ctx, header, rows); err != nil {
		return List{}, fmt.Errorf("save word list %s: %w", list.ID, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, list.ID); err != nil {
			s.logger.Warn().Err(err).Str("list_id", list.ID).Msg("word list cache invalidation failed")
		}
	}
	s.logger.Info().Str("list_id", list.ID).Int("entries", len(list.Entries)).Msg("word list saved")
	return list, nil
}

func cloneEntries(in []answers.WordEntry) []answers.WordEntry {
	out := make([]answers.WordEntry, len(in))
	for i, e := range in {
		e.WrongAnswers = append([]string(nil), e.WrongAnswers...)
		out[i] = e
	}
	return out
}

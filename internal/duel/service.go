package duel

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/crypto/blake2b"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
	"github.com/gokatarajesh/word-duel/internal/duel/anagram"
	"github.com/gokatarajesh/word-duel/internal/duel/answers"
	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
	"github.com/gokatarajesh/word-duel/internal/duel/hint"
	"github.com/gokatarajesh/word-duel/internal/duel/scoring"
	"github.com/gokatarajesh/word-duel/internal/duel/seeded"
	"github.com/gokatarajesh/word-duel/internal/leaderboard"
	"github.com/gokatarajesh/word-duel/internal/metrics"
	"github.com/gokatarajesh/word-duel/internal/words"
)

// WordSource resolves word lists by id.
type WordSource interface {
	List(ctx context.Context, listID string) (words.List, error)
}

// ResultStore persists completed duels.
type ResultStore interface {
	SaveResult(ctx context.Context, params sqlcgen.InsertDuelResultParams) error
}

// LeaderboardRecorder receives per-player results of completed duels.
type LeaderboardRecorder interface {
	RecordResult(ctx context.Context, req leaderboard.RecordRequest) error
}

// Options configures duel defaults.
type Options struct {
	QuestionCount      int
	PerQuestionSeconds int
	Mode               Mode
	Preset             difficulty.Preset
	SabotageDuration   time.Duration
	SabotagesPerPlayer int
	SeedSalt           []byte
	Scoring            scoring.Config
	Now                func() time.Time
}

// MaxQuestions caps the length of one duel.
const MaxQuestions = 100

func (o Options) withDefaults() Options {
	if o.QuestionCount <= 0 {
		o.QuestionCount = 10
	}
	o.QuestionCount = min(o.QuestionCount, MaxQuestions)
	if o.PerQuestionSeconds <= 0 {
		o.PerQuestionSeconds = 15
	}
	if o.Mode == "" {
		o.Mode = ModeChoice
	}
	if o.Preset == "" {
		o.Preset = difficulty.DefaultPreset
	}
	if o.SabotageDuration <= 0 {
		o.SabotageDuration = 5 * time.Second
	}
	if o.SabotagesPerPlayer < 0 {
		o.SabotagesPerPlayer = 0
	}
	if o.Scoring == (scoring.Config{}) {
		o.Scoring = scoring.DefaultConfig()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service orchestrates the duel lifecycle: creation, questions, answers, hints,
// sabotage and completion.
type Service struct {
	store       Store
	words       WordSource
	results     ResultStore
	leaderboard LeaderboardRecorder
	metrics     *metrics.Collector
	engine      *scoring.Engine
	opts        Options
	logger      zerolog.Logger
}

// NewService creates a duel service. results, lb and m may be nil.
func NewService(store Store, words WordSource, results ResultStore, lb LeaderboardRecorder, m *metrics.Collector, opts Options, logger zerolog.Logger) *Service {
	opts = opts.withDefaults()
	return &Service{
		store:       store,
		words:       words,
		results:     results,
		leaderboard: lb,
		metrics:     m,
		engine:      scoring.NewEngine(opts.Scoring),
		opts:        opts,
		logger:      logger.With().Str("component", "duel_service").Logger(),
	}
}

// Options returns the effective defaults.
func (s *Service) Options() Options {
	return s.opts
}

// CreateDuel starts a duel between two users on a word list.
func (s *Service) CreateDuel(ctx context.Context, req CreateRequest) (*Record, error) {
	if req.ChallengerID == uuid.Nil || req.OpponentID == uuid.Nil {
		return nil, ErrMissingUser
	}
	if req.ChallengerID == req.OpponentID {
		return nil, ErrSameUser
	}

	mode := req.Mode
	if mode == "" {
		mode = s.opts.Mode
	}
	if mode != ModeChoice && mode != ModeAnagram {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	preset := s.opts.Preset
	if req.Preset != "" {
		p, err := difficulty.ParsePreset(req.Preset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
		}
		preset = p
	}

	list, err := s.words.List(ctx, req.WordListID)
	if err != nil {
		return nil, fmt.Errorf("load word list: %w", err)
	}
	entries := playableEntries(list.Entries, mode)
	if len(entries) == 0 {
		return nil, ErrNotEnoughWords
	}

	id := uuid.New()
	now := s.opts.Now().UTC()
	seed := s.newSeed(id, list.ID, now)

	count := req.QuestionCount
	if count <= 0 {
		count = s.opts.QuestionCount
	}
	count = min(count, len(entries), MaxQuestions)
	picked := seeded.Shuffle(entries, seeded.HashSeed(seed))[:count]

	rec := &Record{
		ID:                 id,
		Seed:               seed,
		Mode:               mode,
		Preset:             preset,
		WordListID:         list.ID,
		Words:              picked,
		Distribution:       difficulty.Classic(count, preset),
		PerQuestionSeconds: s.opts.PerQuestionSeconds,
		Status:             StatusActive,
		CurrentIndex:       0,
		QuestionStartedAt:  now,
		Challenger:         s.newParticipant(req.ChallengerID, req.ChallengerDisplayName),
		Opponent:           s.newParticipant(req.OpponentID, req.OpponentDisplayName),
		EliminatedOptions:  []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store duel: %w", err)
	}

	s.metrics.DuelCreated(string(mode), string(preset))
	s.logger.Info().
		Str("duel_id", id.String()).
		Str("mode", string(mode)).
		Str("preset", string(preset)).
		Str("word_list_id", list.ID).
		Int("questions", count).
		Msg("duel created")

	return rec, nil
}

// Get returns the current record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Get(ctx, id)
}

// Question renders the current question for viewer.
func (s *Service) Question(ctx context.Context, id, viewer uuid.UUID) (*QuestionView, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role := rec.RoleOf(viewer)
	if role == "" {
		return nil, ErrNotParticipant
	}
	if rec.Status != StatusActive {
		return nil, ErrDuelNotActive
	}
	return s.questionView(rec, role, s.opts.Now()), nil
}

func (s *Service) questionView(rec *Record, role hint.Role, now time.Time) *QuestionView {
	idx := rec.CurrentIndex
	entry := rec.Words[idx]

	view := &QuestionView{
		DuelID:           rec.ID,
		Index:            idx,
		Total:            rec.QuestionCount(),
		Level:            difficulty.ForIndex(idx, rec.Distribution),
		Prompt:           entry.Word,
		Eliminated:       []string{},
		RemainingSeconds: remainingSeconds(rec.Deadline(), now),
	}

	switch rec.Mode {
	case ModeAnagram:
		view.Letters = anagram.GenerateLetters(entry.Answer, letterSeed(rec))
		view.Hint = hint.State{EliminatedOptions: []string{}}
	default:
		view.Options = currentOptions(rec).Answers
		view.Hint = hint.Derive(rec.HintSnapshot(), role)
		view.Eliminated = view.Hint.EliminatedOptions
	}

	view.Sabotage = rec.ActiveSabotage(role, now)
	return view
}

// SubmitAnswer grades userID's answer to question index. Answers after the
// question deadline are recorded as late and wrong. The duel advances once both
// sides have answered.
func (s *Service) SubmitAnswer(ctx context.Context, id, userID uuid.UUID, index int, answer string) (*Record, AnswerResult, error) {
	var (
		result    AnswerResult
		level     difficulty.Level
		completed bool
	)

	rec, err := s.store.Mutate(ctx, id, func(rec *Record) error {
		role, err := activeRole(rec, userID)
		if err != nil {
			return err
		}
		if index != rec.CurrentIndex {
			return ErrStaleQuestion
		}
		p := rec.Participant(role)
		if p.Answered {
			return ErrAlreadyAnswered
		}

		now := s.opts.Now().UTC()
		level = difficulty.ForIndex(index, rec.Distribution)
		late := !now.Before(rec.Deadline())
		correct := !late && isCorrect(rec, answer)
		points := 0.0
		if correct {
			points = s.engine.PointsFor(level)
		}

		p.Answered = true
		p.Score += points
		p.Answers = append(p.Answers, AnswerRecord{
			Index:       index,
			Answer:      answer,
			Correct:     correct,
			Late:        late,
			Points:      points,
			SubmittedAt: now,
		})
		rec.UpdatedAt = now

		result = AnswerResult{Index: index, Correct: correct, Late: late, Points: points, Received: now}
		if rec.Challenger.Answered && rec.Opponent.Answered {
			result.Advanced = true
			completed = s.advanceLocked(rec, now)
			result.Complete = completed
		}
		return nil
	})
	if err != nil {
		return nil, AnswerResult{}, err
	}

	s.metrics.Answer(string(level), result.Correct, result.Late)
	if completed {
		s.completed(ctx, rec)
	}
	return rec, result, nil
}

var errNotDue = errors.New("question still open")

// Advance closes the current question if both sides answered or its timer ran
// out, recording a late miss for anyone who did not answer. The returned flag
// reports whether the duel moved on.
func (s *Service) Advance(ctx context.Context, id uuid.UUID) (*Record, bool, error) {
	var (
		missed    []difficulty.Level
		completed bool
	)

	rec, err := s.store.Mutate(ctx, id, func(rec *Record) error {
		if rec.Status != StatusActive {
			return ErrDuelNotActive
		}
		now := s.opts.Now().UTC()
		bothAnswered := rec.Challenger.Answered && rec.Opponent.Answered
		if !bothAnswered && now.Before(rec.Deadline()) {
			return errNotDue
		}

		level := difficulty.ForIndex(rec.CurrentIndex, rec.Distribution)
		for _, p := range []*Participant{&rec.Challenger, &rec.Opponent} {
			if p.Answered {
				continue
			}
			p.Answers = append(p.Answers, AnswerRecord{
				Index:       rec.CurrentIndex,
				Late:        true,
				SubmittedAt: now,
			})
			missed = append(missed, level)
		}
		completed = s.advanceLocked(rec, now)
		return nil
	})
	if errors.Is(err, errNotDue) {
		rec, err = s.store.Get(ctx, id)
		return rec, false, err
	}
	if err != nil {
		return nil, false, err
	}

	for _, level := range missed {
		s.metrics.Answer(string(level), false, true)
	}
	if completed {
		s.completed(ctx, rec)
	}
	return rec, true, nil
}

// Finalize ends an active duel early, scoring unanswered questions as missed.
// Finalizing a completed duel returns it unchanged.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*Record, error) {
	var transitioned bool
	rec, err := s.store.Mutate(ctx, id, func(rec *Record) error {
		switch rec.Status {
		case StatusCompleted:
			return nil
		case StatusActive:
			s.complete(rec, s.opts.Now().UTC())
			transitioned = true
			return nil
		default:
			return ErrDuelNotActive
		}
	})
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.completed(ctx, rec)
	}
	return rec, nil
}

// Cancel abandons an active duel on behalf of a participant. Cancelled duels are
// not scored.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID) (*Record, error) {
	rec, err := s.store.Mutate(ctx, id, func(rec *Record) error {
		if _, err := activeRole(rec, userID); err != nil {
			return err
		}
		now := s.opts.Now().UTC()
		rec.Status = StatusCancelled
		rec.UpdatedAt = now
		rec.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("duel_id", id.String()).Str("user_id", userID.String()).Msg("duel cancelled")
	return rec, nil
}

// advanceLocked moves rec past its current question and reports whether that
// completed the duel.
func (s *Service) advanceLocked(rec *Record, now time.Time) bool {
	rec.CurrentIndex++
	rec.UpdatedAt = now
	if rec.CurrentIndex >= rec.QuestionCount() {
		rec.CurrentIndex = rec.QuestionCount() - 1
		s.complete(rec, now)
		return true
	}

	rec.QuestionStartedAt = now
	rec.Challenger.Answered = false
	rec.Opponent.Answered = false
	rec.HintRequestedBy = ""
	rec.HintAccepted = false
	rec.EliminatedOptions = []string{}
	return false
}

func (s *Service) complete(rec *Record, now time.Time) {
	challenger := s.summarize(rec, &rec.Challenger)
	opponent := s.summarize(rec, &rec.Opponent)

	out := &Outcome{Challenger: challenger, Opponent: opponent}
	switch {
	case challenger.Score > opponent.Score:
		out.Winner = hint.RoleChallenger
	case opponent.Score > challenger.Score:
		out.Winner = hint.RoleOpponent
	default:
		out.Draw = true
	}

	rec.Status = StatusCompleted
	rec.Outcome = out
	rec.UpdatedAt = now
	rec.CompletedAt = &now
	rec.Challenger.Sabotage = nil
	rec.Opponent.Sabotage = nil
}

func (s *Service) summarize(rec *Record, p *Participant) scoring.Summary {
	graded := make([]scoring.Answer, 0, len(p.Answers))
	for _, a := range p.Answers {
		graded = append(graded, scoring.Answer{Index: a.Index, Correct: a.Correct})
	}
	return s.engine.Summarize(graded, rec.Distribution)
}

// completed runs the side effects of a duel that just finished. Failures are
// logged; the record is already final.
func (s *Service) completed(ctx context.Context, rec *Record) {
	out := rec.Outcome
	s.metrics.DuelCompleted(out.Draw)

	if s.results != nil {
		if err := s.results.SaveResult(ctx, resultParams(rec)); err != nil {
			s.logger.Warn().Err(err).Str("duel_id", rec.ID.String()).Msg("failed to persist duel result")
		}
	}

	if s.leaderboard != nil {
		for _, role := range []hint.Role{hint.RoleChallenger, hint.RoleOpponent} {
			p := rec.Participant(role)
			summary := out.Challenger
			if role == hint.RoleOpponent {
				summary = out.Opponent
			}
			req := leaderboard.RecordRequest{
				UserID:        p.UserID,
				DisplayName:   p.DisplayName,
				Score:         summary.Score,
				CorrectCount:  summary.Correct,
				QuestionCount: rec.QuestionCount(),
				Won:           out.Winner == role,
				DuelID:        rec.ID,
			}
			if err := s.leaderboard.RecordResult(ctx, req); err != nil {
				s.logger.Warn().Err(err).Str("user_id", p.UserID.String()).Msg("failed to record leaderboard result")
			}
		}
	}

	s.logger.Info().
		Str("duel_id", rec.ID.String()).
		Str("winner", string(out.Winner)).
		Bool("draw", out.Draw).
		Float64("challenger_score", out.Challenger.Score).
		Float64("opponent_score", out.Opponent.Score).
		Msg("duel completed")
}

func resultParams(rec *Record) sqlcgen.InsertDuelResultParams {
	out := rec.Outcome
	summary, _ := json.Marshal(out)

	params := sqlcgen.InsertDuelResultParams{
		DuelID:          pgtype.UUID{Bytes: rec.ID, Valid: true},
		Mode:            string(rec.Mode),
		Preset:          string(rec.Preset),
		WordListID:      rec.WordListID,
		QuestionCount:   int16(rec.QuestionCount()),
		ChallengerID:    pgtype.UUID{Bytes: rec.Challenger.UserID, Valid: true},
		OpponentID:      pgtype.UUID{Bytes: rec.Opponent.UserID, Valid: true},
		ChallengerScore: out.Challenger.Score,
		OpponentScore:   out.Opponent.Score,
		Summary:         summary,
		StartedAt:       pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
	}
	if out.Winner != "" {
		params.WinnerID = pgtype.UUID{Bytes: rec.Participant(out.Winner).UserID, Valid: true}
	}
	if rec.CompletedAt != nil {
		params.CompletedAt = pgtype.Timestamptz{Time: *rec.CompletedAt, Valid: true}
	}
	return params
}

func (s *Service) newParticipant(userID uuid.UUID, displayName string) Participant {
	return Participant{
		UserID:        userID,
		DisplayName:   displayName,
		Answers:       []AnswerRecord{},
		SabotagesLeft: s.opts.SabotagesPerPlayer,
	}
}

// newSeed derives the duel seed from its identity. A configured salt keys the hash.
func (s *Service) newSeed(id uuid.UUID, listID string, createdAt time.Time) string {
	key := s.opts.SeedSalt
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// Only reachable with an oversized key, which is folded above.
		panic(err)
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAt.UnixNano()))

	h.Write(id[:])
	h.Write([]byte(listID))
	h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// activeRole checks the duel is running and userID plays in it.
func activeRole(rec *Record, userID uuid.UUID) (hint.Role, error) {
	role := rec.RoleOf(userID)
	if role == "" {
		return "", ErrNotParticipant
	}
	if rec.Status != StatusActive {
		return "", ErrDuelNotActive
	}
	return role, nil
}

// playableEntries drops entries that cannot produce a question in mode.
func playableEntries(entries []answers.WordEntry, mode Mode) []answers.WordEntry {
	if mode == ModeAnagram {
		return lo.Filter(entries, func(e answers.WordEntry, _ int) bool {
			return strings.TrimSpace(e.Answer) != ""
		})
	}
	return lo.Filter(entries, func(e answers.WordEntry, _ int) bool {
		return len(lo.Without(lo.Uniq(e.WrongAnswers), e.Answer)) > 0
	})
}

func currentOptions(rec *Record) answers.Result {
	idx := rec.CurrentIndex
	return answers.Shuffle(rec.Words[idx], idx, rec.Distribution.ParamsAt(idx))
}

func letterSeed(rec *Record) uint32 {
	return seeded.HashSeed(rec.Seed + ":" + strconv.Itoa(rec.CurrentIndex))
}

func isCorrect(rec *Record, answer string) bool {
	entry := rec.Words[rec.CurrentIndex]
	if rec.Mode == ModeAnagram {
		return strings.EqualFold(compact(answer), compact(entry.Answer))
	}
	return answer == currentOptions(rec).Correct(entry.Answer)
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func remainingSeconds(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

package duel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
	"github.com/gokatarajesh/word-duel/internal/duel/answers"
	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
	"github.com/gokatarajesh/word-duel/internal/duel/hint"
	"github.com/gokatarajesh/word-duel/internal/leaderboard"
	"github.com/gokatarajesh/word-duel/internal/words"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeWords struct {
	lists map[string]words.List
}

func (f *fakeWords) List(_ context.Context, id string) (words.List, error) {
	l, ok := f.lists[id]
	if !ok {
		return words.List{}, words.ErrListNotFound
	}
	return l, nil
}

type fakeResults struct {
	mu    sync.Mutex
	saved []sqlcgen.InsertDuelResultParams
}

func (f *fakeResults) SaveResult(_ context.Context, p sqlcgen.InsertDuelResultParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p)
	return nil
}

type fakeLeaderboard struct {
	mu       sync.Mutex
	recorded []leaderboard.RecordRequest
}

func (f *fakeLeaderboard) RecordResult(_ context.Context, req leaderboard.RecordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, req)
	return nil
}

func testEntries(n int) []answers.WordEntry {
	out := make([]answers.WordEntry, n)
	for i := range out {
		out[i] = answers.WordEntry{
			Word:   fmt.Sprintf("palabra%d", i),
			Answer: fmt.Sprintf("word%d", i),
			WrongAnswers: []string{
				fmt.Sprintf("wrong%d-a", i),
				fmt.Sprintf("wrong%d-b", i),
				fmt.Sprintf("wrong%d-c", i),
				fmt.Sprintf("wrong%d-d", i),
			},
		}
	}
	return out
}

type fixture struct {
	svc     *Service
	store   *MemoryStore
	clock   *fakeClock
	results *fakeResults
	lb      *fakeLeaderboard
	a, b    uuid.UUID
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:   NewMemoryStore(),
		clock:   &fakeClock{t: time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)},
		results: &fakeResults{},
		lb:      &fakeLeaderboard{},
		a:       uuid.New(),
		b:       uuid.New(),
	}
	src := &fakeWords{lists: map[string]words.List{
		"test": {ID: "test", Name: "Test", Entries: testEntries(12)},
		"long": {ID: "long", Name: "Long", Entries: testEntries(MaxQuestions + 50)},
		"bare": {ID: "bare", Entries: []answers.WordEntry{
			{Word: "sol", Answer: "sun"},
			{Word: "luna", Answer: "moon", WrongAnswers: []string{"moon"}},
		}},
	}}
	opts.Now = f.clock.Now
	f.svc = NewService(f.store, src, f.results, f.lb, nil, opts, zerolog.Nop())
	return f
}

func (f *fixture) create(t *testing.T, req CreateRequest) *Record {
	t.Helper()
	req.ChallengerID, req.OpponentID = f.a, f.b
	req.ChallengerDisplayName, req.OpponentDisplayName = "ana", "ben"
	if req.WordListID == "" {
		req.WordListID = "test"
	}
	rec, err := f.svc.CreateDuel(context.Background(), req)
	require.NoError(t, err)
	return rec
}

func winning(rec *Record) string {
	return currentOptions(rec).Correct(rec.Words[rec.CurrentIndex].Answer)
}

func wrongOptions(rec *Record) []string {
	win := winning(rec)
	var out []string
	for _, o := range currentOptions(rec).Answers {
		if o != win {
			out = append(out, o)
		}
	}
	return out
}

func TestCreateDuelDefaults(t *testing.T) {
	f := newFixture(t, Options{SabotagesPerPlayer: 2})
	rec := f.create(t, CreateRequest{})

	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, ModeChoice, rec.Mode)
	assert.Equal(t, difficulty.PresetEasy, rec.Preset)
	assert.Len(t, rec.Words, 10)
	assert.Equal(t, difficulty.Classic(10, difficulty.PresetEasy), rec.Distribution)
	assert.Len(t, rec.Seed, 32)
	assert.Equal(t, 0, rec.CurrentIndex)
	assert.Equal(t, 15, rec.PerQuestionSeconds)
	assert.Equal(t, 2, rec.Challenger.SabotagesLeft)
	assert.Equal(t, hint.RoleOpponent, rec.RoleOf(f.b))

	stored, err := f.svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Words, stored.Words)
}

func TestCreateDuelTruncatesToAvailableWords(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{QuestionCount: 50, Preset: "hard"})

	assert.Len(t, rec.Words, 12)
	assert.Equal(t, 12, rec.Distribution.Hard)
}

func TestCreateDuelSeedsDiffer(t *testing.T) {
	f := newFixture(t, Options{SeedSalt: []byte("pepper")})
	first := f.create(t, CreateRequest{})
	second := f.create(t, CreateRequest{})
	assert.NotEqual(t, first.Seed, second.Seed)
}

func TestCreateDuelCapsQuestionCount(t *testing.T) {
	f := newFixture(t, Options{QuestionCount: 40000})
	assert.Equal(t, MaxQuestions, f.svc.Options().QuestionCount)

	rec := f.create(t, CreateRequest{WordListID: "long", QuestionCount: 40000})
	assert.Len(t, rec.Words, MaxQuestions)
	assert.Equal(t, MaxQuestions, rec.Distribution.Total)
	assert.Equal(t, int16(MaxQuestions), resultParams(&Record{Words: rec.Words, Outcome: &Outcome{}}).QuestionCount)
}

func TestCreateDuelValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.CreateDuel(ctx, CreateRequest{ChallengerID: f.a, OpponentID: f.a, WordListID: "test"})
	assert.ErrorIs(t, err, ErrSameUser)

	_, err = f.svc.CreateDuel(ctx, CreateRequest{ChallengerID: f.a, WordListID: "test"})
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = f.svc.CreateDuel(ctx, CreateRequest{ChallengerID: f.a, OpponentID: f.b, Mode: "speed", WordListID: "test"})
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = f.svc.CreateDuel(ctx, CreateRequest{ChallengerID: f.a, OpponentID: f.b, Preset: "brutal", WordListID: "test"})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	_, err = f.svc.CreateDuel(ctx, CreateRequest{ChallengerID: f.a, OpponentID: f.b, WordListID: "missing"})
	assert.ErrorIs(t, err, words.ErrListNotFound)

	_, err = f.svc.CreateDuel(ctx, CreateRequest{ChallengerID: f.a, OpponentID: f.b, WordListID: "bare"})
	assert.ErrorIs(t, err, ErrNotEnoughWords)
}

func TestCreateDuelAnagramAcceptsEntriesWithoutDecoys(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{Mode: ModeAnagram, WordListID: "bare"})
	assert.Len(t, rec.Words, 2)
}

func TestQuestionView(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	view, err := f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 10, view.Total)
	assert.Equal(t, difficulty.LevelEasy, view.Level)
	assert.Equal(t, rec.Words[0].Word, view.Prompt)
	assert.Len(t, view.Options, 3)
	assert.Contains(t, view.Options, rec.Words[0].Answer)
	assert.Empty(t, view.Letters)
	assert.Equal(t, 15, view.RemainingSeconds)

	f.clock.Advance(10*time.Second + 500*time.Millisecond)
	view, err = f.svc.Question(ctx, rec.ID, f.b)
	require.NoError(t, err)
	assert.Equal(t, 5, view.RemainingSeconds)

	_, err = f.svc.Question(ctx, rec.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.Question(ctx, uuid.New(), f.a)
	assert.ErrorIs(t, err, ErrDuelNotFound)
}

func TestQuestionViewAnagram(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{Mode: ModeAnagram})

	view, err := f.svc.Question(context.Background(), rec.ID, f.a)
	require.NoError(t, err)
	assert.Empty(t, view.Options)

	got := append([]string(nil), view.Letters...)
	want := strings.Split(rec.Words[0].Answer, "")
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)

	again, err := f.svc.Question(context.Background(), rec.ID, f.b)
	require.NoError(t, err)
	assert.Equal(t, view.Letters, again.Letters)
}

func TestSubmitAnswerFlow(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	_, res, err := f.svc.SubmitAnswer(ctx, rec.ID, f.a, 0, winning(rec))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.False(t, res.Late)
	assert.Equal(t, 1.0, res.Points)
	assert.False(t, res.Advanced)

	_, _, err = f.svc.SubmitAnswer(ctx, rec.ID, f.a, 0, winning(rec))
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	_, _, err = f.svc.SubmitAnswer(ctx, rec.ID, f.b, 1, "x")
	assert.ErrorIs(t, err, ErrStaleQuestion)

	_, _, err = f.svc.SubmitAnswer(ctx, rec.ID, uuid.New(), 0, "x")
	assert.ErrorIs(t, err, ErrNotParticipant)

	after, res, err := f.svc.SubmitAnswer(ctx, rec.ID, f.b, 0, wrongOptions(rec)[0])
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.True(t, res.Advanced)
	assert.False(t, res.Complete)
	assert.Equal(t, 1, after.CurrentIndex)
	assert.False(t, after.Challenger.Answered)
	assert.False(t, after.Opponent.Answered)
	assert.Equal(t, 1.0, after.Challenger.Score)
	assert.Equal(t, 0.0, after.Opponent.Score)
}

func TestSubmitAnswerLateCountsAsWrong(t *testing.T) {
	f := newFixture(t, Options{PerQuestionSeconds: 10})
	rec := f.create(t, CreateRequest{})

	f.clock.Advance(10 * time.Second)
	_, res, err := f.svc.SubmitAnswer(context.Background(), rec.ID, f.a, 0, winning(rec))
	require.NoError(t, err)
	assert.True(t, res.Late)
	assert.False(t, res.Correct)
	assert.Zero(t, res.Points)
}

func TestAnagramAnswerIgnoresCaseAndSpacing(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{Mode: ModeAnagram})
	answer := rec.Words[0].Answer

	_, res, err := f.svc.SubmitAnswer(context.Background(), rec.ID, f.a, 0, " "+strings.ToUpper(answer))
	require.NoError(t, err)
	assert.True(t, res.Correct)

	_, res, err = f.svc.SubmitAnswer(context.Background(), rec.ID, f.b, 0, answer+"x")
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestDuelRunsToCompletion(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{QuestionCount: 3})
	ctx := context.Background()
	require.Equal(t, 1, rec.Distribution.Hard)

	var res AnswerResult
	for i := 0; i < 3; i++ {
		var err error
		rec, _, err = f.svc.SubmitAnswer(ctx, rec.ID, f.a, i, winning(rec))
		require.NoError(t, err)
		rec, res, err = f.svc.SubmitAnswer(ctx, rec.ID, f.b, i, "definitely wrong")
		require.NoError(t, err)
	}

	assert.True(t, res.Complete)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.Outcome)
	assert.Equal(t, hint.RoleChallenger, rec.Outcome.Winner)
	assert.False(t, rec.Outcome.Draw)
	assert.Equal(t, 3.5, rec.Outcome.Challenger.Score)
	assert.Equal(t, 3.5, rec.Outcome.Challenger.MaxScore)
	assert.Equal(t, 100, rec.Outcome.Challenger.SuccessRate)
	assert.Equal(t, 0, rec.Outcome.Opponent.Accuracy)
	assert.NotNil(t, rec.CompletedAt)

	require.Len(t, f.results.saved, 1)
	saved := f.results.saved[0]
	assert.Equal(t, [16]byte(f.a), saved.WinnerID.Bytes)
	assert.Equal(t, int16(3), saved.QuestionCount)
	assert.Equal(t, 3.5, saved.ChallengerScore)

	require.Len(t, f.lb.recorded, 2)
	assert.True(t, f.lb.recorded[0].Won)
	assert.False(t, f.lb.recorded[1].Won)
	assert.Equal(t, rec.ID, f.lb.recorded[0].DuelID)

	_, _, err := f.svc.SubmitAnswer(ctx, rec.ID, f.a, 2, "late")
	assert.ErrorIs(t, err, ErrDuelNotActive)
}

func TestDrawLeavesWinnerEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{QuestionCount: 1})
	ctx := context.Background()

	_, _, err := f.svc.SubmitAnswer(ctx, rec.ID, f.a, 0, winning(rec))
	require.NoError(t, err)
	rec, _, err = f.svc.SubmitAnswer(ctx, rec.ID, f.b, 0, winning(rec))
	require.NoError(t, err)

	assert.True(t, rec.Outcome.Draw)
	assert.Empty(t, rec.Outcome.Winner)
	require.Len(t, f.results.saved, 1)
	assert.False(t, f.results.saved[0].WinnerID.Valid)
}

func TestAdvanceOnTimeout(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	_, moved, err := f.svc.Advance(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, moved)

	_, _, err = f.svc.SubmitAnswer(ctx, rec.ID, f.a, 0, winning(rec))
	require.NoError(t, err)

	f.clock.Advance(15 * time.Second)
	after, moved, err := f.svc.Advance(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, after.CurrentIndex)
	require.Len(t, after.Opponent.Answers, 1)
	assert.True(t, after.Opponent.Answers[0].Late)
	assert.Len(t, after.Challenger.Answers, 1)
	assert.True(t, f.clock.Now().Equal(after.QuestionStartedAt))
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	_, _, err := f.svc.SubmitAnswer(ctx, rec.ID, f.b, 0, winning(rec))
	require.NoError(t, err)

	done, err := f.svc.Finalize(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, hint.RoleOpponent, done.Outcome.Winner)
	assert.Equal(t, 1, done.Outcome.Opponent.Answered)

	again, err := f.svc.Finalize(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, done.Outcome, again.Outcome)
	assert.Len(t, f.results.saved, 1)
	assert.Len(t, f.lb.recorded, 2)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, rec.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotParticipant)

	cancelled, err := f.svc.Cancel(ctx, rec.ID, f.b)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = f.svc.Finalize(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrDuelNotActive)
	assert.Empty(t, f.results.saved)
}

func TestConcurrentAnswersAdvanceOnce(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	var wg sync.WaitGroup
	advanced := make(chan bool, 2)
	for _, user := range []uuid.UUID{f.a, f.b} {
		wg.Add(1)
		go func(user uuid.UUID) {
			defer wg.Done()
			_, res, err := f.svc.SubmitAnswer(ctx, rec.ID, user, 0, winning(rec))
			assert.NoError(t, err)
			advanced <- res.Advanced
		}(user)
	}
	wg.Wait()
	close(advanced)

	count := 0
	for a := range advanced {
		if a {
			count++
		}
	}
	assert.Equal(t, 1, count)

	after, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.CurrentIndex)
}

func TestHintExchange(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	_, err := f.svc.RequestHint(ctx, rec.ID, f.b)
	assert.ErrorIs(t, err, ErrHintNotAllowed, "nobody answered yet")

	_, _, err = f.svc.SubmitAnswer(ctx, rec.ID, f.a, 0, winning(rec))
	require.NoError(t, err)

	_, err = f.svc.RequestHint(ctx, rec.ID, f.a)
	assert.ErrorIs(t, err, ErrHintNotAllowed, "answered player cannot ask")

	_, err = f.svc.AcceptHint(ctx, rec.ID, f.a)
	assert.ErrorIs(t, err, ErrHintNotAllowed, "nothing to accept")

	after, err := f.svc.RequestHint(ctx, rec.ID, f.b)
	require.NoError(t, err)
	assert.Equal(t, hint.RoleOpponent, after.HintRequestedBy)

	_, err = f.svc.RequestHint(ctx, rec.ID, f.b)
	assert.ErrorIs(t, err, ErrHintNotAllowed)

	_, err = f.svc.AcceptHint(ctx, rec.ID, f.b)
	assert.ErrorIs(t, err, ErrHintNotAllowed)

	_, err = f.svc.EliminateOption(ctx, rec.ID, f.a, wrongOptions(rec)[0])
	assert.ErrorIs(t, err, ErrHintNotAllowed, "must accept first")

	_, err = f.svc.AcceptHint(ctx, rec.ID, f.a)
	require.NoError(t, err)

	_, err = f.svc.EliminateOption(ctx, rec.ID, f.a, winning(rec))
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = f.svc.EliminateOption(ctx, rec.ID, f.a, "not an option")
	assert.ErrorIs(t, err, ErrInvalidOption)

	wrong := wrongOptions(rec)
	require.Len(t, wrong, 2)
	_, err = f.svc.EliminateOption(ctx, rec.ID, f.a, wrong[0])
	require.NoError(t, err)
	_, err = f.svc.EliminateOption(ctx, rec.ID, f.a, wrong[0])
	assert.ErrorIs(t, err, ErrInvalidOption)
	after, err = f.svc.EliminateOption(ctx, rec.ID, f.a, wrong[1])
	require.NoError(t, err)
	assert.Equal(t, wrong, after.EliminatedOptions)

	view, err := f.svc.Question(ctx, rec.ID, f.b)
	require.NoError(t, err)
	assert.True(t, view.Hint.IRequestedHint)
	assert.Equal(t, wrong, view.Eliminated)

	provider, err := f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	assert.True(t, provider.Hint.IsHintProvider)
	assert.False(t, provider.Hint.CanEliminate)

	next, _, err := f.svc.SubmitAnswer(ctx, rec.ID, f.b, 0, winning(rec))
	require.NoError(t, err)
	assert.Empty(t, next.HintRequestedBy)
	assert.False(t, next.HintAccepted)
	assert.Empty(t, next.EliminatedOptions)
}

func TestHintsRequireChoiceMode(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.create(t, CreateRequest{Mode: ModeAnagram})
	ctx := context.Background()

	_, _, err := f.svc.SubmitAnswer(ctx, rec.ID, f.a, 0, rec.Words[0].Answer)
	require.NoError(t, err)

	_, err = f.svc.RequestHint(ctx, rec.ID, f.b)
	assert.ErrorIs(t, err, ErrHintNotAllowed)
}

func TestTriggerSabotage(t *testing.T) {
	f := newFixture(t, Options{SabotagesPerPlayer: 2, SabotageDuration: 5 * time.Second})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()

	_, err := f.svc.TriggerSabotage(ctx, rec.ID, f.a, "explode")
	assert.ErrorIs(t, err, ErrUnknownSabotage)

	after, err := f.svc.TriggerSabotage(ctx, rec.ID, f.a, SabotageBlur)
	require.NoError(t, err)
	require.NotNil(t, after.Opponent.Sabotage)
	assert.Equal(t, hint.RoleOpponent, after.Opponent.Sabotage.Target)
	assert.Nil(t, after.Challenger.Sabotage)
	assert.Equal(t, 1, after.Challenger.SabotagesLeft)

	_, err = f.svc.TriggerSabotage(ctx, rec.ID, f.a, SabotageShake)
	assert.ErrorIs(t, err, ErrSabotageUnavailable, "target still affected")

	target, err := f.svc.Question(ctx, rec.ID, f.b)
	require.NoError(t, err)
	require.NotNil(t, target.Sabotage)
	assert.Equal(t, SabotageBlur, target.Sabotage.Kind)

	caster, err := f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	assert.Nil(t, caster.Sabotage)

	f.clock.Advance(5 * time.Second)
	_, err = f.svc.TriggerSabotage(ctx, rec.ID, f.a, SabotageShrink)
	require.NoError(t, err)

	_, err = f.svc.TriggerSabotage(ctx, rec.ID, f.a, SabotageInvert)
	assert.ErrorIs(t, err, ErrSabotageUnavailable, "none left")
}

func TestCounterSabotageKeepsBothEffects(t *testing.T) {
	f := newFixture(t, Options{SabotagesPerPlayer: 2, SabotageDuration: 5 * time.Second})
	rec := f.create(t, CreateRequest{})
	ctx := context.Background()
	start := f.clock.Now()

	_, err := f.svc.TriggerSabotage(ctx, rec.ID, f.b, SabotageBlur)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.svc.TriggerSabotage(ctx, rec.ID, f.a, SabotageShake)
	require.NoError(t, err, "a sabotaged player may still cast on the other")

	ana, err := f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	require.NotNil(t, ana.Sabotage)
	assert.Equal(t, SabotageBlur, ana.Sabotage.Kind)
	assert.True(t, ana.Sabotage.ExpiresAt.Equal(start.Add(5*time.Second)))

	ben, err := f.svc.Question(ctx, rec.ID, f.b)
	require.NoError(t, err)
	require.NotNil(t, ben.Sabotage)
	assert.Equal(t, SabotageShake, ben.Sabotage.Kind)

	state, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	view := state.View(hint.RoleChallenger, f.clock.Now())
	require.NotNil(t, view.Sabotage)
	assert.Equal(t, SabotageBlur, view.Sabotage.Kind)
	require.Len(t, view.Players, 2)
	assert.Equal(t, SabotageShake, view.Players[1].Sabotage.Kind)

	// Blur runs its full five seconds and then lapses while shake continues.
	f.clock.Advance(3*time.Second + 999*time.Millisecond)
	ana, err = f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	assert.NotNil(t, ana.Sabotage)

	f.clock.Advance(time.Millisecond)
	ana, err = f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	assert.Nil(t, ana.Sabotage)
	ben, err = f.svc.Question(ctx, rec.ID, f.b)
	require.NoError(t, err)
	assert.NotNil(t, ben.Sabotage)

	// Ben recasts on ana once her effect has expired.
	_, err = f.svc.TriggerSabotage(ctx, rec.ID, f.b, SabotageInvert)
	require.NoError(t, err)
	ana, err = f.svc.Question(ctx, rec.ID, f.a)
	require.NoError(t, err)
	require.NotNil(t, ana.Sabotage)
	assert.Equal(t, SabotageInvert, ana.Sabotage.Kind)
}

func TestMemoryStoreCreateRejectsDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := &Record{ID: uuid.New(), Status: StatusActive}
	require.NoError(t, store.Create(ctx, rec))

	err := store.Create(ctx, &Record{ID: rec.ID, Status: StatusCancelled})
	assert.ErrorIs(t, err, ErrDuelExists)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestMemoryStoreMutateRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := &Record{ID: uuid.New(), Status: StatusActive}
	require.NoError(t, store.Create(ctx, rec))

	boom := errors.New("boom")
	_, err := store.Mutate(ctx, rec.ID, func(r *Record) error {
		r.Status = StatusCompleted
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)

	_, err = store.Mutate(ctx, uuid.New(), func(*Record) error { return nil })
	assert.ErrorIs(t, err, ErrDuelNotFound)
}

package answers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
)

func sampleWord() WordEntry {
	return WordEntry{
		Word:         "butterfly",
		Answer:       "mariposa",
		WrongAnswers: []string{"mariquita", "abeja", "polilla", "libélula", "grillo"},
	}
}

func TestShuffleDeterministic(t *testing.T) {
	w := sampleWord()
	for _, level := range []difficulty.Level{difficulty.LevelEasy, difficulty.LevelMedium, difficulty.LevelHard} {
		params := difficulty.ParamsFor(level)
		for i := 0; i < 20; i++ {
			assert.Equal(t, Shuffle(w, i, params), Shuffle(w, i, params))
		}
	}
}

func TestShuffleEmptyWrongAnswers(t *testing.T) {
	w := WordEntry{Word: "cat", Answer: "gato"}
	res := Shuffle(w, 0, difficulty.ParamsFor(difficulty.LevelEasy))
	assert.Empty(t, res.Answers)
	assert.NotNil(t, res.Answers)
	assert.False(t, res.HasNoneOption)

	w.WrongAnswers = []string{"gato", "gato"}
	assert.Empty(t, Shuffle(w, 0, difficulty.ParamsFor(difficulty.LevelHard)).Answers)
}

func TestShuffleEasyAndMediumAlwaysContainAnswer(t *testing.T) {
	w := sampleWord()
	cases := map[difficulty.Level]int{
		difficulty.LevelEasy:   3,
		difficulty.LevelMedium: 4,
	}
	for level, size := range cases {
		for i := 0; i < 50; i++ {
			res := Shuffle(w, i, difficulty.ParamsFor(level))
			require.Len(t, res.Answers, size)
			assert.Contains(t, res.Answers, w.Answer)
			assert.NotContains(t, res.Answers, NoneOfTheAbove)
			assert.False(t, res.HasNoneOption)
		}
	}
}

func TestShuffleOptionsAreDistinctAndFromPool(t *testing.T) {
	w := sampleWord()
	w.WrongAnswers = append(w.WrongAnswers, "abeja", "mariposa")
	allowed := append([]string{w.Answer, NoneOfTheAbove}, w.WrongAnswers...)

	for i := 0; i < 50; i++ {
		res := Shuffle(w, i, difficulty.ParamsFor(difficulty.LevelHard))
		seen := map[string]bool{}
		for _, opt := range res.Answers {
			assert.False(t, seen[opt], "duplicate option %q", opt)
			seen[opt] = true
			assert.Contains(t, allowed, opt)
		}
	}
}

func TestShuffleLimitedByAvailableDecoys(t *testing.T) {
	w := WordEntry{Word: "dog", Answer: "perro", WrongAnswers: []string{"gato"}}
	res := Shuffle(w, 2, difficulty.ParamsFor(difficulty.LevelMedium))
	assert.Len(t, res.Answers, 2)
	assert.ElementsMatch(t, []string{"perro", "gato"}, res.Answers)
}

func TestShuffleHardInvariant(t *testing.T) {
	w := sampleWord()
	params := difficulty.ParamsFor(difficulty.LevelHard)
	for i := 0; i < 100; i++ {
		res := Shuffle(w, i, params)
		require.Len(t, res.Answers, params.WrongCount+1)
		if res.HasNoneOption {
			assert.NotContains(t, res.Answers, w.Answer)
			assert.Contains(t, res.Answers, NoneOfTheAbove)
			assert.Equal(t, NoneOfTheAbove, res.Correct(w.Answer))
		} else {
			assert.Contains(t, res.Answers, w.Answer)
			assert.NotContains(t, res.Answers, NoneOfTheAbove)
			assert.Equal(t, w.Answer, res.Correct(w.Answer))
		}
	}
}

func TestShuffleHardReachesBothOutcomes(t *testing.T) {
	params := difficulty.ParamsFor(difficulty.LevelHard)
	words := []WordEntry{
		sampleWord(),
		{Word: "house", Answer: "casa", WrongAnswers: []string{"cosa", "caja", "cama", "taza"}},
		{Word: "good morning", Answer: "buenos días", WrongAnswers: []string{"buenas noches", "hasta luego", "adiós"}},
	}
	for _, w := range words {
		var withNone, without int
		for i := 0; i < 200; i++ {
			if Shuffle(w, i, params).HasNoneOption {
				withNone++
			} else {
				without++
			}
		}
		assert.Positive(t, withNone, "word %s never hid its answer", w.Word)
		assert.Positive(t, without, "word %s always hid its answer", w.Word)
	}
}

func TestShuffleOrderVariesAcrossIndexes(t *testing.T) {
	w := sampleWord()
	params := difficulty.ParamsFor(difficulty.LevelMedium)
	orders := map[string]struct{}{}
	for i := 0; i < 30; i++ {
		orders[fmt.Sprint(Shuffle(w, i, params).Answers)] = struct{}{}
	}
	assert.Greater(t, len(orders), 5)
}

func TestShuffleDoesNotMutateEntry(t *testing.T) {
	w := sampleWord()
	before := append([]string(nil), w.WrongAnswers...)
	_ = Shuffle(w, 4, difficulty.ParamsFor(difficulty.LevelHard))
	assert.Equal(t, before, w.WrongAnswers)
}

func TestShuffleCountsDistinctDecoys(t *testing.T) {
	self := Shuffle(WordEntry{Word: "luna", Answer: "moon", WrongAnswers: []string{"moon"}}, 0, difficulty.ParamsFor(difficulty.LevelMedium))
	assert.Empty(t, self.Answers)
	assert.False(t, self.HasNoneOption)

	repeated := Shuffle(WordEntry{Word: "x", Answer: "a", WrongAnswers: []string{"b", "b", "b"}}, 0, difficulty.ParamsFor(difficulty.LevelMedium))
	assert.ElementsMatch(t, []string{"a", "b"}, repeated.Answers)
}

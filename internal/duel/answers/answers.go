// Package answers builds the option list shown for one duel question.
//
// Both participants call Shuffle independently; the output depends only on the
// word entry, the question index and the difficulty parameters, so the two
// screens always show the same options in the same order.
package answers

import (
	"strconv"

	"github.com/samber/lo"

	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
	"github.com/gokatarajesh/word-duel/internal/duel/seeded"
)

// NoneOfTheAbove is the sentinel option that replaces the correct answer on
// some hard questions. When it is shown, it is the winning choice.
const NoneOfTheAbove = "__none_of_the_above__"

// NoneProbability is the chance a hard question hides its correct answer.
const NoneProbability = 0.3

// WordEntry is one question from the shared word list.
type WordEntry struct {
	Word         string   `json:"word"`
	Answer       string   `json:"answer"`
	WrongAnswers []string `json:"wrong_answers"`
}

// Result is the rendered option set for one question.
type Result struct {
	Answers       []string `json:"answers"`
	HasNoneOption bool     `json:"has_none_option"`
}

// Correct returns the option that wins this round for the given entry answer.
func (r Result) Correct(answer string) string {
	if r.HasNoneOption {
		return NoneOfTheAbove
	}
	return answer
}

// Shuffle returns the options for word at questionIndex. Decoys are counted
// after dropping duplicates and copies of the answer, so WrongCount and the
// option total apply to distinct decoys: ["b", "b", "b"] offers one decoy, and an
// entry whose only wrong answer equals its answer yields an empty, unplayable
// result just like one with no wrong answers.
func Shuffle(word WordEntry, questionIndex int, params difficulty.Params) Result {
	pool := lo.Without(lo.Uniq(word.WrongAnswers), word.Answer)
	if len(pool) == 0 {
		return Result{Answers: []string{}}
	}

	key := word.Answer + ":" + strconv.Itoa(questionIndex)
	seed := seeded.HashSeed(key)

	count := min(max(params.WrongCount, 0), len(pool))
	decoys := seeded.Shuffle(pool, seed)[:count]

	hasNone := params.NoneEligible &&
		seeded.New(seeded.HashSeed(key+":none")).Float64() < NoneProbability

	winning := word.Answer
	if hasNone {
		winning = NoneOfTheAbove
	}

	options := make([]string, 0, count+1)
	options = append(options, winning)
	options = append(options, decoys...)

	return Result{
		Answers:       seeded.Shuffle(options, seed),
		HasNoneOption: hasNone,
	}
}

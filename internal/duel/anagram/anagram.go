// Package anagram scrambles answer phrases for spelling rounds.
package anagram

import (
	"slices"
	"strings"
	"unicode"

	"github.com/gokatarajesh/word-duel/internal/duel/seeded"
)

// MaxAttempts bounds how many times a shuffle that reproduces the original
// order is retried before it is accepted as is.
const MaxAttempts = 5

// GenerateLetters returns the non-space characters of answer in a seeded order.
// Phrases of one letter or less come back unshuffled.
func GenerateLetters(answer string, seed uint32) []string {
	letters := make([]string, 0, len(answer))
	for _, r := range answer {
		if unicode.IsSpace(r) {
			continue
		}
		letters = append(letters, string(r))
	}
	if len(letters) <= 1 {
		return letters
	}

	shuffled := seeded.Shuffle(letters, seed)
	for attempt := 1; attempt <= MaxAttempts && slices.Equal(shuffled, letters); attempt++ {
		shuffled = seeded.Shuffle(letters, seed+uint32(attempt))
	}
	return shuffled
}

// BuildWithSpaces lays letters back over answer, keeping every whitespace
// character where it was. Missing letters render as nothing and surplus
// letters are dropped.
func BuildWithSpaces(answer string, letters []string) string {
	var b strings.Builder
	b.Grow(len(answer))

	next := 0
	for _, r := range answer {
		if unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		if next < len(letters) {
			b.WriteString(letters[next])
		}
		next++
	}
	return b.String()
}

package seeded

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSeedKnownValues(t *testing.T) {
	// Same values String.hashCode produces on the JVM / the JS port of it.
	assert.Equal(t, uint32(0), HashSeed(""))
	assert.Equal(t, uint32(97), HashSeed("a"))
	assert.Equal(t, uint32(96354), HashSeed("abc"))
	assert.Equal(t, uint32(99162322), HashSeed("hello"))
}

func TestHashSeedNegativeIsFolded(t *testing.T) {
	// "polygenelubricants".hashCode() == Integer.MIN_VALUE
	assert.Equal(t, uint32(1<<31), HashSeed("polygenelubricants"))
}

func TestHashSeedStableAndSpread(t *testing.T) {
	seen := make(map[uint32]string)
	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("duel-%d", i)
		h := HashSeed(key)
		assert.Equal(t, h, HashSeed(key))
		if prev, dup := seen[h]; dup {
			t.Fatalf("collision between %q and %q", prev, key)
		}
		seen[h] = key
	}
}

func TestRandFloatRange(t *testing.T) {
	r := New(42)
	for i := 0; i < 1000; i++ {
		f := r.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}

func TestRandReproducible(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Uint32(), b.Uint32())
	}
	assert.Equal(t, 0, New(1).Intn(0))
}

func TestShuffleDeterministic(t *testing.T) {
	input := []string{"a", "b", "c", "d", "e", "f", "g"}
	seed := HashSeed("duel-123:4")

	first := Shuffle(input, seed)
	second := Shuffle(input, seed)
	assert.Equal(t, first, second)
}

func TestShufflePermutesWithoutMutation(t *testing.T) {
	input := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	original := append([]int(nil), input...)

	for seed := uint32(0); seed < 100; seed++ {
		out := Shuffle(input, seed)
		require.Equal(t, original, input, "input mutated")

		sorted := append([]int(nil), out...)
		sort.Ints(sorted)
		require.Equal(t, original, sorted, "output is not a permutation")
	}
}

func TestShuffleVariesWithSeed(t *testing.T) {
	input := []int{1, 2, 3, 4, 5, 6, 7, 8}
	distinct := make(map[string]struct{})
	for seed := uint32(0); seed < 50; seed++ {
		distinct[fmt.Sprint(Shuffle(input, seed))] = struct{}{}
	}
	assert.Greater(t, len(distinct), 10)
}

func TestShuffleEdgeSizes(t *testing.T) {
	assert.Empty(t, Shuffle([]string{}, 3))
	assert.Empty(t, Shuffle[string](nil, 3))
	assert.Equal(t, []string{"x"}, Shuffle([]string{"x"}, 3))
}

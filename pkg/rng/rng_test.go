package rng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeterminism_SameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Next(), b.Next(), "sequence diverged at call %d", i)
	}
}

func TestDeterminism_DerivedOps(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 200; i++ {
		require.Equal(t, a.NextInt(0, 100), b.NextInt(0, 100))
		require.Equal(t, a.NextFloat(-1, 1), b.NextFloat(-1, 1))
		require.Equal(t, a.NextBool(0.5), b.NextBool(0.5))
	}
}

func TestNext_Range(t *testing.T) {
	r := New(99)
	for i := 0; i < 10000; i++ {
		v := r.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestReset_RewindsSequence(t *testing.T) {
	r := New(1234)
	first := make([]float64, 10)
	for i := range first {
		first[i] = r.Next()
	}
	r.Reset()
	for i := range first {
		require.Equal(t, first[i], r.Next())
	}
}

func TestNextInt_InclusiveBothEnds(t *testing.T) {
	r := New(5)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := r.NextInt(3, 5)
		require.GreaterOrEqual(t, v, 3)
		require.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	require.True(t, seen[3], "lower bound never produced")
	require.True(t, seen[5], "upper bound never produced")
}

func TestNextInt_SwappedBounds(t *testing.T) {
	r := New(5)
	v := r.NextInt(10, 2)
	require.GreaterOrEqual(t, v, 2)
	require.LessOrEqual(t, v, 10)
}

func TestNextInt_SingleValue(t *testing.T) {
	r := New(5)
	for i := 0; i < 50; i++ {
		require.Equal(t, 7, r.NextInt(7, 7))
	}
}

func TestFork_IndependentDeterministicStreams(t *testing.T) {
	base := New(42)
	f0 := base.Fork(0)
	f1 := base.Fork(1)

	// Forks of equal index reproduce the same stream.
	again := New(42).Fork(0)
	for i := 0; i < 100; i++ {
		require.Equal(t, again.Next(), f0.Next())
	}

	// Distinct indices yield distinct streams.
	f0.Reset()
	same := true
	for i := 0; i < 20; i++ {
		if f0.Next() != f1.Next() {
			same = false
			break
		}
	}
	require.False(t, same, "fork streams should differ")

	// Forking consumes no state from the parent.
	parent := New(42)
	before := New(42).Next()
	parent.Fork(3)
	require.Equal(t, before, parent.Next())
}

func TestShuffle_IsPermutation(t *testing.T) {
	r := New(11)
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	s := make([]int, len(in))
	copy(s, in)
	Shuffle(r, s)

	require.ElementsMatch(t, in, s)
}

func TestPick_Empty(t *testing.T) {
	r := New(1)
	_, ok := Pick(r, []string{})
	require.False(t, ok)
}

func TestPick_Member(t *testing.T) {
	r := New(1)
	in := []string{"a", "b", "c"}
	v, ok := Pick(r, in)
	require.True(t, ok)
	require.Contains(t, in, v)
}

func TestPickN_DoesNotMutateInput(t *testing.T) {
	r := New(21)
	in := []int{10, 20, 30, 40, 50}
	orig := make([]int, len(in))
	copy(orig, in)

	out := PickN(r, in, 3)
	require.Len(t, out, 3)
	require.Equal(t, orig, in)
	require.Subset(t, orig, out)
}

func TestPickN_MoreThanAvailable(t *testing.T) {
	r := New(21)
	out := PickN(r, []int{1, 2}, 10)
	require.ElementsMatch(t, []int{1, 2}, out)
}

func TestPickN_Distinct(t *testing.T) {
	r := New(33)
	out := PickN(r, []int{1, 2, 3, 4, 5}, 5)
	seen := map[int]bool{}
	for _, v := range out {
		require.False(t, seen[v], "duplicate element %d", v)
		seen[v] = true
	}
}

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyseek/storyseek/internal/model"
	"github.com/storyseek/storyseek/internal/store"
)

func hits(ids ...int64) []*store.Hit {
	out := make([]*store.Hit, len(ids))
	for i, id := range ids {
		out[i] = &store.Hit{
			Story: &model.Story{ID: id},
			Score: float64(len(ids) - i),
		}
	}
	return out
}

func hitIDs(hs []*store.Hit) []int64 {
	out := make([]int64, len(hs))
	for i, h := range hs {
		out[i] = h.Story.ID
	}
	return out
}

func TestFuseRankings_OverlapAndTieBreak(t *testing.T) {
	// Lexical: A B C, semantic: B A D. A and B tie on total score;
	// A wins by appearing first in the lexical list.
	fused := FuseRankings(10, hits(1, 2, 3), hits(2, 1, 4))

	assert.Equal(t, []int64{1, 2, 3, 4}, hitIDs(fused))

	// A: rank 0 lexical + rank 1 semantic.
	expectedA := 100.0/61 + 100.0/62
	assert.InDelta(t, expectedA, fused[0].Score, 1e-9)
	assert.InDelta(t, expectedA, fused[1].Score, 1e-9)
	// C and D only appear once, at rank 2.
	assert.InDelta(t, 100.0/63, fused[2].Score, 1e-9)
	assert.InDelta(t, 100.0/63, fused[3].Score, 1e-9)
}

func TestFuseRankings_NoAbsencePenalty(t *testing.T) {
	// A document in both lists at poor ranks still outranks a
	// single-list document at the same ranks.
	fused := FuseRankings(10, hits(1, 2), hits(3, 2))

	require.Len(t, fused, 3)
	assert.Equal(t, int64(2), fused[0].Story.ID)
	assert.InDelta(t, 2*100.0/62, fused[0].Score, 1e-9)
}

func TestFuseRankings_DoubleRankBeatsSingleTop(t *testing.T) {
	// rrfK flattens rank gaps: present-in-both at ranks 1+1 beats
	// present-in-one at rank 0.
	fused := FuseRankings(10, hits(1, 2), hits(3, 2))
	assert.Greater(t, fused[0].Score, 100.0/61)
}

func TestFuseRankings_Truncation(t *testing.T) {
	fused := FuseRankings(2, hits(1, 2, 3, 4), hits(5, 6))
	assert.Len(t, fused, 2)
}

func TestFuseRankings_SingleList(t *testing.T) {
	fused := FuseRankings(10, hits(7, 8, 9))
	assert.Equal(t, []int64{7, 8, 9}, hitIDs(fused))
}

func TestFuseRankings_EmptyInputs(t *testing.T) {
	assert.Empty(t, FuseRankings(10))
	assert.Empty(t, FuseRankings(10, hits(), hits()))
	assert.Empty(t, FuseRankings(0, hits(1)))
}

func TestFuseRankings_ScoresMonotonic(t *testing.T) {
	fused := FuseRankings(10, hits(1, 2, 3), hits(4, 2, 5))
	for i := 1; i < len(fused); i++ {
		assert.GreaterOrEqual(t, fused[i-1].Score, fused[i].Score)
	}
}

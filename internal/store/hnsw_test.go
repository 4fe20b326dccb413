package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectorIndex(t *testing.T, dims int) *HNSWVectorIndex {
	t.Helper()
	idx, err := NewHNSWVectorIndex(dims)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestHNSWVectorIndex_AddAndSearch(t *testing.T) {
	idx := newTestVectorIndex(t, 3)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		[]string{"1", "2", "3"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
	))

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].DocID)
	assert.Equal(t, "3", results[1].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestHNSWVectorIndex_DimensionMismatch(t *testing.T) {
	idx := newTestVectorIndex(t, 3)
	ctx := context.Background()

	err := idx.Add(ctx, []string{"1"}, [][]float32{{1, 0}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = idx.Search(ctx, []float32{1, 0}, 5)
	assert.ErrorAs(t, err, &dimErr)
}

func TestHNSWVectorIndex_ReplaceSameID(t *testing.T) {
	idx := newTestVectorIndex(t, 3)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []string{"1"}, [][]float32{{1, 0, 0}}))
	require.NoError(t, idx.Add(ctx, []string{"1"}, [][]float32{{0, 1, 0}}))
	assert.Equal(t, 1, idx.Count())

	results, err := idx.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestHNSWVectorIndex_Delete(t *testing.T) {
	idx := newTestVectorIndex(t, 3)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		[]string{"1", "2"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	))
	require.NoError(t, idx.Delete(ctx, []string{"1"}))
	assert.Equal(t, 1, idx.Count())

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].DocID)
}

func TestHNSWVectorIndex_Contains(t *testing.T) {
	idx := newTestVectorIndex(t, 3)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []string{"7"}, [][]float32{{1, 0, 0}}))
	assert.True(t, idx.Contains("7"))
	assert.False(t, idx.Contains("8"))

	require.NoError(t, idx.Delete(ctx, []string{"7"}))
	assert.False(t, idx.Contains("7"))
}

func TestHNSWVectorIndex_EmptyIndex(t *testing.T) {
	idx := newTestVectorIndex(t, 3)

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWVectorIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.hnsw")

	idx := newTestVectorIndex(t, 3)
	require.NoError(t, idx.Add(ctx,
		[]string{"1", "2"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	))
	require.NoError(t, idx.Save(path))

	reloaded := newTestVectorIndex(t, 3)
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, 2, reloaded.Count())

	results, err := reloaded.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].DocID)
}

func TestHNSWVectorIndex_LoadDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.hnsw")

	idx := newTestVectorIndex(t, 3)
	require.NoError(t, idx.Add(ctx, []string{"1"}, [][]float32{{1, 0, 0}}))
	require.NoError(t, idx.Save(path))

	other := newTestVectorIndex(t, 8)
	err := other.Load(path)
	var dimErr ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	embedCalls int
	batchCalls int
	batchSizes []int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	c.batchSizes = append(c.batchSizes, len(texts))
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(len(texts[i]))}
	}
	return vecs, nil
}

func (c *countingEmbedder) ModelName() string {
	return "count-model"
}

func TestLruEmbedderServesRepeatsFromCache(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.embedCalls)
}

func TestLruEmbedderBatchForwardsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "aa")
	require.NoError(t, err)

	vecs, err := cached.EmbedBatch(context.Background(), []string{"aa", "bbb", "cccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	require.Equal(t, []float32{2}, vecs[0])
	require.Equal(t, []float32{3}, vecs[1])
	require.Equal(t, []float32{4}, vecs[2])
	require.Equal(t, 1, inner.batchCalls)
	require.Equal(t, []int{2}, inner.batchSizes)
}

func TestLruEmbedderBatchFullyCached(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := cached.EmbedBatch(context.Background(), []string{"x", "yy"})
	require.NoError(t, err)
	_, err = cached.EmbedBatch(context.Background(), []string{"x", "yy"})
	require.NoError(t, err)
	require.Equal(t, 1, inner.batchCalls)
}

func TestWrapLruCacheToEmbedder_DisabledPassthrough(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 16, time.Minute))
}

func TestBuildCacheKey(t *testing.T) {
	key1, hash1, model1 := buildCacheKey("m1", "text")
	key2, hash2, _ := buildCacheKey("m2", "text")
	require.NotEqual(t, key1, key2)
	require.Equal(t, hash1, hash2)
	require.Equal(t, "m1", model1)

	_, _, model := buildCacheKey("  ", "text")
	require.Equal(t, "unknown", model)
}

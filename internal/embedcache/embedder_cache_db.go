package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/linkhoard/linkhoard/internal/ai"
	"github.com/linkhoard/linkhoard/internal/model"
	"github.com/linkhoard/linkhoard/internal/repo"
)

// WrapDBCacheToEmbedder adds a persistent cache layer so identical chunks
// across re-ingestions survive process restarts.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), text)
	values, ok, err := d.repo.Get(ctx, modelName, contentHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache read failed", zap.Error(err))
		return nil, false
	}
	return values, ok
}

func (d *dbEmbedder) store(ctx context.Context, text string, values []float32) {
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), text)
	if err := d.repo.Save(ctx, &model.EmbeddingCacheEntry{
		ModelName:   modelName,
		ContentHash: contentHash,
		Embedding:   values,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
}

func (d *dbEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if values, ok := d.lookup(ctx, text); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)")
		return values, nil
	}
	res, err := d.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	d.store(ctx, text, res)
	return res, nil
}

func (d *dbEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if values, ok := d.lookup(ctx, text); ok {
			vectors[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}
	res, err := d.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		vectors[idx] = res[j]
		d.store(ctx, missTexts[j], res[j])
	}
	return vectors, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/linkhoard/linkhoard/internal/ai"
	"github.com/linkhoard/linkhoard/internal/model"
)

type EmbeddingStore interface {
	DeleteByBookmark(ctx context.Context, bookmarkID string) error
	InsertBatch(ctx context.Context, items []*model.BookmarkEmbedding) error
}

// EmbeddingService turns a bookmark's converted content into chunk embeddings.
// A rebuild replaces the previous generation wholesale: old rows are removed
// first so a later failure leaves the bookmark with zero rows rather than a
// stale mix, and the backfill job can retry it.
type EmbeddingService struct {
	store     EmbeddingStore
	embedder  ai.IEmbedder
	batchSize int
}

func NewEmbeddingService(store EmbeddingStore, embedder ai.IEmbedder, batchSize int) *EmbeddingService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &EmbeddingService{store: store, embedder: embedder, batchSize: batchSize}
}

func (s *EmbeddingService) Rebuild(ctx context.Context, bookmarkID, userID, content string) error {
	if err := s.store.DeleteByBookmark(ctx, bookmarkID); err != nil {
		return fmt.Errorf("delete old embeddings: %w", err)
	}
	chunks := ai.GenerateChunks(content)
	if len(chunks) == 0 {
		return nil
	}
	if s.embedder == nil {
		return fmt.Errorf("no embedder configured")
	}
	now := time.Now().Unix()
	items := make([]*model.BookmarkEmbedding, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		vectors, err := s.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}
		for i, vec := range vectors {
			items = append(items, &model.BookmarkEmbedding{
				ID:         newID(),
				BookmarkID: bookmarkID,
				UserID:     userID,
				Content:    batch[i],
				Embedding:  vec,
				Ctime:      now,
			})
		}
	}
	if err := s.store.InsertBatch(ctx, items); err != nil {
		return fmt.Errorf("insert embeddings: %w", err)
	}
	logutil.GetLogger(ctx).Info("embeddings rebuilt",
		zap.String("bookmark_id", bookmarkID), zap.Int("chunks", len(items)))
	return nil
}

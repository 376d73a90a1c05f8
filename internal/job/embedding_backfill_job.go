package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/linkhoard/linkhoard/internal/embedq"
	"github.com/linkhoard/linkhoard/internal/repo"
)

// EmbeddingBackfillJob requeues completed bookmarks whose embedding pass
// failed or was dropped, so a transient provider outage heals on its own.
type EmbeddingBackfillJob struct {
	bookmarks *repo.BookmarkRepo
	queue     *embedq.Queue
	batchSize int
}

func NewEmbeddingBackfillJob(bookmarks *repo.BookmarkRepo, queue *embedq.Queue, batchSize int) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{bookmarks: bookmarks, queue: queue, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.bookmarks == nil || j.queue == nil {
		return nil
	}
	batchSize := j.batchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	items, err := j.bookmarks.ListMissingEmbeddings(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	submitted := 0
	for _, bm := range items {
		if j.queue.Submit(ctx, embedq.Task{BookmarkID: bm.ID, UserID: bm.UserID, Content: bm.Content}) {
			submitted++
		}
	}
	logutil.GetLogger(ctx).Info("embedding backfill scan",
		zap.Int("found", len(items)), zap.Int("submitted", submitted))
	return nil
}

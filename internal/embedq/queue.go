package embedq

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Task asks the worker to rebuild the embeddings of one bookmark from its
// converted content.
type Task struct {
	BookmarkID string
	UserID     string
	Content    string
}

type ProcessFunc func(ctx context.Context, task Task) error

// Queue decouples ingestion from embedding generation. Submit never blocks
// the caller; embedding failures are logged and left for the backfill job to
// pick up later.
type Queue struct {
	process ProcessFunc
	tasks   chan Task
	retries int
	backoff time.Duration
	once    sync.Once
	wg      sync.WaitGroup
}

func New(process ProcessFunc, depth int, retries int, backoff time.Duration) *Queue {
	if depth <= 0 {
		depth = 64
	}
	if retries < 0 {
		retries = 0
	}
	return &Queue{
		process: process,
		tasks:   make(chan Task, depth),
		retries: retries,
		backoff: backoff,
	}
}

// Start launches the worker. It drains until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.once.Do(func() {
		q.wg.Add(1)
		go q.run(ctx)
	})
}

// Submit enqueues a task without blocking. It reports false when the queue is
// full, in which case the task is dropped and the bookmark stays without
// embeddings until the backfill job retries it.
func (q *Queue) Submit(ctx context.Context, task Task) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		logutil.GetLogger(ctx).Warn("embedding queue full, dropping task",
			zap.String("bookmark_id", task.BookmarkID))
		return false
	}
}

func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.handle(ctx, task)
		}
	}
}

func (q *Queue) handle(ctx context.Context, task Task) {
	logger := logutil.GetLogger(ctx).With(zap.String("bookmark_id", task.BookmarkID))
	var err error
	for attempt := 0; attempt <= q.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.backoff):
			}
		}
		if err = q.process(ctx, task); err == nil {
			if attempt > 0 {
				logger.Info("embedding rebuilt after retry", zap.Int("attempt", attempt))
			}
			return
		}
		logger.Warn("embedding task failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	logger.Error("embedding task exhausted retries", zap.Error(err))
}

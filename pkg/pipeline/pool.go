package pipeline

import (
	"context"
	"sync"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/index"
)

// poolRunner runs two fixed worker stages over bounded queues: feed workers
// consume feed refs and enqueue the articles they discover, article workers
// consume refs and run the indexing task. Full queues block producers, which
// bounds peak memory and in-flight fetches. Separate stages also mean a
// worker never enqueues into its own queue, so backpressure cannot deadlock
// the pool. The run is complete when the feed stage has drained, the article
// queue is closed, and every article worker has gone idle.
type poolRunner struct {
	base
}

func (r *poolRunner) Run(ctx context.Context, feeds []domain.FeedRef) (*index.WordIndex, *Report, error) {
	ix := index.New()
	t := newTracker()

	feedQueue := make(chan domain.FeedRef, r.opts.QueueSize)
	articleQueue := make(chan domain.ArticleRef, r.opts.QueueSize)

	var feedWG sync.WaitGroup
	for range r.opts.FeedWorkers {
		feedWG.Add(1)
		go func() {
			defer feedWG.Done()
			for f := range feedQueue {
				for _, ref := range r.discover(ctx, t, f) {
					select {
					case articleQueue <- ref:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	var articleWG sync.WaitGroup
	for range r.opts.ArticleWorkers {
		articleWG.Add(1)
		go func() {
			defer articleWG.Done()
			for ref := range articleQueue {
				r.indexArticle(ctx, t, ix, ref)
			}
		}()
	}

	// Close the article queue once the feed stage has drained.
	go func() {
		feedWG.Wait()
		close(articleQueue)
	}()

	for _, f := range r.dedupFeeds(t, feeds) {
		select {
		case feedQueue <- f:
		case <-ctx.Done():
		}
	}
	close(feedQueue)

	articleWG.Wait()
	return r.finish(ix, t)
}

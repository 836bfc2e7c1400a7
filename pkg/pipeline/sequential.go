package pipeline

import (
	"context"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/index"
)

// sequentialRunner processes feeds and articles one at a time, in input
// order, on the calling goroutine. No concurrency; the baseline the other
// runners must match.
type sequentialRunner struct {
	base
}

func (r *sequentialRunner) Run(ctx context.Context, feeds []domain.FeedRef) (*index.WordIndex, *Report, error) {
	ix := index.New()
	t := newTracker()

	for _, f := range r.dedupFeeds(t, feeds) {
		for _, ref := range r.discover(ctx, t, f) {
			r.indexArticle(ctx, t, ix, ref)
		}
	}

	return r.finish(ix, t)
}

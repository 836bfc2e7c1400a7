package pipeline

import (
	"context"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/index"
)

// asyncRunner multiplexes the whole run on a single driver goroutine. Fetch
// operations are issued as fire-and-forget tasks that do nothing but the
// network call and post their outcome to the driver's event channel; the
// driver tokenizes, merges, and schedules follow-up work between events. Its
// only wait point is the event channel receive, so the merge is never held
// across a suspension, and at most ArticleWorkers fetches are in flight.
type asyncRunner struct {
	base
}

type feedEvent struct {
	ref  domain.FeedRef
	refs []domain.ArticleRef
	err  error
}

type articleEvent struct {
	ref     domain.ArticleRef
	article domain.Article
	err     error
}

func (r *asyncRunner) Run(ctx context.Context, feeds []domain.FeedRef) (*index.WordIndex, *Report, error) {
	ix := index.New()
	t := newTracker()

	feedQueue := r.dedupFeeds(t, feeds)
	var articleQueue []domain.ArticleRef

	maxInFlight := r.opts.ArticleWorkers
	events := make(chan any, maxInFlight)
	inFlight := 0

	// issue starts pending fetches up to the in-flight cap, feeds before
	// articles so discovery keeps the queue full.
	issue := func() {
		for inFlight < maxInFlight {
			switch {
			case len(feedQueue) > 0:
				f := feedQueue[0]
				feedQueue = feedQueue[1:]
				inFlight++
				go func() {
					refs, err := r.opts.Feeds.FetchFeed(ctx, f)
					events <- feedEvent{ref: f, refs: refs, err: err}
				}()
			case len(articleQueue) > 0:
				a := articleQueue[0]
				articleQueue = articleQueue[1:]
				inFlight++
				go func() {
					article, err := r.opts.Articles.FetchArticle(ctx, a)
					events <- articleEvent{ref: a, article: article, err: err}
				}()
			default:
				return
			}
		}
	}

	issue()
	for inFlight > 0 {
		ev := <-events // the driver's lone suspension point
		inFlight--

		switch e := ev.(type) {
		case feedEvent:
			articleQueue = append(articleQueue, r.recordFeed(t, e.ref, e.refs, e.err)...)
		case articleEvent:
			r.recordArticle(t, ix, e.ref, e.article, e.err)
		}

		issue()
	}

	return r.finish(ix, t)
}

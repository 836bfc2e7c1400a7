package pipeline

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/index"
)

// threadRunner spawns one goroutine per feed and, nested, one per article.
// Fan-out is unbounded unless MaxInFlight/MaxPerHost are set, in which case
// article goroutines queue on weighted semaphores before fetching. The merge
// protocol is the only contended resource, so unbounded fan-out degrades but
// stays correct.
type threadRunner struct {
	base

	total *semaphore.Weighted

	maxPerHost int64
	hostMu     sync.Mutex
	hosts      map[string]*semaphore.Weighted
}

func newThreadRunner(b base) *threadRunner {
	r := &threadRunner{
		base:       b,
		maxPerHost: b.opts.MaxPerHost,
		hosts:      make(map[string]*semaphore.Weighted),
	}
	if b.opts.MaxInFlight > 0 {
		r.total = semaphore.NewWeighted(b.opts.MaxInFlight)
	}
	return r
}

func (r *threadRunner) Run(ctx context.Context, feeds []domain.FeedRef) (*index.WordIndex, *Report, error) {
	ix := index.New()
	t := newTracker()

	var g errgroup.Group
	for _, f := range r.dedupFeeds(t, feeds) {
		g.Go(func() error {
			refs := r.discover(ctx, t, f)

			var wg sync.WaitGroup
			for _, ref := range refs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					r.indexWithLimits(ctx, t, ix, ref)
				}()
			}
			wg.Wait()
			return nil
		})
	}
	// Workers record their own failures; the group never carries an error.
	_ = g.Wait()

	return r.finish(ix, t)
}

// indexWithLimits waits for the total and per-host slots, then runs the
// indexing task. An acquire only fails when the context is cancelled, which
// is recorded like any other fetch failure.
func (r *threadRunner) indexWithLimits(ctx context.Context, t *tracker, ix *index.WordIndex, ref domain.ArticleRef) {
	if r.total != nil {
		if err := r.total.Acquire(ctx, 1); err != nil {
			t.articleFailed(asFailure(ref.URL, err))
			return
		}
		defer r.total.Release(1)
	}

	if r.maxPerHost > 0 {
		sem := r.hostSemaphore(hostOf(ref.URL))
		if err := sem.Acquire(ctx, 1); err != nil {
			t.articleFailed(asFailure(ref.URL, err))
			return
		}
		defer sem.Release(1)
	}

	r.indexArticle(ctx, t, ix, ref)
}

func (r *threadRunner) hostSemaphore(host string) *semaphore.Weighted {
	r.hostMu.Lock()
	defer r.hostMu.Unlock()
	sem, ok := r.hosts[host]
	if !ok {
		sem = semaphore.NewWeighted(r.maxPerHost)
		r.hosts[host] = sem
	}
	return sem
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

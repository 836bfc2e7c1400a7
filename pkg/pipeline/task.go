package pipeline

import (
	"context"
	"errors"
	"sync"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/index"
	"rss-indexer/pkg/tokenizer"
)

// tracker is the run's shared bookkeeping: the seen-URL set that dedups
// feeds and articles within a run, and the report totals. One mutex guards
// both; every method is a short critical section.
type tracker struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	report Report
}

func newTracker() *tracker {
	return &tracker{seen: make(map[string]struct{})}
}

// claim marks url as seen and reports whether this caller owns it. A second
// claim for the same URL counts as skipped.
func (t *tracker) claim(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[url]; ok {
		t.report.Skipped++
		return false
	}
	t.seen[url] = struct{}{}
	return true
}

func (t *tracker) feedDone() {
	t.mu.Lock()
	t.report.Feeds++
	t.mu.Unlock()
}

func (t *tracker) feedFailed(f *domain.FetchFailure) {
	t.mu.Lock()
	t.report.Feeds++
	t.report.FailedFeeds++
	t.report.Failures = append(t.report.Failures, *f)
	t.mu.Unlock()
}

func (t *tracker) articleDone() {
	t.mu.Lock()
	t.report.Articles++
	t.mu.Unlock()
}

func (t *tracker) articleFailed(f *domain.FetchFailure) {
	t.mu.Lock()
	t.report.Articles++
	t.report.FailedArticles++
	t.report.Failures = append(t.report.Failures, *f)
	t.mu.Unlock()
}

func (t *tracker) snapshot() *Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	rep := t.report
	rep.Failures = append([]domain.FetchFailure(nil), t.report.Failures...)
	return &rep
}

// base holds what every runner shares: the options and the task bodies. The
// per-run tracker and index are created inside Run so a runner can be reused.
type base struct {
	opts Options
}

// dedupFeeds claims each feed URL and drops duplicates, preserving order.
func (b *base) dedupFeeds(t *tracker, feeds []domain.FeedRef) []domain.FeedRef {
	fresh := make([]domain.FeedRef, 0, len(feeds))
	for _, f := range feeds {
		if !t.claim(f.URL) {
			b.opts.Logger.Debug("skipping already seen feed", "url", f.URL)
			continue
		}
		fresh = append(fresh, f)
	}
	return fresh
}

// discover fetches one feed and returns the article refs not yet seen this
// run. Failures are recorded, never propagated.
func (b *base) discover(ctx context.Context, t *tracker, ref domain.FeedRef) []domain.ArticleRef {
	refs, err := b.opts.Feeds.FetchFeed(ctx, ref)
	return b.recordFeed(t, ref, refs, err)
}

// recordFeed applies a feed fetch result to the tracker and claims the
// discovered refs. Split from discover so the async driver can apply results
// produced elsewhere.
func (b *base) recordFeed(t *tracker, ref domain.FeedRef, refs []domain.ArticleRef, err error) []domain.ArticleRef {
	if err != nil {
		failure := asFailure(ref.URL, err)
		t.feedFailed(failure)
		b.opts.Logger.Warn("feed fetch failed", "url", ref.URL, "error", err)
		return nil
	}
	t.feedDone()

	fresh := make([]domain.ArticleRef, 0, len(refs))
	for _, a := range refs {
		if !t.claim(a.URL) {
			b.opts.Logger.Debug("skipping already seen article", "url", a.URL)
			continue
		}
		fresh = append(fresh, a)
	}
	b.opts.Logger.Debug("processed feed", "url", ref.URL, "articles", len(fresh))
	return fresh
}

// indexArticle is the unit of work: fetch one article, tokenize it, merge
// its counts. Used directly by every runner except async, which performs the
// fetch elsewhere and feeds the result to recordArticle.
func (b *base) indexArticle(ctx context.Context, t *tracker, ix *index.WordIndex, ref domain.ArticleRef) {
	article, err := b.opts.Articles.FetchArticle(ctx, ref)
	b.recordArticle(t, ix, ref, article, err)
}

// recordArticle tokenizes a fetched article and merges its counts, or
// records the failure. The merge is the only write path into the index.
func (b *base) recordArticle(t *tracker, ix *index.WordIndex, ref domain.ArticleRef, article domain.Article, err error) {
	if err != nil {
		failure := asFailure(ref.URL, err)
		t.articleFailed(failure)
		b.opts.Logger.Warn("article fetch failed", "url", ref.URL, "error", err)
		return
	}

	counts := tokenizer.Counts(article.Text)
	if mergeErr := ix.Merge(article.Ref, counts); mergeErr != nil {
		b.opts.Logger.Error("merge rejected", "url", ref.URL, "error", mergeErr)
		return
	}
	t.articleDone()
	b.opts.Logger.Debug("indexed article", "url", ref.URL, "words", len(counts))
}

// finish freezes the index and resolves the run outcome.
func (b *base) finish(ix *index.WordIndex, t *tracker) (*index.WordIndex, *Report, error) {
	ix.Freeze()
	rep := t.snapshot()
	b.opts.Logger.Info("run complete",
		"feeds", rep.Feeds, "articles", rep.Articles,
		"failed_feeds", rep.FailedFeeds, "failed_articles", rep.FailedArticles,
		"skipped", rep.Skipped, "words", ix.Words())

	if rep.Feeds > 0 && rep.FailedFeeds == rep.Feeds {
		return ix, rep, ErrAllFeedsFailed
	}
	return ix, rep, nil
}

// asFailure preserves a fetcher-produced FetchFailure or wraps a plain error
// as a fetch-kind failure.
func asFailure(target string, err error) *domain.FetchFailure {
	var failure *domain.FetchFailure
	if errors.As(err, &failure) {
		return failure
	}
	return &domain.FetchFailure{Target: target, Kind: domain.FailureFetch, Err: err}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rss-indexer/pkg/domain"
)

var allModes = []Mode{ModeSequential, ModeThreads, ModeAsync, ModePool}

// mockFeedFetcher serves canned article refs per feed URL.
type mockFeedFetcher struct {
	mu    sync.Mutex
	refs  map[string][]domain.ArticleRef
	errs  map[string]error
	calls int
}

func (m *mockFeedFetcher) FetchFeed(_ context.Context, ref domain.FeedRef) ([]domain.ArticleRef, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err, ok := m.errs[ref.URL]; ok {
		return nil, err
	}
	return m.refs[ref.URL], nil
}

// mockArticleFetcher serves canned article text per article URL.
type mockArticleFetcher struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	calls int
}

func (m *mockArticleFetcher) FetchArticle(_ context.Context, ref domain.ArticleRef) (domain.Article, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err, ok := m.errs[ref.URL]; ok {
		return domain.Article{}, err
	}
	return domain.Article{Ref: ref, Text: m.texts[ref.URL]}, nil
}

func feedRefs(urls ...string) []domain.FeedRef {
	refs := make([]domain.FeedRef, 0, len(urls))
	for _, u := range urls {
		refs = append(refs, domain.FeedRef{URL: u})
	}
	return refs
}

func articleRef(feedURL, articleURL string) domain.ArticleRef {
	return domain.ArticleRef{URL: articleURL, Feed: domain.FeedRef{URL: feedURL}}
}

// fixture builds two feeds with three deterministic articles.
func fixture() (*mockFeedFetcher, *mockArticleFetcher, []domain.FeedRef) {
	feeds := &mockFeedFetcher{
		refs: map[string][]domain.ArticleRef{
			"https://site-a.test/feed": {
				articleRef("https://site-a.test/feed", "https://site-a.test/1"),
				articleRef("https://site-a.test/feed", "https://site-a.test/2"),
			},
			"https://site-b.test/feed": {
				articleRef("https://site-b.test/feed", "https://site-b.test/1"),
			},
		},
	}
	articles := &mockArticleFetcher{
		texts: map[string]string{
			"https://site-a.test/1": "News news news: markets rally.",
			"https://site-a.test/2": "Sports news today. Rally recap!",
			"https://site-b.test/1": "Weather report: rain, rain, and more rain.",
		},
	}
	return feeds, articles, feedRefs("https://site-a.test/feed", "https://site-b.test/feed")
}

func newRunner(t *testing.T, mode Mode, opts Options) Runner {
	t.Helper()
	r, err := New(mode, opts)
	require.NoError(t, err)
	return r
}

func TestParseMode(t *testing.T) {
	for alias, want := range map[string]Mode{
		"sequential":      ModeSequential,
		"seq":             ModeSequential,
		"thread-per-unit": ModeThreads,
		"threads":         ModeThreads,
		"cooperative":     ModeAsync,
		"async":           ModeAsync,
		"pool":            ModePool,
		"worker-pool":     ModePool,
	} {
		got, err := ParseMode(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}

	_, err := ParseMode("fibers")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNewRequiresFetchers(t *testing.T) {
	_, err := New(ModeSequential, Options{})
	assert.Error(t, err)

	_, err = New(Mode("bogus"), Options{Feeds: &mockFeedFetcher{}, Articles: &mockArticleFetcher{}})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

// All four modes over identical deterministic fetchers must produce
// identical word → article → count contents and identical failure totals.
func TestCrossModeEquivalence(t *testing.T) {
	var baseline map[string]map[string]int
	var baselineReport *Report

	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			feeds, articles, refs := fixture()
			runner := newRunner(t, mode, Options{Feeds: feeds, Articles: articles})

			ix, report, err := runner.Run(context.Background(), refs)
			require.NoError(t, err)
			require.True(t, ix.Frozen())

			snapshot := ix.Snapshot()
			assert.Equal(t, 3, ix.Articles())
			assert.Equal(t, map[string]int{"https://site-a.test/1": 3, "https://site-a.test/2": 1}, ix.Lookup("news"))

			if baseline == nil {
				baseline = snapshot
				baselineReport = report
				return
			}
			assert.Equal(t, baseline, snapshot)
			assert.Equal(t, baselineReport.Feeds, report.Feeds)
			assert.Equal(t, baselineReport.Articles, report.Articles)
			assert.Equal(t, baselineReport.FailedFeeds, report.FailedFeeds)
			assert.Equal(t, baselineReport.FailedArticles, report.FailedArticles)
		})
	}
}

// One failing article out of five is recorded and the other four index.
func TestPartialArticleFailure(t *testing.T) {
	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			refs := make([]domain.ArticleRef, 0, 5)
			texts := make(map[string]string)
			for i := range 5 {
				url := fmt.Sprintf("https://site.test/%d", i)
				refs = append(refs, articleRef("https://site.test/feed", url))
				texts[url] = fmt.Sprintf("article number %d", i)
			}

			feeds := &mockFeedFetcher{refs: map[string][]domain.ArticleRef{"https://site.test/feed": refs}}
			articles := &mockArticleFetcher{
				texts: texts,
				errs:  map[string]error{"https://site.test/3": errors.New("connection reset")},
			}

			runner := newRunner(t, mode, Options{Feeds: feeds, Articles: articles})
			ix, report, err := runner.Run(context.Background(), feedRefs("https://site.test/feed"))

			require.NoError(t, err)
			assert.Equal(t, 4, ix.Articles())
			assert.Equal(t, 1, report.FailedArticles)
			assert.Equal(t, 5, report.Articles)
			require.Len(t, report.Failures, 1)
			assert.Equal(t, "https://site.test/3", report.Failures[0].Target)
		})
	}
}

// When every feed fails the run surfaces ErrAllFeedsFailed with an empty
// frozen index, distinguishable from a successful run with zero matches.
func TestTotalFeedFailure(t *testing.T) {
	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			feeds := &mockFeedFetcher{
				errs: map[string]error{
					"https://down-a.test/feed": errors.New("dial timeout"),
					"https://down-b.test/feed": errors.New("dial timeout"),
				},
			}
			runner := newRunner(t, mode, Options{Feeds: feeds, Articles: &mockArticleFetcher{}})

			ix, report, err := runner.Run(context.Background(), feedRefs("https://down-a.test/feed", "https://down-b.test/feed"))

			assert.ErrorIs(t, err, ErrAllFeedsFailed)
			require.NotNil(t, ix)
			assert.True(t, ix.Frozen())
			assert.Equal(t, 0, ix.Articles())
			assert.Equal(t, 2, report.FailedFeeds)
		})
	}
}

// A mix of failing and healthy feeds is not a total failure.
func TestPartialFeedFailure(t *testing.T) {
	feeds, articles, refs := fixture()
	feeds.errs = map[string]error{"https://site-b.test/feed": errors.New("503")}

	runner := newRunner(t, ModePool, Options{Feeds: feeds, Articles: articles})
	ix, report, err := runner.Run(context.Background(), refs)

	require.NoError(t, err)
	assert.Equal(t, 1, report.FailedFeeds)
	assert.Equal(t, 2, ix.Articles())
}

// An article listed by two feeds is fetched and indexed exactly once.
func TestDuplicateArticleAcrossFeeds(t *testing.T) {
	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			shared := "https://shared.test/story"
			feeds := &mockFeedFetcher{
				refs: map[string][]domain.ArticleRef{
					"https://a.test/feed": {articleRef("https://a.test/feed", shared)},
					"https://b.test/feed": {articleRef("https://b.test/feed", shared)},
				},
			}
			articles := &mockArticleFetcher{texts: map[string]string{shared: "one shared story"}}

			runner := newRunner(t, mode, Options{Feeds: feeds, Articles: articles})
			ix, report, err := runner.Run(context.Background(), feedRefs("https://a.test/feed", "https://b.test/feed"))

			require.NoError(t, err)
			assert.Equal(t, 1, ix.Articles())
			assert.Equal(t, 1, articles.calls)
			assert.Equal(t, 1, report.Skipped)
		})
	}
}

func TestDuplicateFeedsDeduped(t *testing.T) {
	feeds, articles, _ := fixture()
	runner := newRunner(t, ModeSequential, Options{Feeds: feeds, Articles: articles})

	_, report, err := runner.Run(context.Background(),
		feedRefs("https://site-a.test/feed", "https://site-a.test/feed"))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Feeds)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, feeds.calls)
}

// An empty feed list completes with a frozen empty index and no error.
func TestEmptyFeedList(t *testing.T) {
	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			runner := newRunner(t, mode, Options{Feeds: &mockFeedFetcher{}, Articles: &mockArticleFetcher{}})
			ix, report, err := runner.Run(context.Background(), nil)

			require.NoError(t, err)
			assert.True(t, ix.Frozen())
			assert.Equal(t, 0, report.Feeds)
		})
	}
}

// A feed with no items is a successful, empty feed — not a failure.
func TestEmptyFeedIsNotFailure(t *testing.T) {
	feeds := &mockFeedFetcher{refs: map[string][]domain.ArticleRef{}}
	runner := newRunner(t, ModeAsync, Options{Feeds: feeds, Articles: &mockArticleFetcher{}})

	ix, report, err := runner.Run(context.Background(), feedRefs("https://quiet.test/feed"))

	require.NoError(t, err)
	assert.Equal(t, 1, report.Feeds)
	assert.Equal(t, 0, report.FailedFeeds)
	assert.Equal(t, 0, ix.Articles())
}

// Tiny queues and single workers still drain: backpressure slows producers
// without deadlocking the pool.
func TestPoolBackpressure(t *testing.T) {
	refs := make([]domain.ArticleRef, 0, 50)
	texts := make(map[string]string)
	for i := range 50 {
		url := fmt.Sprintf("https://big.test/%d", i)
		refs = append(refs, articleRef("https://big.test/feed", url))
		texts[url] = fmt.Sprintf("word%d repeated text", i)
	}
	feeds := &mockFeedFetcher{refs: map[string][]domain.ArticleRef{"https://big.test/feed": refs}}
	articles := &mockArticleFetcher{texts: texts}

	runner := newRunner(t, ModePool, Options{
		Feeds: feeds, Articles: articles,
		FeedWorkers: 1, ArticleWorkers: 1, QueueSize: 1,
	})
	ix, report, err := runner.Run(context.Background(), feedRefs("https://big.test/feed"))

	require.NoError(t, err)
	assert.Equal(t, 50, ix.Articles())
	assert.Equal(t, 0, report.FailedArticles)
}

// The thread runner honors its caps while still completing all work.
func TestThreadRunnerWithCaps(t *testing.T) {
	feeds, articles, refs := fixture()
	runner := newRunner(t, ModeThreads, Options{
		Feeds: feeds, Articles: articles,
		MaxInFlight: 2, MaxPerHost: 1,
	})

	ix, report, err := runner.Run(context.Background(), refs)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Articles())
	assert.Equal(t, 0, report.FailedArticles)
}

// Package pipeline drives the fetch-and-index run: discover articles from
// every feed, fetch and tokenize each article, and merge the word counts
// into one shared index. Four runners implement the same contract under
// different scheduling disciplines and produce identical indexes for
// identical fetch results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rss-indexer/pkg/content"
	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/feed"
	"rss-indexer/pkg/index"
)

// ErrAllFeedsFailed marks a run where every feed fetch failed and no
// articles were discovered. It is returned alongside the empty frozen index
// and the full report, so callers can tell total failure apart from a
// legitimately empty result.
var ErrAllFeedsFailed = errors.New("all feed fetches failed")

// ErrUnknownMode is returned by New and ParseMode for unrecognized modes.
var ErrUnknownMode = errors.New("unknown execution mode")

// Mode selects one of the four execution strategies.
type Mode string

const (
	// ModeSequential processes feeds and articles one at a time, in input
	// order. The correctness baseline the other modes must match.
	ModeSequential Mode = "sequential"
	// ModeThreads spawns one goroutine per feed and one per article,
	// optionally capped by total and per-host limits.
	ModeThreads Mode = "threads"
	// ModeAsync multiplexes all work on a single driver goroutine that only
	// suspends while awaiting fetch completions.
	ModeAsync Mode = "async"
	// ModePool runs fixed feed and article worker pools over bounded queues.
	ModePool Mode = "pool"
)

// ParseMode resolves a mode name, accepting the common aliases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "sequential", "seq", "single":
		return ModeSequential, nil
	case "threads", "thread-per-unit", "multi":
		return ModeThreads, nil
	case "async", "cooperative":
		return ModeAsync, nil
	case "pool", "worker-pool", "pooled":
		return ModePool, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options carries the injected fetchers and the scheduling knobs. Feeds and
// Articles are required; everything else has a usable default.
type Options struct {
	Feeds    feed.Fetcher
	Articles content.Fetcher
	Logger   *slog.Logger

	// FeedWorkers and ArticleWorkers size the pool mode's stages. In async
	// mode ArticleWorkers bounds the number of in-flight fetch operations.
	FeedWorkers    int
	ArticleWorkers int
	// QueueSize bounds the pool mode's feed and article queues; a full
	// queue blocks producers, which is the backpressure that caps peak
	// memory and in-flight fetches.
	QueueSize int

	// MaxInFlight and MaxPerHost cap the threads mode's article fan-out.
	// Zero means unbounded, the documented degenerate behavior of
	// one-goroutine-per-unit scheduling.
	MaxInFlight int64
	MaxPerHost  int64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.FeedWorkers <= 0 {
		o.FeedWorkers = 3
	}
	if o.ArticleWorkers <= 0 {
		o.ArticleWorkers = 20
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	return o
}

// Report aggregates what happened during one run. Feeds and Articles count
// attempts after deduplication; Skipped counts references dropped because
// their URL was already seen this run.
type Report struct {
	Feeds          int
	Articles       int
	FailedFeeds    int
	FailedArticles int
	Skipped        int
	Failures       []domain.FetchFailure
}

// Runner is the shared contract of the four execution strategies: consume
// feed refs, return a fully merged and frozen WordIndex plus the run report.
// The returned error is nil even when individual items failed; only total
// feed failure (ErrAllFeedsFailed) is an error.
type Runner interface {
	Run(ctx context.Context, feeds []domain.FeedRef) (*index.WordIndex, *Report, error)
}

// New constructs the runner for mode.
func New(mode Mode, opts Options) (Runner, error) {
	if opts.Feeds == nil || opts.Articles == nil {
		return nil, errors.New("pipeline: feed and article fetchers are required")
	}
	b := base{opts: opts.withDefaults()}

	switch mode {
	case ModeSequential:
		return &sequentialRunner{base: b}, nil
	case ModeThreads:
		return newThreadRunner(b), nil
	case ModeAsync:
		return &asyncRunner{base: b}, nil
	case ModePool:
		return &poolRunner{base: b}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

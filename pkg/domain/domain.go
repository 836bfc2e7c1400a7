package domain

import "fmt"

// FeedRef identifies a single feed by URL
type FeedRef struct {
	URL string
}

// ArticleRef identifies one article discovered in a feed
// The URL is the stable key; Title may be empty if the feed item had none
type ArticleRef struct {
	URL   string
	Title string
	Feed  FeedRef
}

// Key returns the stable identity of the article, used for index entries
// and for deterministic tie-breaking in query results
func (r ArticleRef) Key() string {
	return r.URL
}

// Article is a fetched article body. It is never mutated after creation;
// the indexing task that fetched it owns it until its counts are merged
type Article struct {
	Ref  ArticleRef
	Text string
}

// FailureKind classifies a recorded fetch failure
type FailureKind string

const (
	// FailureFetch covers network errors, timeouts, and non-OK statuses
	FailureFetch FailureKind = "fetch"
	// FailureParse covers payloads that could not be turned into a feed or article
	FailureParse FailureKind = "parse"
)

// FetchFailure records one failed feed or article, kept in the run report
// instead of aborting the run
type FetchFailure struct {
	Target string
	Kind   FailureKind
	Err    error
}

// Error implements the error interface
func (f *FetchFailure) Error() string {
	return fmt.Sprintf("%s failure for %s: %v", f.Kind, f.Target, f.Err)
}

// Unwrap exposes the underlying cause
func (f *FetchFailure) Unwrap() error {
	return f.Err
}

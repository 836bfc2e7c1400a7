package feed

import (
	"bytes"
	"context"

	"github.com/mmcdole/gofeed"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/httpclient"
)

// Fetcher resolves a feed into the article references it lists.
// Implementations must be safe to call concurrently.
type Fetcher interface {
	FetchFeed(ctx context.Context, ref domain.FeedRef) ([]domain.ArticleRef, error)
}

// HTTPFetcher fetches RSS/Atom feeds over HTTP and parses them with gofeed.
type HTTPFetcher struct {
	client *httpclient.Client
}

// NewHTTPFetcher creates a feed fetcher backed by the given HTTP client.
func NewHTTPFetcher(client *httpclient.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// FetchFeed downloads and parses the feed at ref. Items without a link are
// skipped. A feed with no usable items is a valid, empty result, not an
// error; only transport and parse problems are.
func (f *HTTPFetcher) FetchFeed(ctx context.Context, ref domain.FeedRef) ([]domain.ArticleRef, error) {
	raw, err := f.client.Get(ctx, ref.URL)
	if err != nil {
		return nil, &domain.FetchFailure{Target: ref.URL, Kind: domain.FailureFetch, Err: err}
	}

	refs, err := parseFeed(raw, ref)
	if err != nil {
		return nil, &domain.FetchFailure{Target: ref.URL, Kind: domain.FailureParse, Err: err}
	}
	return refs, nil
}

// parseFeed turns raw feed bytes into article references. A fresh parser per
// call keeps concurrent fetches independent.
func parseFeed(raw []byte, ref domain.FeedRef) ([]domain.ArticleRef, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	refs := make([]domain.ArticleRef, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		refs = append(refs, domain.ArticleRef{
			URL:   item.Link,
			Title: item.Title,
			Feed:  ref,
		})
	}
	return refs, nil
}

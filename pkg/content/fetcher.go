package content

import (
	"context"

	"rss-indexer/pkg/domain"
	"rss-indexer/pkg/httpclient"
)

// Fetcher resolves an article reference into its text body.
// Implementations must be safe to call concurrently.
type Fetcher interface {
	FetchArticle(ctx context.Context, ref domain.ArticleRef) (domain.Article, error)
}

// HTTPFetcher fetches article pages over HTTP and extracts plain text.
type HTTPFetcher struct {
	client *httpclient.Client
}

// NewHTTPFetcher creates an article fetcher backed by the given HTTP client.
func NewHTTPFetcher(client *httpclient.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// FetchArticle downloads ref and extracts its text. When the feed item had
// no title, the page title fills it in. The returned Article is owned by the
// caller until merged.
func (f *HTTPFetcher) FetchArticle(ctx context.Context, ref domain.ArticleRef) (domain.Article, error) {
	raw, err := f.client.Get(ctx, ref.URL)
	if err != nil {
		return domain.Article{}, &domain.FetchFailure{Target: ref.URL, Kind: domain.FailureFetch, Err: err}
	}

	text, err := ExtractText(string(raw))
	if err != nil {
		return domain.Article{}, &domain.FetchFailure{Target: ref.URL, Kind: domain.FailureParse, Err: err}
	}

	if ref.Title == "" {
		if title, err := ExtractTitle(string(raw)); err == nil {
			ref.Title = title
		}
	}

	return domain.Article{Ref: ref, Text: text}, nil
}

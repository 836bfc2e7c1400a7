package feed

import (
	"context"
	"fmt"
	"os"

	"github.com/mmcdole/gofeed"

	"rss-indexer/pkg/domain"
)

// ListSource produces the ordered list of feeds a run should process.
type ListSource interface {
	Feeds(ctx context.Context) ([]domain.FeedRef, error)
}

// ConfigSource yields feed refs from a list of URLs, typically the `feeds`
// entry of the YAML config.
type ConfigSource struct {
	urls []string
}

// NewConfigSource creates a ListSource over the given URLs.
func NewConfigSource(urls []string) *ConfigSource {
	return &ConfigSource{urls: urls}
}

// Feeds returns the configured URLs as FeedRefs, preserving order.
func (s *ConfigSource) Feeds(_ context.Context) ([]domain.FeedRef, error) {
	refs := make([]domain.FeedRef, 0, len(s.urls))
	for _, u := range s.urls {
		if u == "" {
			continue
		}
		refs = append(refs, domain.FeedRef{URL: u})
	}
	return refs, nil
}

// FileSource reads the feed list from a local RSS/Atom file whose items are
// themselves feeds, each item link pointing at one feed to index.
type FileSource struct {
	path string
}

// NewFileSource creates a ListSource over the feed file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Feeds parses the feed file and returns one FeedRef per item link.
func (s *FileSource) Feeds(_ context.Context) ([]domain.FeedRef, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}
	defer file.Close()

	parsed, err := gofeed.NewParser().Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed file: %w", err)
	}

	refs := make([]domain.FeedRef, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		refs = append(refs, domain.FeedRef{URL: item.Link})
	}
	return refs, nil
}

package index

import (
	"errors"
	"sync"

	"rss-indexer/pkg/domain"
)

// ErrFrozen is returned by Merge once the index has been frozen for querying.
var ErrFrozen = errors.New("word index is frozen")

// WordIndex maps word → article key → occurrence count. It is the only
// structure shared across concurrent indexing tasks; every mutation goes
// through Merge, which applies one article's complete tally under a single
// critical section. The mutex is never held across I/O or any other blocking
// operation.
type WordIndex struct {
	mu     sync.RWMutex
	words  map[string]map[string]int
	refs   map[string]domain.ArticleRef
	frozen bool
}

// ArticleCount pairs an article with how often a word occurs in it.
type ArticleCount struct {
	Ref   domain.ArticleRef
	Count int
}

// New creates an empty, unfrozen WordIndex.
func New() *WordIndex {
	return &WordIndex{
		words: make(map[string]map[string]int),
		refs:  make(map[string]domain.ArticleRef),
	}
}

// Merge applies one article's complete word tally. All entries for the
// article land atomically: a reader never observes a partial merge, and
// concurrent merges for different articles cannot corrupt each other.
// Non-positive counts are ignored.
func (ix *WordIndex) Merge(ref domain.ArticleRef, counts map[string]int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.frozen {
		return ErrFrozen
	}

	key := ref.Key()
	ix.refs[key] = ref
	for word, count := range counts {
		if count <= 0 {
			continue
		}
		postings := ix.words[word]
		if postings == nil {
			postings = make(map[string]int)
			ix.words[word] = postings
		}
		postings[key] = count
	}
	return nil
}

// Freeze marks the index read-only. Called by the runner once every
// discovered article has either merged or been recorded as failed; queries
// are only supported after this point.
func (ix *WordIndex) Freeze() {
	ix.mu.Lock()
	ix.frozen = true
	ix.mu.Unlock()
}

// Frozen reports whether the index has been frozen.
func (ix *WordIndex) Frozen() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.frozen
}

// Words returns the number of distinct words indexed.
func (ix *WordIndex) Words() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.words)
}

// Articles returns the number of articles merged into the index.
func (ix *WordIndex) Articles() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.refs)
}

// Snapshot returns a deep copy of the whole index as word → article key →
// count, used to compare runs and by callers that want to walk every word.
func (ix *WordIndex) Snapshot() map[string]map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]map[string]int, len(ix.words))
	for word, postings := range ix.words {
		copied := make(map[string]int, len(postings))
		for key, count := range postings {
			copied[key] = count
		}
		out[word] = copied
	}
	return out
}

// Lookup returns a copy of the posting map for word (article key → count).
// An absent word yields an empty map.
func (ix *WordIndex) Lookup(word string) map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]int, len(ix.words[word]))
	for key, count := range ix.words[word] {
		out[key] = count
	}
	return out
}

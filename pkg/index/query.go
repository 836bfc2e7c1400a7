package index

import "sort"

// TopArticles returns up to n articles mentioning word, ordered by descending
// occurrence count with ties broken by ascending article key so results are
// deterministic. An absent word yields an empty slice. Results are only
// meaningful once the index is frozen; reads during an active run are
// unsupported.
func (ix *WordIndex) TopArticles(word string, n int) []ArticleCount {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	postings := ix.words[word]
	results := make([]ArticleCount, 0, len(postings))
	for key, count := range postings {
		results = append(results, ArticleCount{Ref: ix.refs[key], Count: count})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Ref.Key() < results[j].Ref.Key()
	})

	if n >= 0 && len(results) > n {
		results = results[:n]
	}
	return results
}

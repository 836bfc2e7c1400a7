package tokenizer

import (
	"iter"
	"strings"
	"unicode"
)

// Tokenize turns article text into a lazy sequence of normalized words:
// lower-cased, surrounding punctuation stripped, whitespace-split, empties
// dropped. The sequence is finite and restartable (re-ranging replays it),
// and Tokenize holds no shared state, so it is safe to call from any number
// of goroutines.
func Tokenize(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for field := range strings.FieldsSeq(text) {
			word := normalize(field)
			if word == "" {
				continue
			}
			if !yield(word) {
				return
			}
		}
	}
}

// Counts folds Tokenize into the per-article tally the index merge consumes.
func Counts(text string) map[string]int {
	counts := make(map[string]int)
	for word := range Tokenize(text) {
		counts[word]++
	}
	return counts
}

// normalize lower-cases a raw field and trims leading/trailing punctuation.
// Interior punctuation survives so contractions like "don't" stay one word.
func normalize(field string) string {
	word := strings.ToLower(field)
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

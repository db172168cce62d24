// Package search provides free-text lookup over the verse corpus. Queries
// and verses are compared in normalized form, so diacritics and common
// spelling variants do not affect recall.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/adelkhalifa/qbot/core/arabic"
	"github.com/adelkhalifa/qbot/core/quran"
)

const (
	// minQueryRunes is the shortest query worth searching; anything
	// shorter matches half the corpus.
	minQueryRunes = 3
	// fuzzyCutoff is the minimum similarity score (0..100) for a verse
	// to appear in fuzzy results.
	fuzzyCutoff = 60
	// DefaultLimit caps result counts when the caller passes limit <= 0.
	DefaultLimit = 10
)

// Result is one matched verse.
type Result struct {
	Chapter int
	Verse   int
	Page    int    // mushaf page holding the verse
	Text    string // original, un-normalized verse text
	Score   int    // 100 for substring hits, similarity otherwise
}

// Index is a prepared search index over one corpus. Building it
// normalizes every verse once; lookups then run over the cached forms.
// An Index is immutable and safe for concurrent use.
type Index struct {
	corpus *quran.Corpus
	norm   []string
}

// NewIndex builds the index for a corpus.
func NewIndex(c *quran.Corpus) *Index {
	verses := c.Verses()
	norm := make([]string, len(verses))
	for i, v := range verses {
		norm[i] = arabic.Normalize(v)
	}
	return &Index{corpus: c, norm: norm}
}

// Search finds verses matching the query. Substring matches win outright;
// only when none exist does the slower similarity scan run. Results come
// back in corpus order for substring hits and by descending score for
// fuzzy hits, at most limit entries.
func (ix *Index) Search(query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := arabic.Normalize(query)
	if utf8.RuneCountInString(q) < minQueryRunes {
		return nil
	}

	var out []Result
	for i, nv := range ix.norm {
		if strings.Contains(nv, q) {
			out = append(out, ix.result(i, 100))
			if len(out) == limit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	type scored struct {
		idx   int
		score int
	}
	var candidates []scored
	for i, nv := range ix.norm {
		if score := fuzzy.Ratio(q, nv); score >= fuzzyCutoff {
			candidates = append(candidates, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for _, c := range candidates {
		out = append(out, ix.result(c.idx, c.score))
	}
	return out
}

func (ix *Index) result(i, score int) Result {
	ch, v := ix.corpus.Location(i)
	text, _ := ix.corpus.Verse(ch, v)
	return Result{Chapter: ch, Verse: v, Page: ix.corpus.PageFor(ch, v), Text: text, Score: score}
}

package nlu

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/adelkhalifa/qbot/core/arabic"
	"github.com/adelkhalifa/qbot/core/quran"
)

// matchThreshold is the minimum WRatio score for a chapter-name match.
// Scores at or below it are treated as no match.
const matchThreshold = 80

// Catalog resolves chapter names to chapter numbers with fuzzy matching.
// Both Arabic and transliterated names are indexed in normalized form, so
// misspellings and missing diacritics still land on the right chapter.
type Catalog struct {
	entries []catalogEntry
}

type catalogEntry struct {
	name    string
	chapter int
}

// NewCatalog indexes the chapter names of a corpus.
func NewCatalog(c *quran.Corpus) *Catalog {
	cat := &Catalog{entries: make([]catalogEntry, 0, quran.NumChapters*2)}
	for n := 1; n <= quran.NumChapters; n++ {
		ch, err := c.Chapter(n)
		if err != nil {
			continue
		}
		cat.add(ch.NameArabic, n)
		cat.add(ch.NameEnglish, n)
	}
	return cat
}

func (cat *Catalog) add(name string, chapter int) {
	norm := arabic.Normalize(name)
	if norm == "" {
		return
	}
	cat.entries = append(cat.entries, catalogEntry{name: norm, chapter: chapter})
	// Index the bare form as well so "baqarah" matches "al-baqarah" and
	// "بقره" matches "البقره".
	if bare := stripArticle(norm); bare != norm {
		cat.entries = append(cat.entries, catalogEntry{name: bare, chapter: chapter})
	}
}

func stripArticle(name string) string {
	for _, prefix := range []string{"ال", "al-", "al ", "an-", "an ", "as-", "as "} {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			return name[len(prefix):]
		}
	}
	return name
}

// Match returns the chapter whose name best matches the given text, or
// ok=false when no name scores above the threshold. The input is
// normalized before scoring.
func (cat *Catalog) Match(text string) (chapter int, ok bool) {
	query := arabic.Normalize(text)
	if query == "" {
		return 0, false
	}
	best := matchThreshold
	for _, e := range cat.entries {
		score := fuzzy.WRatio(query, e.name)
		if score > best {
			best = score
			chapter = e.chapter
			ok = true
		}
	}
	return chapter, ok
}

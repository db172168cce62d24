// Package quran provides read-only access to the Quran corpus: chapter
// metadata, page boundaries and the flat ordered verse array. The corpus is
// loaded once at process start and is immutable afterwards; every lookup is
// safe for concurrent use.
//
// Indexing conventions: chapters are 1..114, verses are 1-based within
// their chapter, pages are 1..604. The verse array is 0-based; position i
// belongs to chapter c where Chapters[c].Start <= i < Start+Count.
package quran

import (
	"fmt"

	"github.com/adelkhalifa/qbot/core/errors"
)

const (
	// NumChapters is the number of chapters (suras) in the corpus.
	NumChapters = 114
	// NumPages is the number of print pages in the standard pagination.
	NumPages = 604
	// TotalVerses is the total number of verses across all chapters.
	TotalVerses = 6236
)

// Chapter holds the metadata of one sura.
type Chapter struct {
	Start       int    // 0-based index of the chapter's first verse in the flat array
	Count       int    // number of verses in the chapter
	NameArabic  string // Arabic name, e.g. "البقرة"
	NameEnglish string // transliterated/English name, may be empty
}

// PageRef identifies the verse at which a page begins.
type PageRef struct {
	Chapter int
	Verse   int
}

// Corpus is the in-memory Quran data source.
type Corpus struct {
	chapters []Chapter // index 0 unused, 1..114
	pages    []PageRef // index 0 unused, 1..604; may be empty
	verses   []string  // flat, 0-based, TotalVerses entries
}

// New assembles a Corpus from its parts. Slices are 1-based: index 0 of
// chapters and pages is ignored. New does not validate; call Validate.
func New(chapters []Chapter, pages []PageRef, verses []string) *Corpus {
	return &Corpus{chapters: chapters, pages: pages, verses: verses}
}

// Validate checks the structural invariants the rest of the system relies
// on: contiguous 1-based chapter numbering, contiguous verse coverage of
// the flat array, and the expected total verse count.
func (c *Corpus) Validate() error {
	if len(c.chapters) != NumChapters+1 {
		return errors.NewParse("metadata", "", fmt.Sprintf("expected %d chapters, got %d", NumChapters, len(c.chapters)-1))
	}

	offset := 0
	for n := 1; n <= NumChapters; n++ {
		ch := c.chapters[n]
		if ch.Start != offset {
			return errors.NewParse("metadata", "", fmt.Sprintf("chapter %d starts at %d, expected %d", n, ch.Start, offset))
		}
		if ch.Count < 1 {
			return errors.NewParse("metadata", "", fmt.Sprintf("chapter %d has invalid verse count %d", n, ch.Count))
		}
		offset += ch.Count
	}
	if offset != TotalVerses {
		return errors.NewParse("metadata", "", fmt.Sprintf("chapter counts sum to %d, expected %d", offset, TotalVerses))
	}
	if len(c.verses) != TotalVerses {
		return errors.NewParse("verses", "", fmt.Sprintf("verse array has %d entries, expected %d", len(c.verses), TotalVerses))
	}
	if len(c.pages) != 0 && len(c.pages) != NumPages+1 {
		return errors.NewParse("metadata", "", fmt.Sprintf("expected %d pages, got %d", NumPages, len(c.pages)-1))
	}
	return nil
}

// Chapter returns the metadata for chapter n (1..114).
func (c *Corpus) Chapter(n int) (Chapter, error) {
	if n < 1 || n > NumChapters {
		return Chapter{}, errors.NewOutOfRange("chapter", n, NumChapters)
	}
	return c.chapters[n], nil
}

// VerseCount returns the number of verses in chapter n, or 0 if n is
// out of range.
func (c *Corpus) VerseCount(n int) int {
	if n < 1 || n > NumChapters {
		return 0
	}
	return c.chapters[n].Count
}

// Name returns the chapter name in the requested language ("ar" or "en").
// It falls back to the Arabic name and then to "Sura N".
func (c *Corpus) Name(n int, lang string) string {
	if n < 1 || n > NumChapters {
		return fmt.Sprintf("Sura %d", n)
	}
	ch := c.chapters[n]
	if lang != "ar" && ch.NameEnglish != "" {
		return ch.NameEnglish
	}
	if ch.NameArabic != "" {
		return ch.NameArabic
	}
	return fmt.Sprintf("Sura %d", n)
}

// HasPages reports whether page boundary data was loaded.
func (c *Corpus) HasPages() bool {
	return len(c.pages) > 0
}

// Location maps a flat verse index to its (chapter, verse) pair. A linear
// scan over 114 chapters is fast enough for every caller in this codebase.
func (c *Corpus) Location(i int) (chapter, verse int) {
	for n := 1; n <= NumChapters; n++ {
		ch := c.chapters[n]
		if i >= ch.Start && i < ch.Start+ch.Count {
			return n, i - ch.Start + 1
		}
	}
	return 1, 1
}

// Index maps a (chapter, verse) pair to its flat array index.
func (c *Corpus) Index(chapter, verse int) (int, error) {
	if chapter < 1 || chapter > NumChapters {
		return 0, errors.NewOutOfRange("chapter", chapter, NumChapters)
	}
	ch := c.chapters[chapter]
	if verse < 1 || verse > ch.Count {
		return 0, errors.NewOutOfRange("verse", verse, ch.Count)
	}
	return ch.Start + verse - 1, nil
}

// Verse returns the text of one verse.
func (c *Corpus) Verse(chapter, verse int) (string, error) {
	i, err := c.Index(chapter, verse)
	if err != nil {
		return "", err
	}
	return c.verses[i], nil
}

// Verses returns the flat ordered verse array. The returned slice is
// shared; callers must not modify it.
func (c *Corpus) Verses() []string {
	return c.verses
}

// PageFor returns the page containing the given verse: the greatest page
// boundary not exceeding it. Defaults to the last page when no boundary
// exceeds the verse, and to page 1 when no page data is loaded.
func (c *Corpus) PageFor(chapter, verse int) int {
	if len(c.pages) == 0 {
		return 1
	}
	for p := 1; p < len(c.pages); p++ {
		ref := c.pages[p]
		if ref.Chapter > chapter || (ref.Chapter == chapter && ref.Verse > verse) {
			if p == 1 {
				return 1
			}
			return p - 1
		}
	}
	return len(c.pages) - 1
}

// PageBounds returns the first and last verse of a page. The end is the
// verse immediately preceding the next page's start; for the final page it
// is the last verse of the corpus.
func (c *Corpus) PageBounds(page int) (start, end PageRef, err error) {
	if len(c.pages) == 0 {
		return PageRef{}, PageRef{}, errors.NewNotFound("page table", "")
	}
	if page < 1 || page >= len(c.pages) {
		return PageRef{}, PageRef{}, errors.NewOutOfRange("page", page, len(c.pages)-1)
	}

	start = c.pages[page]
	if page+1 < len(c.pages) {
		next := c.pages[page+1]
		i, ierr := c.Index(next.Chapter, next.Verse)
		if ierr != nil {
			return PageRef{}, PageRef{}, ierr
		}
		ch, v := c.Location(i - 1)
		end = PageRef{Chapter: ch, Verse: v}
	} else {
		end = PageRef{Chapter: NumChapters, Verse: c.chapters[NumChapters].Count}
	}
	return start, end, nil
}

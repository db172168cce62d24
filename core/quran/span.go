package quran

import (
	"fmt"

	"github.com/adelkhalifa/qbot/core/errors"
)

// Span is an inclusive verse range, possibly crossing chapter boundaries.
type Span struct {
	FromChapter int
	FromVerse   int
	ToChapter   int
	ToVerse     int
}

// NewSpan builds a validated span over the corpus. Both endpoints must
// exist and the start must not come after the end in corpus order.
func (c *Corpus) NewSpan(fromChapter, fromVerse, toChapter, toVerse int) (Span, error) {
	from, err := c.Index(fromChapter, fromVerse)
	if err != nil {
		return Span{}, err
	}
	to, err := c.Index(toChapter, toVerse)
	if err != nil {
		return Span{}, err
	}
	if from > to {
		return Span{}, errors.Wrapf(errors.ErrInvalidInput,
			"range %d:%d-%d:%d runs backwards", fromChapter, fromVerse, toChapter, toVerse)
	}
	return Span{FromChapter: fromChapter, FromVerse: fromVerse, ToChapter: toChapter, ToVerse: toVerse}, nil
}

// SingleVerse builds a span covering exactly one verse.
func (c *Corpus) SingleVerse(chapter, verse int) (Span, error) {
	return c.NewSpan(chapter, verse, chapter, verse)
}

// ChapterSpan builds a span covering an entire chapter.
func (c *Corpus) ChapterSpan(chapter int) (Span, error) {
	count := c.VerseCount(chapter)
	if count == 0 {
		return Span{}, errors.NewOutOfRange("chapter", chapter, NumChapters)
	}
	return c.NewSpan(chapter, 1, chapter, count)
}

// String renders the span in colon notation, e.g. "2:255" or "2:285-3:2".
func (s Span) String() string {
	if s.FromChapter == s.ToChapter && s.FromVerse == s.ToVerse {
		return fmt.Sprintf("%d:%d", s.FromChapter, s.FromVerse)
	}
	if s.FromChapter == s.ToChapter {
		return fmt.Sprintf("%d:%d-%d", s.FromChapter, s.FromVerse, s.ToVerse)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.FromChapter, s.FromVerse, s.ToChapter, s.ToVerse)
}

// Len returns the number of verses the span covers within the corpus.
func (c *Corpus) SpanLen(s Span) int {
	from, err := c.Index(s.FromChapter, s.FromVerse)
	if err != nil {
		return 0
	}
	to, err := c.Index(s.ToChapter, s.ToVerse)
	if err != nil || to < from {
		return 0
	}
	return to - from + 1
}

// Each calls fn for every (chapter, verse) in the span, in corpus order.
// Enumeration stops at the first error, which is returned.
func (c *Corpus) Each(s Span, fn func(chapter, verse int) error) error {
	for ch := s.FromChapter; ch <= s.ToChapter; ch++ {
		first := 1
		if ch == s.FromChapter {
			first = s.FromVerse
		}
		last := c.VerseCount(ch)
		if ch == s.ToChapter {
			last = s.ToVerse
		}
		for v := first; v <= last; v++ {
			if err := fn(ch, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SpanVerses returns the text of every verse in the span, in order.
func (c *Corpus) SpanVerses(s Span) ([]string, error) {
	out := make([]string, 0, c.SpanLen(s))
	err := c.Each(s, func(ch, v int) error {
		text, verr := c.Verse(ch, v)
		if verr != nil {
			return verr
		}
		out = append(out, text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

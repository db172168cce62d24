package nlu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelkhalifa/qbot/core/quran"
)

// testCorpus builds a synthetic corpus with realistic names for a handful
// of chapters and a real-sized chapter 2, so fuzzy matching and verse
// bounds behave like production data.
func testCorpus(t *testing.T) *quran.Corpus {
	t.Helper()

	names := map[int][2]string{
		1:   {"الفاتحة", "Al-Faatiha"},
		2:   {"البقرة", "Al-Baqara"},
		3:   {"آل عمران", "Aal-i-Imraan"},
		4:   {"النساء", "An-Nisaa"},
		5:   {"المائدة", "Al-Maaida"},
		112: {"الإخلاص", "Al-Ikhlaas"},
		113: {"الفلق", "Al-Falaq"},
		114: {"الناس", "An-Naas"},
	}

	counts := make([]int, quran.NumChapters+1)
	for n := 1; n <= quran.NumChapters; n++ {
		counts[n] = 52
	}
	counts[2] = 286
	counts[114] = quran.TotalVerses - 286 - 52*(quran.NumChapters-2)

	chapters := make([]quran.Chapter, quran.NumChapters+1)
	var verses []string
	offset := 0
	for n := 1; n <= quran.NumChapters; n++ {
		ar, en := fmt.Sprintf("سورة-%d", n), fmt.Sprintf("Chapter-%d", n)
		if pair, ok := names[n]; ok {
			ar, en = pair[0], pair[1]
		}
		chapters[n] = quran.Chapter{Start: offset, Count: counts[n], NameArabic: ar, NameEnglish: en}
		for v := 1; v <= counts[n]; v++ {
			verses = append(verses, fmt.Sprintf("verse %d:%d", n, v))
		}
		offset += counts[n]
	}

	c := quran.New(chapters, nil, verses)
	require.NoError(t, c.Validate())
	return c
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(testCorpus(t))
}

func TestCatalogMatch(t *testing.T) {
	cat := NewCatalog(testCorpus(t))

	cases := []struct {
		query   string
		chapter int
	}{
		{"البقرة", 2},
		{"البقره", 2},    // Ta Marbuta variant
		{"بقره", 2},      // bare, no article
		{"baqara", 2},    // transliteration without article
		{"al-baqara", 2}, // exact transliteration
		{"الاخلاص", 112}, // no hamza
		{"الفاتحه", 1},
		{"falaq", 113},
	}
	for _, tc := range cases {
		ch, ok := cat.Match(tc.query)
		require.True(t, ok, "no match for %q", tc.query)
		assert.Equal(t, tc.chapter, ch, "query %q", tc.query)
	}

	_, ok := cat.Match("zzzzqqq")
	assert.False(t, ok)
	_, ok = cat.Match("")
	assert.False(t, ok)
}

func TestResolvePage(t *testing.T) {
	r := testResolver(t)

	ref := r.Resolve("page 50")
	assert.Equal(t, KindPage, ref.Kind)
	assert.Equal(t, 50, ref.Page)

	ref = r.Resolve("صفحة ٦٠٤")
	assert.Equal(t, KindPage, ref.Kind)
	assert.Equal(t, 604, ref.Page)
}

func TestResolveColon(t *testing.T) {
	r := testResolver(t)

	ref := r.Resolve("2:255")
	assert.Equal(t, KindSpan, ref.Kind)
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 255, ToChapter: 2, ToVerse: 255}, ref.Span)

	ref = r.Resolve("2:1-5")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 1, ToChapter: 2, ToVerse: 5}, ref.Span)

	ref = r.Resolve("البقرة:255")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 255, ToChapter: 2, ToVerse: 255}, ref.Span)

	// Name plus number before the colon: start verse, then end verse.
	ref = r.Resolve("baqara 2:5")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 2, ToChapter: 2, ToVerse: 5}, ref.Span)
}

func TestResolveRange(t *testing.T) {
	r := testResolver(t)

	// Bare number after "to" continues the starting chapter.
	ref := r.Resolve("surah 2 verse 5 to 10")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 5, ToChapter: 2, ToVerse: 10}, ref.Span)

	ref = r.Resolve("من البقرة ٥ الى ٧")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 5, ToChapter: 2, ToVerse: 7}, ref.Span)

	// Chapter to chapter covers both whole chapters.
	ref = r.Resolve("2 to 3")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 1, ToChapter: 3, ToVerse: 52}, ref.Span)

	// Cross-chapter with explicit verses.
	ref = r.Resolve("2 285 حتى 3 2")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 285, ToChapter: 3, ToVerse: 2}, ref.Span)
}

func TestResolveChunk(t *testing.T) {
	r := testResolver(t)

	ref := r.Resolve("البقرة")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 1, ToChapter: 2, ToVerse: 286}, ref.Span)

	ref = r.Resolve("surah baqara verse 255")
	assert.Equal(t, quran.Span{FromChapter: 2, FromVerse: 255, ToChapter: 2, ToVerse: 255}, ref.Span)

	ref = r.Resolve("114")
	assert.Equal(t, 114, ref.Span.FromChapter)
	assert.Equal(t, 1, ref.Span.FromVerse)
}

// Resolve is total: shape matches whose numbers fail validation fall
// through the rule chain and end up as search, never as an error.
func TestResolveFallsBackOnInvalid(t *testing.T) {
	r := testResolver(t)

	for _, input := range []string{
		"",
		"   ",
		"200",
		"page 700",
		"2:999",
		"115:1",
		"2:10-5",
		"3 5 to 2 1",
		"سورة ٢ اية ٩٩٩",
	} {
		ref := r.Resolve(input)
		assert.Equal(t, KindSearch, ref.Kind, "input %q", input)
		assert.Equal(t, input, ref.Query, "input %q", input)
	}
}

// The fallback query is the input exactly as typed, not a normalized
// form; search does its own normalization.
func TestResolveSearchFallback(t *testing.T) {
	r := testResolver(t)

	ref := r.Resolve("Hello   World xyzqq")
	assert.Equal(t, KindSearch, ref.Kind)
	assert.Equal(t, "Hello   World xyzqq", ref.Query)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "span", KindSpan.String())
	assert.Equal(t, "page", KindPage.String())
	assert.Equal(t, "search", KindSearch.String())
}

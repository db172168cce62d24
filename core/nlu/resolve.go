package nlu

import (
	"strconv"
	"strings"

	"github.com/adelkhalifa/qbot/core/arabic"
	"github.com/adelkhalifa/qbot/core/quran"
)

// Keyword sets recognized by the grammar, all in normalized form. The
// Arabic "to" spellings cover the common ways users write حتى and إلى
// without hamza or with a final ya.
var (
	pageWords  = wordSet("page", "صفحه")
	toWords    = wordSet("to", "الي", "إلي", "حتي", "الى", "إلى", "حتى")
	labelWords = wordSet(
		"from", "surah", "sura", "chapter", "ayah", "aya", "verse",
		"من", "سوره", "ايه", "آيه",
	)
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[arabic.Normalize(w)] = true
	}
	return m
}

// Resolver turns user text into References against one corpus.
type Resolver struct {
	corpus  *quran.Corpus
	catalog *Catalog
}

// NewResolver builds a Resolver over the given corpus.
func NewResolver(c *quran.Corpus) *Resolver {
	return &Resolver{corpus: c, catalog: NewCatalog(c)}
}

// Resolve parses user text into a Reference. Grammar rules are tried in
// priority order; text that matches a rule's shape but fails validation
// (page 700, chapter 115, backwards range) falls through to the next
// rule, so Resolve always produces a Reference and never an error. Text
// matching no rule resolves to KindSearch carrying the input as typed.
func (r *Resolver) Resolve(text string) Reference {
	norm := arabic.Normalize(text)
	tokens := strings.Fields(norm)

	// Rule 1: "page N".
	if len(tokens) >= 2 && pageWords[tokens[0]] {
		if n, ok := parseInt(tokens[1]); ok && n >= 1 && n <= quran.NumPages {
			return Reference{Kind: KindPage, Page: n}
		}
	}

	// Rule 2: colon notation "S:A", "S:A-B", "Name A:B".
	if strings.ContainsRune(norm, ':') {
		if ref, ok := r.resolveColon(norm); ok {
			return ref
		}
	}

	// Rule 3: "X to Y" range between two chunks.
	if left, right, found := splitOnKeyword(tokens, toWords); found {
		if ref, ok := r.resolveRange(left, right); ok {
			return ref
		}
	}

	// Rule 4: a single labeled chunk, "surah 2 verse 5" or "البقره ٢٥٥".
	if ep, ok := r.parseChunk(tokens); ok {
		if ref, ok := r.chunkReference(ep); ok {
			return ref
		}
	}

	// Rule 5: free-text search over the untouched input.
	return Reference{Kind: KindSearch, Query: text}
}

// resolveColon handles "S:A[-B]" with an optional name prefix. A trailing
// number before the colon after a matched name is read as the starting
// verse: "baqarah 2:5" means Al-Baqarah verses 2 through 5.
func (r *Resolver) resolveColon(norm string) (Reference, bool) {
	left, right, _ := strings.Cut(norm, ":")
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if left == "" || right == "" {
		return Reference{}, false
	}

	fromVerse, toVerse, ok := parseVerseRange(right)
	if !ok {
		return Reference{}, false
	}

	leftTokens := strings.Fields(left)
	chapter := 0
	last := leftTokens[len(leftTokens)-1]
	if n, isInt := parseInt(last); isInt {
		if name := strings.Join(leftTokens[:len(leftTokens)-1], " "); name != "" {
			if ch, matched := r.catalog.Match(name); matched {
				// Name plus number: the number is the start verse
				// and the part after the colon is the end verse.
				span, err := r.corpus.NewSpan(ch, n, ch, fromVerse)
				if err != nil {
					return Reference{}, false
				}
				return Reference{Kind: KindSpan, Span: span}, true
			}
		}
		chapter = n
	} else if ch, matched := r.catalog.Match(left); matched {
		chapter = ch
	} else {
		return Reference{}, false
	}

	if toVerse == 0 {
		toVerse = fromVerse
	}
	span, err := r.corpus.NewSpan(chapter, fromVerse, chapter, toVerse)
	if err != nil {
		return Reference{}, false
	}
	return Reference{Kind: KindSpan, Span: span}, true
}

// resolveRange handles "X to Y". The second chunk inherits the first
// chunk's chapter when it carries only a verse number.
func (r *Resolver) resolveRange(left, right []string) (Reference, bool) {
	from, ok := r.parseChunk(left)
	if !ok {
		return Reference{}, false
	}
	to, ok := r.parseChunk(right)
	if !ok {
		return Reference{}, false
	}

	// A bare number after "to" is a verse in the starting chapter when
	// the start already names a verse: "2 5 to 7" reads as 2:5-2:7.
	if to.bare && from.verse != 0 {
		to = endpoint{chapter: from.chapter, verse: to.chapter}
	}
	if to.chapter == 0 {
		to.chapter = from.chapter
	}
	if from.verse == 0 {
		from.verse = 1
	}
	if to.verse == 0 {
		to.verse = r.corpus.VerseCount(to.chapter)
	}
	span, err := r.corpus.NewSpan(from.chapter, from.verse, to.chapter, to.verse)
	if err != nil {
		return Reference{}, false
	}
	return Reference{Kind: KindSpan, Span: span}, true
}

// endpoint is one parsed chunk: a chapter and an optional verse. bare
// marks a chunk that was nothing but a single number, whose meaning
// depends on the surrounding range.
type endpoint struct {
	chapter int
	verse   int
	bare    bool
}

// parseChunk reads one reference chunk: label words are dropped, numbers
// and a possible chapter name are collected. Returns ok=false when the
// chunk has neither a usable number nor a matching name.
func (r *Resolver) parseChunk(tokens []string) (endpoint, bool) {
	var nums []int
	var words []string
	for _, tok := range tokens {
		if labelWords[tok] {
			continue
		}
		if n, ok := parseInt(tok); ok {
			nums = append(nums, n)
			continue
		}
		words = append(words, tok)
	}

	var ep endpoint
	if len(words) > 0 {
		ch, matched := r.catalog.Match(strings.Join(words, " "))
		if !matched {
			return endpoint{}, false
		}
		ep.chapter = ch
		if len(nums) > 0 {
			ep.verse = nums[0]
		}
	} else {
		switch len(nums) {
		case 0:
			return endpoint{}, false
		case 1:
			ep.chapter = nums[0]
			ep.bare = true
		default:
			ep.chapter = nums[0]
			ep.verse = nums[1]
		}
	}
	return ep, true
}

// chunkReference turns a lone chunk into a span: a verse if one was
// given, the whole chapter otherwise.
func (r *Resolver) chunkReference(ep endpoint) (Reference, bool) {
	var (
		span quran.Span
		err  error
	)
	if ep.verse == 0 {
		span, err = r.corpus.ChapterSpan(ep.chapter)
	} else {
		span, err = r.corpus.SingleVerse(ep.chapter, ep.verse)
	}
	if err != nil {
		return Reference{}, false
	}
	return Reference{Kind: KindSpan, Span: span}, true
}

// splitOnKeyword splits tokens at the first occurrence of any keyword.
// The keyword itself is dropped. Splits producing an empty side are not
// reported as found.
func splitOnKeyword(tokens []string, words map[string]bool) (left, right []string, found bool) {
	for i, tok := range tokens {
		if words[tok] && i > 0 && i < len(tokens)-1 {
			return tokens[:i], tokens[i+1:], true
		}
	}
	return nil, nil, false
}

// parseVerseRange reads "A" or "A-B" after a colon.
func parseVerseRange(s string) (from, to int, ok bool) {
	if a, b, cut := strings.Cut(s, "-"); cut {
		from, ok = parseInt(strings.TrimSpace(a))
		if !ok {
			return 0, 0, false
		}
		to, ok = parseInt(strings.TrimSpace(b))
		if !ok {
			return 0, 0, false
		}
		return from, to, true
	}
	from, ok = parseInt(s)
	return from, 0, ok
}

// parseInt reads a positive integer, accepting Arabic-Indic digits.
func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩': // ٠..٩
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹': // extended Arabic-Indic
			b.WriteRune('0' + (r - '۰'))
		default:
			return 0, false
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

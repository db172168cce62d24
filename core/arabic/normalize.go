// Package arabic provides Arabic text canonicalization for matching and
// search. Normalization folds letter variants, strips diacritics and
// zero-width marks, and collapses whitespace so that differently-typed
// spellings of the same word compare equal.
package arabic

import (
	"strings"
	"unicode"
)

// Ta Marbuta folding to Ha is enabled. It widens search recall: a query
// typed with ه matches verse text written with ة and vice versa. The
// trade-off is that grammatically distinct words can collide; callers that
// need the distinction must compare original text.

// Normalize canonicalizes Arabic text. It is pure, deterministic and
// idempotent: Normalize(Normalize(s)) == Normalize(s).
//
// Rules, applied in order:
//  1. Fold Alif variants (hamza above/below, madda, wasla) to bare Alif.
//  2. Fold Alif Maksura to Ya.
//  3. Fold Hamza-on-Waw and Hamza-on-Ya to bare Hamza.
//  4. Fold Ta Marbuta to Ha.
//  5. Strip tashkeel (U+064B..U+065F, U+0670) and tatweel (U+0640).
//  6. Strip zero-width marks (ZWSP, ZWNJ, ZWJ, BOM).
//  7. Collapse whitespace runs to a single space, lowercase, trim.
//
// Non-Arabic input passes through unchanged apart from rule 7.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case r == 'إ' || r == 'أ' || r == 'آ' || r == 'ٱ':
			b.WriteRune('ا')
		case r == 'ى':
			b.WriteRune('ي')
		case r == 'ؤ' || r == 'ئ':
			b.WriteRune('ء')
		case r == 'ة':
			b.WriteRune('ه')
		case isTashkeel(r) || r == 'ـ':
			// dropped
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\uFEFF':
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return collapseSpace(strings.ToLower(b.String()))
}

// isTashkeel reports whether r is an Arabic diacritic mark. The range
// covers fatha, damma, kasra, sukun, shadda, tanween and the hamza marks,
// plus the superscript Alif at U+0670.
func isTashkeel(r rune) bool {
	return (r >= 'ً' && r <= 'ٟ') || r == 'ٰ'
}

// collapseSpace reduces every whitespace run to a single space and trims
// leading/trailing whitespace.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

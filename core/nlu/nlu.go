// Package nlu resolves free-form user text into Quran references. Input in
// Arabic or English is matched against a small grammar (page keyword, colon
// notation, from/to ranges, labeled chunks) with fuzzy chapter-name lookup;
// anything the grammar cannot claim falls through to free-text search.
package nlu

import (
	"fmt"

	"github.com/adelkhalifa/qbot/core/quran"
)

// Kind discriminates the resolution outcomes.
type Kind int

const (
	// KindSpan means the text resolved to a concrete verse range.
	KindSpan Kind = iota
	// KindPage means the text named a print page.
	KindPage
	// KindSearch means the text did not parse as a reference and should
	// be treated as a search query.
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindSpan:
		return "span"
	case KindPage:
		return "page"
	case KindSearch:
		return "search"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Reference is the result of resolving user text. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Reference struct {
	Kind  Kind
	Span  quran.Span // valid when Kind == KindSpan
	Page  int        // valid when Kind == KindPage
	Query string     // valid when Kind == KindSearch; normalized text
}

func (r Reference) String() string {
	switch r.Kind {
	case KindSpan:
		return r.Span.String()
	case KindPage:
		return fmt.Sprintf("page %d", r.Page)
	default:
		return fmt.Sprintf("search %q", r.Query)
	}
}

// Package locale holds the user-facing message catalog. Messages are
// embedded in the binary; missing translations fall back to English and
// unknown keys render as the key itself so a gap is visible, not fatal.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adelkhalifa/qbot/core/errors"
)

//go:embed locales/*.json
var localeFS embed.FS

// FallbackLang is used when a message is missing in the requested
// language.
const FallbackLang = "en"

// Bundle is a loaded message catalog.
type Bundle struct {
	messages map[string]map[string]string // lang -> key -> text
}

// Load parses the embedded catalog.
func Load() (*Bundle, error) {
	b := &Bundle{messages: make(map[string]map[string]string)}
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, errors.NewIO("readdir", "locales", err)
	}
	for _, e := range entries {
		lang := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, errors.NewIO("read", e.Name(), err)
		}
		var msgs map[string]string
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, errors.NewParseWrap("json", e.Name(), "locale decode failed", err)
		}
		b.messages[lang] = msgs
	}
	if _, ok := b.messages[FallbackLang]; !ok {
		return nil, errors.NewNotFound("fallback locale", FallbackLang)
	}
	return b, nil
}

// Languages lists the available language codes, sorted.
func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.messages))
	for lang := range b.messages {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a language is in the catalog.
func (b *Bundle) Has(lang string) bool {
	_, ok := b.messages[lang]
	return ok
}

// T renders the message for key in lang, formatting args when given.
func (b *Bundle) T(lang, key string, args ...any) string {
	text, ok := b.messages[lang][key]
	if !ok {
		text, ok = b.messages[FallbackLang][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// Package audio builds recitation MP3s for verse ranges by concatenating
// per-verse clips, and derives synchronized lyric (LRC) and subtitle (SRT)
// files from the clip durations. Outputs are cached under deterministic
// names so repeated requests reuse earlier work.
package audio

import (
	"fmt"

	"github.com/adelkhalifa/qbot/core/quran"
)

// RangeID is the 12-digit canonical identity of a verse range: start
// chapter and verse, then end chapter and verse, each three digits wide.
// Identical ranges always produce identical IDs.
func RangeID(s quran.Span) string {
	return fmt.Sprintf("%03d%03d%03d%03d", s.FromChapter, s.FromVerse, s.ToChapter, s.ToVerse)
}

// OutputName is the cache file name for a built range, unique per voice.
func OutputName(voice string, s quran.Span) string {
	return fmt.Sprintf("%s-%s.mp3", voice, RangeID(s))
}

// Package video composes verse videos: each verse appears as a centered
// text slide over a solid background, faded in and out, with the recitation
// track underneath when one is available.
package video

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// minCue and maxCue bound how long a single verse stays on screen
	// when the slide show is not paced by audio.
	minCue = 3 * time.Second
	maxCue = 8 * time.Second
	// perRune paces unpaced cues by text length.
	perRune = 60 * time.Millisecond
	// fade is the fade-in/out length applied to every cue.
	fade = 400 * time.Millisecond
	// minFontSize is the smallest size fitText will shrink to.
	minFontSize = 24
	// maxWrapLines caps how many lines one slide may wrap into.
	maxWrapLines = 4
)

// Cue is one slide on the video timeline.
type Cue struct {
	Text     string
	Start    time.Duration
	Duration time.Duration
}

// End is the timestamp at which the cue leaves the screen.
func (c Cue) End() time.Duration {
	return c.Start + c.Duration
}

// FormatVerse decorates verse text with ornate brackets and its number,
// the way printed mushafs mark verse ends.
func FormatVerse(text string, verse int) string {
	return fmt.Sprintf("﴿ %s ﴾ ﴿%d﴾", text, verse)
}

// CueTimeline paces slides by text length: longer verses stay on screen
// longer, clamped to a readable window.
func CueTimeline(texts []string) []Cue {
	cues := make([]Cue, len(texts))
	var cursor time.Duration
	for i, text := range texts {
		d := time.Duration(utf8.RuneCountInString(text)) * perRune
		if d < minCue {
			d = minCue
		}
		if d > maxCue {
			d = maxCue
		}
		cues[i] = Cue{Text: text, Start: cursor, Duration: d}
		cursor += d
	}
	return cues
}

// fitText wraps text into at most maxWrapLines lines that fit boxWidth at
// some font size, shrinking from the requested size until the layout fits
// or the minimum size is reached. A verse still too long at the minimum
// size keeps all its lines; no text is dropped. Character width is
// approximated as a fixed fraction of the font size, which is close
// enough for the display fonts ffmpeg renders.
func fitText(text string, boxWidth, fontSize int) (lines []string, size int) {
	size = fontSize
	for {
		lines = wrap(text, maxRunesPerLine(boxWidth, size))
		if len(lines) <= maxWrapLines || size <= minFontSize {
			break
		}
		size = size * 9 / 10
		if size < minFontSize {
			size = minFontSize
		}
	}
	return lines, size
}

func maxRunesPerLine(boxWidth, fontSize int) int {
	// Arabic glyphs average a bit over half the em size in width.
	perRune := fontSize * 55 / 100
	if perRune < 1 {
		perRune = 1
	}
	n := boxWidth / perRune
	if n < 1 {
		n = 1
	}
	return n
}

// wrap greedily packs words into lines of at most width runes. A single
// word longer than the width gets its own line rather than being split.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

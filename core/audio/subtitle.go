package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/adelkhalifa/qbot/core/errors"
)

// Line pairs a timed verse with its display text.
type Line struct {
	Timing VerseTiming
	Text   string
}

// Lines zips a timeline with verse texts. Both must come from the same
// span, in the same order.
func Lines(timings []VerseTiming, texts []string) ([]Line, error) {
	if len(timings) != len(texts) {
		return nil, errors.Wrapf(errors.ErrInternal, "timeline has %d entries but %d texts", len(timings), len(texts))
	}
	lines := make([]Line, len(timings))
	for i := range timings {
		lines[i] = Line{Timing: timings[i], Text: texts[i]}
	}
	return lines, nil
}

// WriteLRC renders a synchronized lyrics file. Timestamps use the LRC
// convention of minutes, seconds and centiseconds.
func WriteLRC(w io.Writer, voice string, lines []Line) error {
	if _, err := fmt.Fprintf(w, "[ti:Quran Recitation]\n[ar:%s]\n", voice); err != nil {
		return errors.NewIO("write", "lrc", err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "[%s]%s\n", lrcStamp(line.Timing.Start), line.Text); err != nil {
			return errors.NewIO("write", "lrc", err)
		}
	}
	return nil
}

// WriteSRT renders a SubRip subtitle file: numbered cues with a
// start --> end range in milliseconds.
func WriteSRT(w io.Writer, lines []Line) error {
	for i, line := range lines {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, srtStamp(line.Timing.Start), srtStamp(line.Timing.End()), line.Text)
		if err != nil {
			return errors.NewIO("write", "srt", err)
		}
	}
	return nil
}

func lrcStamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d / time.Minute)
	secs := int(d/time.Second) % 60
	cents := int(d/(10*time.Millisecond)) % 100
	return fmt.Sprintf("%02d:%02d.%02d", mins, secs, cents)
}

func srtStamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	mins := int(d/time.Minute) % 60
	secs := int(d/time.Second) % 60
	millis := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, mins, secs, millis)
}

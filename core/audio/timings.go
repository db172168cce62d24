package audio

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/internal/logging"
)

// fallbackDuration stands in for a clip whose length cannot be probed.
// Two seconds keeps the remaining cues roughly aligned instead of
// collapsing everything after the bad clip to one timestamp.
const fallbackDuration = 2 * time.Second

// VerseTiming places one verse on the built track's timeline.
type VerseTiming struct {
	Chapter  int
	Verse    int
	Start    time.Duration
	Duration time.Duration
}

// End is the timestamp at which the verse finishes.
func (t VerseTiming) End() time.Duration {
	return t.Start + t.Duration
}

// DurationProber measures the play length of a media file. The default
// implementation shells out to ffprobe.
type DurationProber interface {
	Duration(path string) (time.Duration, error)
}

// Timings computes the timeline of a span: each verse's start offset and
// duration on the concatenated track. Probe failures fall back to a fixed
// duration rather than failing the whole subtitle.
func (b *Builder) Timings(ctx context.Context, voice string, span quran.Span) ([]VerseTiming, error) {
	prober := b.Prober
	if prober == nil {
		prober = ffprobeProber{}
	}

	timings := make([]VerseTiming, 0, b.Corpus.SpanLen(span))
	var cursor time.Duration
	err := b.Corpus.Each(span, func(ch, v int) error {
		path, ferr := b.Fetcher.EnsureValid(ctx, voice, ch, v)
		if ferr != nil {
			return ferr
		}
		d, perr := prober.Duration(path)
		if perr != nil {
			logging.Warn("probe failed, using fallback duration", "path", path, "error", perr)
			d = fallbackDuration
		}
		timings = append(timings, VerseTiming{Chapter: ch, Verse: v, Start: cursor, Duration: d})
		cursor += d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return timings, nil
}

// TotalDuration sums a timeline.
func TotalDuration(timings []VerseTiming) time.Duration {
	var total time.Duration
	for _, t := range timings {
		total += t.Duration
	}
	return total
}

// ffprobeProber reads the container duration from ffprobe's JSON output.
type ffprobeProber struct{}

func (ffprobeProber) Duration(path string) (time.Duration, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, err
	}
	var doc struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(doc.Format.Duration, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

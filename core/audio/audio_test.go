package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/internal/fetch"
)

func testCorpus(t *testing.T) *quran.Corpus {
	t.Helper()

	counts := make([]int, quran.NumChapters+1)
	for n := 1; n < quran.NumChapters; n++ {
		counts[n] = 55
	}
	counts[quran.NumChapters] = quran.TotalVerses - 55*(quran.NumChapters-1)

	chapters := make([]quran.Chapter, quran.NumChapters+1)
	var verses []string
	offset := 0
	for n := 1; n <= quran.NumChapters; n++ {
		chapters[n] = quran.Chapter{
			Start: offset, Count: counts[n],
			NameArabic:  fmt.Sprintf("سورة-%d", n),
			NameEnglish: fmt.Sprintf("Chapter-%d", n),
		}
		for v := 1; v <= counts[n]; v++ {
			verses = append(verses, fmt.Sprintf("آية %d:%d", n, v))
		}
		offset += counts[n]
	}
	c := quran.New(chapters, nil, verses)
	require.NoError(t, c.Validate())
	return c
}

// plantClips writes fake clip files so the fetcher never goes to the
// network.
func plantClips(t *testing.T, f *fetch.Fetcher, voice string, c *quran.Corpus, span quran.Span) {
	t.Helper()
	err := c.Each(span, func(ch, v int) error {
		path := f.ClipPath(voice, ch, v)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte(fmt.Sprintf("clip-%d-%d;", ch, v)), 0o644)
	})
	require.NoError(t, err)
}

// fakeRunner concatenates input bytes directly. failTagged makes tagged
// runs fail, failAll makes every run fail.
type fakeRunner struct {
	calls      int
	failTagged bool
	failAll    bool
	lastMeta   *Metadata
}

func (r *fakeRunner) Concat(_ context.Context, inputs []string, out string, meta *Metadata) error {
	r.calls++
	r.lastMeta = meta
	if r.failAll || (r.failTagged && meta != nil) {
		return fmt.Errorf("simulated concat failure")
	}
	var buf []byte
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		buf = append(buf, data...)
	}
	return os.WriteFile(out, buf, 0o644)
}

type fakeProber struct {
	durations map[string]time.Duration
}

func (p fakeProber) Duration(path string) (time.Duration, error) {
	if d, ok := p.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("no duration for %s", path)
}

func testBuilder(t *testing.T) (*Builder, *fakeRunner, *quran.Corpus) {
	t.Helper()
	c := testCorpus(t)
	f := fetch.New(t.TempDir())
	runner := &fakeRunner{}
	b := NewBuilder(c, f, t.TempDir())
	b.Runner = runner
	return b, runner, c
}

func TestRangeID(t *testing.T) {
	assert.Equal(t, "002255002255", RangeID(quran.Span{FromChapter: 2, FromVerse: 255, ToChapter: 2, ToVerse: 255}))
	assert.Equal(t, "001001114006", RangeID(quran.Span{FromChapter: 1, FromVerse: 1, ToChapter: 114, ToVerse: 6}))
	assert.Equal(t, "voice-002001002005.mp3", OutputName("voice", quran.Span{FromChapter: 2, FromVerse: 1, ToChapter: 2, ToVerse: 5}))
}

func TestBuildMP3(t *testing.T) {
	b, runner, c := testBuilder(t)
	span, err := c.NewSpan(1, 1, 1, 3)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	out, err := b.BuildMP3(context.Background(), "voice", span, nil)
	require.NoError(t, err)
	assert.Equal(t, b.OutputPath("voice", span), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "clip-1-1;clip-1-2;clip-1-3;", string(data))

	// Second build is a cache hit and does not run ffmpeg again.
	calls := runner.calls
	_, err = b.BuildMP3(context.Background(), "voice", span, nil)
	require.NoError(t, err)
	assert.Equal(t, calls, runner.calls)
}

func TestBuildMP3RebuildsZeroByte(t *testing.T) {
	b, _, c := testBuilder(t)
	span, err := c.NewSpan(2, 1, 2, 2)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	out := b.OutputPath("voice", span)
	require.NoError(t, os.MkdirAll(b.OutDir, 0o755))
	require.NoError(t, os.WriteFile(out, nil, 0o644))

	got, err := b.BuildMP3(context.Background(), "voice", span, nil)
	require.NoError(t, err)
	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestBuildMP3UntaggedFallback(t *testing.T) {
	b, runner, c := testBuilder(t)
	runner.failTagged = true
	span, err := c.NewSpan(1, 1, 1, 2)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	out, err := b.BuildMP3(context.Background(), "voice", span, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "clip-1-1;clip-1-2;", string(data))
}

func TestBuildMP3SingleClipCopyFallback(t *testing.T) {
	b, runner, c := testBuilder(t)
	runner.failAll = true
	span, err := c.SingleVerse(3, 7)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	out, err := b.BuildMP3(context.Background(), "voice", span, nil)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "clip-3-7;", string(data))
}

func TestBuildMP3GenerationError(t *testing.T) {
	b, runner, c := testBuilder(t)
	runner.failAll = true
	span, err := c.NewSpan(1, 1, 1, 2)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	_, err = b.BuildMP3(context.Background(), "voice", span, nil)
	assert.ErrorIs(t, err, errors.ErrGenerationFailed)

	// No partial output and no stray temp files may remain.
	_, statErr := os.Stat(b.OutputPath("voice", span))
	assert.True(t, os.IsNotExist(statErr))
	leftovers, err := filepath.Glob(b.OutputPath("voice", span) + ".*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestBuildMP3CallerMetadata(t *testing.T) {
	b, runner, c := testBuilder(t)
	span, err := c.NewSpan(1, 1, 1, 2)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	meta := &Metadata{Title: "Evening Recitation", Artist: "Shaykh Example"}
	_, err = b.BuildMP3(context.Background(), "voice", span, meta)
	require.NoError(t, err)
	assert.Equal(t, meta, runner.lastMeta)
}

func TestDefaultMetadata(t *testing.T) {
	b, _, c := testBuilder(t)
	span, err := c.NewSpan(2, 1, 2, 5)
	require.NoError(t, err)

	m := b.DefaultMetadata("voice", span)
	assert.Equal(t, "Chapter-2 (2:1-5)", m.Title)
	assert.Equal(t, "voice", m.Artist)
}

func TestBuildMP3MissingClip(t *testing.T) {
	b, _, c := testBuilder(t)
	span, err := c.NewSpan(1, 1, 1, 2)
	require.NoError(t, err)
	// No clips planted and no reachable server.
	b.Fetcher.BaseURL = "http://127.0.0.1:1"

	_, err = b.BuildMP3(context.Background(), "voice", span, nil)
	assert.ErrorIs(t, err, errors.ErrMissingMedia)
}

func TestTimings(t *testing.T) {
	b, _, c := testBuilder(t)
	span, err := c.NewSpan(1, 1, 1, 3)
	require.NoError(t, err)
	plantClips(t, b.Fetcher, "voice", c, span)

	b.Prober = fakeProber{durations: map[string]time.Duration{
		fetch.ClipName(1, 1): 1500 * time.Millisecond,
		fetch.ClipName(1, 2): 3 * time.Second,
		// 1:3 missing: fallback applies
	}}

	timings, err := b.Timings(context.Background(), "voice", span)
	require.NoError(t, err)
	require.Len(t, timings, 3)

	assert.Equal(t, time.Duration(0), timings[0].Start)
	assert.Equal(t, 1500*time.Millisecond, timings[0].Duration)
	assert.Equal(t, 1500*time.Millisecond, timings[1].Start)
	assert.Equal(t, 4500*time.Millisecond, timings[2].Start)
	assert.Equal(t, fallbackDuration, timings[2].Duration)
	assert.Equal(t, 6500*time.Millisecond, TotalDuration(timings))
}

func TestWriteLRC(t *testing.T) {
	lines := []Line{
		{Timing: VerseTiming{Start: 0, Duration: 2 * time.Second}, Text: "first"},
		{Timing: VerseTiming{Start: 62340 * time.Millisecond, Duration: time.Second}, Text: "second"},
	}
	var sb strings.Builder
	require.NoError(t, WriteLRC(&sb, "Alafasy_64kbps", lines))

	want := "[ti:Quran Recitation]\n" +
		"[ar:Alafasy_64kbps]\n" +
		"[00:00.00]first\n" +
		"[01:02.34]second\n"
	assert.Equal(t, want, sb.String())
}

func TestWriteSRT(t *testing.T) {
	lines := []Line{
		{Timing: VerseTiming{Start: 0, Duration: 1500 * time.Millisecond}, Text: "first"},
		{Timing: VerseTiming{Start: 3661*time.Second + 7*time.Millisecond, Duration: time.Second}, Text: "second"},
	}
	var sb strings.Builder
	require.NoError(t, WriteSRT(&sb, lines))

	want := "1\n00:00:00,000 --> 00:00:01,500\nfirst\n\n" +
		"2\n01:01:01,007 --> 01:01:02,007\nsecond\n\n"
	assert.Equal(t, want, sb.String())
}

func TestLinesMismatch(t *testing.T) {
	_, err := Lines(make([]VerseTiming, 2), []string{"only one"})
	assert.ErrorIs(t, err, errors.ErrInternal)

	lines, err := Lines([]VerseTiming{{Chapter: 1, Verse: 1}}, []string{"text"})
	require.NoError(t, err)
	assert.Equal(t, "text", lines[0].Text)
}

package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/internal/fetch"
	"github.com/adelkhalifa/qbot/internal/fileutil"
	"github.com/adelkhalifa/qbot/internal/logging"
)

// Metadata is the tag set written into a built MP3.
type Metadata struct {
	Title  string
	Artist string
}

// Runner performs the actual concatenation. The default implementation
// shells out to ffmpeg; tests substitute their own.
type Runner interface {
	// Concat joins inputs into out. meta may be nil for an untagged
	// output.
	Concat(ctx context.Context, inputs []string, out string, meta *Metadata) error
}

// Builder produces range MP3s under one output directory.
type Builder struct {
	Corpus  *quran.Corpus
	Fetcher *fetch.Fetcher
	OutDir  string
	Runner  Runner
	Prober  DurationProber // nil means ffprobe
}

// NewBuilder wires a Builder with the ffmpeg-backed runner.
func NewBuilder(c *quran.Corpus, f *fetch.Fetcher, outDir string) *Builder {
	return &Builder{Corpus: c, Fetcher: f, OutDir: outDir, Runner: ffmpegRunner{}}
}

// OutputPath returns where the MP3 for a span lives once built.
func (b *Builder) OutputPath(voice string, span quran.Span) string {
	return filepath.Join(b.OutDir, OutputName(voice, span))
}

// BuildMP3 produces the MP3 for a span and returns its path. A previous
// non-empty build is reused untouched. meta sets the id3 tags; nil means
// DefaultMetadata. The pipeline degrades stepwise: tagged concat, then
// untagged concat, then a plain copy when the span is a single clip.
func (b *Builder) BuildMP3(ctx context.Context, voice string, span quran.Span, meta *Metadata) (string, error) {
	start := time.Now()
	out := b.OutputPath(voice, span)

	if info, err := os.Stat(out); err == nil {
		if info.Size() > 0 {
			return out, nil
		}
		// Zero-byte leftovers from a crashed build are rebuilt.
		if err := os.Remove(out); err != nil {
			return "", errors.NewIO("remove", out, err)
		}
	}
	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return "", errors.NewIO("mkdir", b.OutDir, err)
	}

	clips, err := b.Fetcher.FetchSpan(ctx, b.Corpus, voice, span)
	if err != nil {
		return "", err
	}

	// Unique temp name so concurrent builds of the same span never
	// write into each other's file.
	tmp := out + "." + uuid.NewString() + ".tmp"
	defer os.Remove(tmp)

	if meta == nil {
		meta = b.DefaultMetadata(voice, span)
	}
	buildErr := b.Runner.Concat(ctx, clips, tmp, meta)
	if buildErr != nil {
		logging.Warn("tagged concat failed, retrying without tags", "output", out, "error", buildErr)
		buildErr = b.Runner.Concat(ctx, clips, tmp, nil)
	}
	if buildErr != nil && len(clips) == 1 {
		logging.Warn("concat failed, copying single clip", "output", out, "error", buildErr)
		buildErr = fileutil.CopyFile(clips[0], tmp)
	}
	if buildErr != nil {
		return "", &errors.GenerationError{Stage: "concat", Output: out, Err: buildErr}
	}

	if err := os.Rename(tmp, out); err != nil {
		return "", errors.NewIO("rename", out, err)
	}
	logging.MediaBuild("audio", voice, span.String(), out, time.Since(start))
	return out, nil
}

// DefaultMetadata builds the tag set BuildMP3 uses when the caller does
// not supply one: a title from the chapter names the span touches and
// the voice as the artist.
func (b *Builder) DefaultMetadata(voice string, span quran.Span) *Metadata {
	name := b.Corpus.Name(span.FromChapter, "en")
	if span.ToChapter != span.FromChapter {
		name += " - " + b.Corpus.Name(span.ToChapter, "en")
	}
	return &Metadata{
		Title:  fmt.Sprintf("%s (%s)", name, span.String()),
		Artist: voice,
	}
}

// ffmpegRunner concatenates with the concat demuxer and a stream copy, so
// no re-encoding happens.
type ffmpegRunner struct{}

func (ffmpegRunner) Concat(ctx context.Context, inputs []string, out string, meta *Metadata) error {
	list, err := writeConcatList(filepath.Dir(out), inputs)
	if err != nil {
		return err
	}
	defer os.Remove(list)

	kwargs := ffmpeg.KwArgs{"c": "copy", "id3v2_version": "3"}
	if meta != nil {
		kwargs["metadata"] = []string{
			"title=" + meta.Title,
			"artist=" + meta.Artist,
		}
	}
	return ffmpeg.Input(list, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(out, kwargs).
		OverWriteOutput().
		Silent(true).
		Run()
}

// writeConcatList writes the ffmpeg concat demuxer manifest. Single
// quotes in paths are escaped the way the demuxer expects.
func writeConcatList(dir string, inputs []string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", errors.NewIO("create", dir, err)
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		if _, err := fmt.Fprintf(f, "file '%s'\n", escaped); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", errors.NewIO("write", f.Name(), err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.NewIO("close", f.Name(), err)
	}
	return f.Name(), nil
}

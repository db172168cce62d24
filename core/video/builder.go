package video

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/adelkhalifa/qbot/core/audio"
	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/internal/logging"
)

// audioTail pads the video past the end of the recitation so the last
// verse does not cut off abruptly.
const audioTail = 500 * time.Millisecond

// Options control the rendered frame.
type Options struct {
	Width      int
	Height     int
	FontSize   int
	Background string // hex or ffmpeg color name, used when no file background applies
	TextColor  string // drawtext fontcolor
	Shadow     bool   // drop shadow behind the text
}

// DefaultOptions is a 720p frame: black background, white text with a
// drop shadow.
func DefaultOptions() Options {
	return Options{
		Width:      1280,
		Height:     720,
		FontSize:   56,
		Background: "black",
		TextColor:  "white",
		Shadow:     true,
	}
}

// backgrounds is the palette RandomBackground draws from.
var backgrounds = []string{
	"black", "0x101820", "0x1b2a1b", "0x2a1b2a", "0x1b1b2a", "0x202020",
}

// RandomBackground returns a palette color for callers that want variety
// instead of the default black.
func RandomBackground() string {
	return backgrounds[rand.Intn(len(backgrounds))]
}

// backgroundExts are the media types eligible as a file background.
var backgroundExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".jpg": true, ".png": true,
}

// imageExts marks backgrounds that are still images and need looping.
var imageExts = map[string]bool{".jpg": true, ".png": true}

// PickBackground chooses a random eligible media file from dir. It
// returns "" when dir is empty, unreadable or holds no usable files, in
// which case the solid color background applies.
func PickBackground(dir string) string {
	if dir == "" {
		return ""
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("background directory unreadable", "dir", dir, "error", err)
		return ""
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && backgroundExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return ""
	}
	return files[rand.Intn(len(files))]
}

// Job is a fully resolved composition handed to the Runner.
type Job struct {
	Cues           []Cue
	AudioPath      string // empty for a silent slide show
	BackgroundPath string // empty for a solid color background
	Duration       time.Duration
	Options        Options
}

// Runner renders a Job to a file. The default implementation drives
// ffmpeg; tests substitute their own.
type Runner interface {
	Compose(ctx context.Context, job Job, out string) error
}

// Builder produces range MP4s under one output directory. Audio may be
// nil, in which case videos are silent. BackgroundDir, when set, makes
// every build pick a random clip or image from it instead of the solid
// color.
type Builder struct {
	Corpus        *quran.Corpus
	Audio         *audio.Builder
	OutDir        string
	BackgroundDir string
	Options       Options
	Runner        Runner
}

// NewBuilder wires a Builder with default options and the ffmpeg runner.
func NewBuilder(c *quran.Corpus, ab *audio.Builder, outDir string) *Builder {
	return &Builder{
		Corpus:  c,
		Audio:   ab,
		OutDir:  outDir,
		Options: DefaultOptions(),
		Runner:  ffmpegRunner{},
	}
}

// OutputPath returns where the MP4 for a span lives once built.
func (b *Builder) OutputPath(voice string, span quran.Span) string {
	return filepath.Join(b.OutDir, fmt.Sprintf("%s-%s.mp4", voice, audio.RangeID(span)))
}

// BuildMP4 produces the video for a span and returns its path. Cached
// non-empty outputs are reused. Cues are always paced by text length;
// with an audio builder present the total runs to the end of the
// recitation instead of the last cue.
func (b *Builder) BuildMP4(ctx context.Context, voice string, span quran.Span) (string, error) {
	start := time.Now()
	out := b.OutputPath(voice, span)

	if info, err := os.Stat(out); err == nil {
		if info.Size() > 0 {
			return out, nil
		}
		if err := os.Remove(out); err != nil {
			return "", errors.NewIO("remove", out, err)
		}
	}
	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return "", errors.NewIO("mkdir", b.OutDir, err)
	}

	job, err := b.prepare(ctx, voice, span)
	if err != nil {
		return "", err
	}

	// Unique temp name so concurrent builds of the same span never
	// write into each other's file.
	tmp := out + "." + uuid.NewString() + ".tmp"
	defer os.Remove(tmp)
	if err := b.Runner.Compose(ctx, job, tmp); err != nil {
		return "", &errors.GenerationError{Stage: "compose", Output: out, Err: err}
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", errors.NewIO("rename", out, err)
	}
	logging.MediaBuild("video", voice, span.String(), out, time.Since(start))
	return out, nil
}

// prepare resolves the span into a Job: verse texts, text-length cue
// pacing, the background pick and the audio track when available.
func (b *Builder) prepare(ctx context.Context, voice string, span quran.Span) (Job, error) {
	var texts []string
	err := b.Corpus.Each(span, func(ch, v int) error {
		text, verr := b.Corpus.Verse(ch, v)
		if verr != nil {
			return verr
		}
		texts = append(texts, FormatVerse(text, v))
		return nil
	})
	if err != nil {
		return Job{}, err
	}

	job := Job{
		Options:        b.Options,
		Cues:           CueTimeline(texts),
		BackgroundPath: PickBackground(b.BackgroundDir),
	}
	job.Duration = job.Cues[len(job.Cues)-1].End()
	if b.Audio == nil {
		return job, nil
	}

	audioPath, err := b.Audio.BuildMP3(ctx, voice, span, nil)
	if err != nil {
		return Job{}, err
	}
	timings, err := b.Audio.Timings(ctx, voice, span)
	if err != nil {
		return Job{}, err
	}
	job.AudioPath = audioPath
	job.Duration = audio.TotalDuration(timings) + audioTail
	return job, nil
}

// ffmpegRunner renders the job over a looped background file or a lavfi
// color source, one drawtext filter per cue, gated by enable=between()
// and faded via an alpha ramp.
type ffmpegRunner struct{}

func (ffmpegRunner) Compose(ctx context.Context, job Job, out string) error {
	opts := job.Options
	stream := backgroundStream(job)

	for _, cue := range job.Cues {
		lines, size := fitText(cue.Text, opts.Width*9/10, opts.FontSize)
		lineHeight := size * 13 / 10
		top := (opts.Height - lineHeight*len(lines)) / 2
		for i, line := range lines {
			kwargs := ffmpeg.KwArgs{
				"text":      escapeDrawText(line),
				"fontsize":  size,
				"fontcolor": opts.TextColor,
				"x":         "(w-text_w)/2",
				"y":         fmt.Sprintf("%d", top+i*lineHeight),
				"alpha":     fadeAlpha(cue),
				"enable":    fmt.Sprintf("between(t,%.3f,%.3f)", cue.Start.Seconds(), cue.End().Seconds()),
			}
			if opts.Shadow {
				kwargs["shadowcolor"] = shadowColor(opts.TextColor)
				kwargs["shadowx"] = 2
				kwargs["shadowy"] = 2
			}
			stream = stream.Filter("drawtext", ffmpeg.Args{}, kwargs)
		}
	}

	outKwargs := ffmpeg.KwArgs{
		"t":       fmt.Sprintf("%.3f", job.Duration.Seconds()),
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
	}
	var cmd *ffmpeg.Stream
	if job.AudioPath != "" {
		outKwargs["c:a"] = "aac"
		cmd = ffmpeg.Output([]*ffmpeg.Stream{stream, ffmpeg.Input(job.AudioPath)}, out, outKwargs)
	} else {
		cmd = stream.Output(out, outKwargs)
	}
	return cmd.OverWriteOutput().Silent(true).Run()
}

// backgroundStream opens the job's background: a file scaled to frame
// height and center-cropped to the frame, looped for the full duration,
// or a solid lavfi color when no file applies.
func backgroundStream(job Job) *ffmpeg.Stream {
	opts := job.Options
	if job.BackgroundPath != "" {
		kwargs := ffmpeg.KwArgs{}
		if imageExts[strings.ToLower(filepath.Ext(job.BackgroundPath))] {
			kwargs["loop"] = 1
			kwargs["t"] = fmt.Sprintf("%.3f", job.Duration.Seconds())
		} else {
			kwargs["stream_loop"] = -1
		}
		return ffmpeg.Input(job.BackgroundPath, kwargs).
			Filter("scale", ffmpeg.Args{fmt.Sprintf("-1:%d", opts.Height)}).
			Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d", opts.Width, opts.Height)})
	}
	src := fmt.Sprintf("color=c=%s:s=%dx%d:d=%.3f:r=25",
		opts.Background, opts.Width, opts.Height, job.Duration.Seconds())
	return ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi"})
}

// shadowColor pairs the drop shadow to the text: dark under light text,
// light under dark text.
func shadowColor(textColor string) string {
	if textColor == "black" {
		return "0xc8c8c8@0.5"
	}
	return "black@0.5"
}

// fadeAlpha builds the per-cue opacity ramp: fade in over the first 0.4s,
// hold, fade out over the last 0.4s.
func fadeAlpha(cue Cue) string {
	s := cue.Start.Seconds()
	e := cue.End().Seconds()
	f := fade.Seconds()
	return fmt.Sprintf("if(lt(t,%.3f),(t-%.3f)/%.3f,if(gt(t,%.3f),(%.3f-t)/%.3f,1))",
		s+f, s, f, e-f, e, f)
}

// escapeDrawText quotes the characters the drawtext filter treats
// specially.
func escapeDrawText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

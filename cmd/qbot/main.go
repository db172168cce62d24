// Command qbot resolves Quran references from free-form text and turns
// verse ranges into text, recitation audio, subtitles, videos and
// commentary.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/adelkhalifa/qbot/core/audio"
	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/core/nlu"
	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/core/search"
	"github.com/adelkhalifa/qbot/core/video"
	"github.com/adelkhalifa/qbot/internal/config"
	"github.com/adelkhalifa/qbot/internal/fetch"
	"github.com/adelkhalifa/qbot/internal/fileutil"
	"github.com/adelkhalifa/qbot/internal/locale"
	"github.com/adelkhalifa/qbot/internal/logging"
	"github.com/adelkhalifa/qbot/internal/ratelimit"
	"github.com/adelkhalifa/qbot/internal/store"
	"github.com/adelkhalifa/qbot/internal/tafsir"
)

const version = "0.1.0"

// CLI defines the command-line interface for qbot.
var CLI struct {
	// Global flags
	Config string `name:"config" short:"c" help:"Config file path" type:"path"`
	User   string `name:"user" help:"User identity for preferences and limits" default:"cli"`

	Resolve  ResolveCmd  `cmd:"" help:"Resolve free text into a verse reference"`
	Search   SearchCmd   `cmd:"" help:"Search verse text"`
	Text     TextCmd     `cmd:"" help:"Print the verses a reference covers"`
	Audio    AudioCmd    `cmd:"" help:"Build a recitation MP3 for a reference"`
	Video    VideoCmd    `cmd:"" help:"Build a verse video for a reference"`
	Tafsir   TafsirCmd   `cmd:"" help:"Fetch commentary for a reference"`
	Download DownloadCmd `cmd:"" help:"Prefetch per-verse clips for a reference"`
	Prefs    PrefsCmd    `cmd:"" help:"Show or change stored preferences"`
	Voices   VoicesCmd   `cmd:"" help:"List available reciters"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// app bundles the long-lived pieces commands need. Everything is built
// from the loaded config; the corpus is read once.
type app struct {
	cfg      config.Config
	corpus   *quran.Corpus
	resolver *nlu.Resolver
	bundle   *locale.Bundle
}

func newApp() (*app, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	// A stored text format preference overrides the configured source.
	source := cfg.TextSource
	if st, serr := store.Open(cfg.DBPath); serr == nil {
		if u, uerr := st.GetUser(CLI.User); uerr == nil && u.TextFormat != "" {
			source = u.TextFormat
		}
		st.Close()
	}

	corpus, err := quran.Load(cfg.DataDir, source)
	if err != nil {
		return nil, err
	}
	bundle, err := locale.Load()
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		corpus:   corpus,
		resolver: nlu.NewResolver(corpus),
		bundle:   bundle,
	}, nil
}

// openStore opens the preferences database, creating its directory.
func (a *app) openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
		return nil, errors.NewIO("mkdir", filepath.Dir(a.cfg.DBPath), err)
	}
	return store.Open(a.cfg.DBPath)
}

// voiceDir resolves the reciter for this invocation: explicit flag, then
// the user's stored preference, then the configured default.
func (a *app) voiceDir(flag string, st *store.Store) (string, error) {
	name := flag
	if name == "" && st != nil {
		if u, err := st.GetUser(CLI.User); err == nil && u.Voice != "" {
			name = u.Voice
		}
	}
	if name == "" {
		name = a.cfg.DefaultVoice
	}
	dir, err := config.VoiceDir(name)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown voice %q, known: %s",
			name, strings.Join(config.VoiceNames(), ", "))
	}
	return dir, nil
}

func (a *app) fetcher() *fetch.Fetcher {
	f := fetch.New(a.cfg.MediaDir)
	if a.cfg.FetchBaseURL != "" {
		f.BaseURL = a.cfg.FetchBaseURL
	}
	return f
}

func (a *app) audioBuilder() *audio.Builder {
	return audio.NewBuilder(a.corpus, a.fetcher(), a.cfg.OutputDir)
}

// resolveSpan turns a query into a concrete verse span. Page references
// expand to the page's verse range; search queries are rejected since the
// caller needs a definite range.
func (a *app) resolveSpan(query []string) (quran.Span, error) {
	ref := a.resolver.Resolve(strings.Join(query, " "))
	switch ref.Kind {
	case nlu.KindSpan:
		return ref.Span, nil
	case nlu.KindPage:
		start, end, err := a.corpus.PageBounds(ref.Page)
		if err != nil {
			return quran.Span{}, err
		}
		return a.corpus.NewSpan(start.Chapter, start.Verse, end.Chapter, end.Verse)
	default:
		return quran.Span{}, errors.Wrapf(errors.ErrInvalidInput,
			"%q is not a verse reference", ref.Query)
	}
}

// checkBudget enforces the per-user media budget across invocations. The
// limiter state lives next to the database, so every short-lived CLI run
// spends from the same budget. Zero or negative budgets disable the
// check.
func checkBudget(a *app) error {
	if a.cfg.RateLimit <= 0 {
		return nil
	}
	limiter := ratelimit.New(a.cfg.RateLimit, a.cfg.RateLimitWindow)
	state := filepath.Join(filepath.Dir(a.cfg.DBPath), "ratelimit.json")
	if err := limiter.LoadFile(state); err != nil {
		logging.Warn("rate limit state unreadable", "path", state, "error", err)
	}
	if !limiter.Allow(CLI.User) {
		return errors.Wrapf(errors.ErrInvalidInput, "media budget exhausted, retry in %s",
			limiter.RetryAfter(CLI.User).Round(time.Second))
	}
	if err := os.MkdirAll(filepath.Dir(state), 0o755); err == nil {
		if err := limiter.SaveFile(state); err != nil {
			logging.Warn("rate limit state not saved", "path", state, "error", err)
		}
	}
	return nil
}

// ResolveCmd prints what a piece of text resolves to.
type ResolveCmd struct {
	Query []string `arg:"" help:"Free text reference"`
}

func (c *ResolveCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ref := a.resolver.Resolve(strings.Join(c.Query, " "))
	switch ref.Kind {
	case nlu.KindSpan:
		s := ref.Span
		fmt.Printf("span\t%s\t%s", s.String(), a.corpus.Name(s.FromChapter, "en"))
		if s.ToChapter != s.FromChapter {
			fmt.Printf(" - %s", a.corpus.Name(s.ToChapter, "en"))
		}
		fmt.Printf("\t%d verses\n", a.corpus.SpanLen(s))
	case nlu.KindPage:
		start, end, err := a.corpus.PageBounds(ref.Page)
		if err != nil {
			return err
		}
		fmt.Printf("page\t%d\t%d:%d - %d:%d\n", ref.Page, start.Chapter, start.Verse, end.Chapter, end.Verse)
	default:
		fmt.Printf("search\t%s\n", ref.Query)
	}
	return nil
}

// SearchCmd runs free-text search directly.
type SearchCmd struct {
	Query []string `arg:"" help:"Search phrase"`
	Limit int      `help:"Maximum results" default:"10"`
}

func (c *SearchCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ix := search.NewIndex(a.corpus)
	results := ix.Search(strings.Join(c.Query, " "), c.Limit)
	if len(results) == 0 {
		fmt.Println(a.bundle.T(a.cfg.DefaultLang, "search_no_results"))
		return nil
	}
	fmt.Println(a.bundle.T(a.cfg.DefaultLang, "search_results", len(results)))
	for _, r := range results {
		fmt.Printf("%d:%d\t%s\tp.%d\t%d\t%s\n",
			r.Chapter, r.Verse, a.corpus.Name(r.Chapter, a.cfg.DefaultLang), r.Page, r.Score, r.Text)
	}
	return nil
}

// TextCmd prints verse text for any resolvable reference.
type TextCmd struct {
	Query []string `arg:"" help:"Free text reference"`
}

func (c *TextCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	span, err := a.resolveSpan(c.Query)
	if err != nil {
		return err
	}
	return a.corpus.Each(span, func(ch, v int) error {
		text, terr := a.corpus.Verse(ch, v)
		if terr != nil {
			return terr
		}
		fmt.Printf("%d:%d\t%s\n", ch, v, text)
		return nil
	})
}

// AudioCmd builds the MP3 for a reference, with optional subtitles.
type AudioCmd struct {
	Query  []string `arg:"" help:"Free text reference"`
	Voice  string   `help:"Reciter (short name or archive directory)"`
	Title  string   `help:"Override the id3 title tag"`
	Artist string   `help:"Override the id3 artist tag"`
	Named  bool     `help:"Also save a copy named after the recitation title"`
	LRC    bool     `help:"Also write a synchronized .lrc file"`
	SRT    bool     `help:"Also write a .srt subtitle file"`
}

func (c *AudioCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := checkBudget(a); err != nil {
		return err
	}
	span, err := a.resolveSpan(c.Query)
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	voice, err := a.voiceDir(c.Voice, st)
	if err != nil {
		return err
	}

	if _, err := fileutil.CheckAndPurge(a.cfg.MediaDir); err != nil {
		logging.Warn("media purge failed", "error", err)
	}

	b := a.audioBuilder()
	ctx := context.Background()

	meta := b.DefaultMetadata(voice, span)
	if c.Title != "" {
		meta.Title = c.Title
	}
	if c.Artist != "" {
		meta.Artist = c.Artist
	}
	out, err := b.BuildMP3(ctx, voice, span, meta)
	if err != nil {
		return err
	}
	fmt.Println(out)

	if c.Named {
		display := filepath.Join(a.cfg.OutputDir, fileutil.SanitizeTitle(meta.Title)+".mp3")
		if err := fileutil.CopyFile(out, display); err != nil {
			return err
		}
		fmt.Println(display)
	}

	// Subtitles share the audio key and are rebuilt only when missing,
	// which also skips re-probing every clip.
	base := strings.TrimSuffix(out, filepath.Ext(out))
	needLRC := c.LRC && !fileExists(base+".lrc")
	needSRT := c.SRT && !fileExists(base+".srt")

	var lines []audio.Line
	if needLRC || needSRT {
		if lines, err = subtitleLines(ctx, a, b, voice, span); err != nil {
			return err
		}
	}
	if needLRC {
		if err := writeSubtitle(base+".lrc", func(f *os.File) error {
			return audio.WriteLRC(f, voice, lines)
		}); err != nil {
			return err
		}
	}
	if needSRT {
		if err := writeSubtitle(base+".srt", func(f *os.File) error {
			return audio.WriteSRT(f, lines)
		}); err != nil {
			return err
		}
	}
	if c.LRC {
		fmt.Println(base + ".lrc")
	}
	if c.SRT {
		fmt.Println(base + ".srt")
	}
	return nil
}

// fileExists reports whether path holds a non-empty file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func subtitleLines(ctx context.Context, a *app, b *audio.Builder, voice string, span quran.Span) ([]audio.Line, error) {
	timings, err := b.Timings(ctx, voice, span)
	if err != nil {
		return nil, err
	}
	texts, err := a.corpus.SpanVerses(span)
	if err != nil {
		return nil, err
	}
	return audio.Lines(timings, texts)
}

func writeSubtitle(path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// VideoCmd builds the MP4 for a reference.
type VideoCmd struct {
	Query      []string `arg:"" help:"Free text reference"`
	Voice      string   `help:"Reciter (short name or archive directory)"`
	Silent     bool     `help:"Render without a recitation track"`
	Background string   `help:"Background color, or 'random' for a clip from the background directory"`
	TextColor  string   `help:"Verse text color" default:"white"`
	NoShadow   bool     `help:"Disable the text drop shadow"`
}

func (c *VideoCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := checkBudget(a); err != nil {
		return err
	}
	span, err := a.resolveSpan(c.Query)
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	voice, err := a.voiceDir(c.Voice, st)
	if err != nil {
		return err
	}

	if _, err := fileutil.CheckAndPurge(a.cfg.MediaDir); err != nil {
		logging.Warn("media purge failed", "error", err)
	}

	var ab *audio.Builder
	if !c.Silent {
		ab = a.audioBuilder()
	}
	vb := video.NewBuilder(a.corpus, ab, a.cfg.OutputDir)
	vb.Options.TextColor = c.TextColor
	vb.Options.Shadow = !c.NoShadow
	switch c.Background {
	case "":
	case "random":
		// A clip or image from the background directory; the palette
		// color is the fallback when the directory holds nothing.
		vb.BackgroundDir = a.cfg.BackgroundDir
		vb.Options.Background = video.RandomBackground()
	default:
		vb.Options.Background = c.Background
	}

	out, err := vb.BuildMP4(context.Background(), voice, span)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// TafsirCmd prints commentary for every verse in a reference.
type TafsirCmd struct {
	Query   []string `arg:"" help:"Free text reference"`
	Edition string   `help:"Commentary edition" enum:",muyassar,jalalayn,qurtubi,ibn-kathir" default:""`
}

func (c *TafsirCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	span, err := a.resolveSpan(c.Query)
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// Explicit flag, then the stored preference, then the default.
	edition := c.Edition
	if edition == "" {
		if u, uerr := st.GetUser(CLI.User); uerr == nil && u.TafsirSource != "" {
			edition = u.TafsirSource
		}
	}
	if edition == "" {
		edition = tafsir.DefaultEdition
	}

	svc := tafsir.New(st)
	if a.cfg.TafsirBaseURL != "" {
		svc.BaseURL = a.cfg.TafsirBaseURL
	}
	ctx := context.Background()
	return a.corpus.Each(span, func(ch, v int) error {
		body, terr := svc.Get(ctx, edition, ch, v)
		if terr != nil {
			return terr
		}
		fmt.Printf("%d:%d\t%s\n\n", ch, v, body)
		return nil
	})
}

// DownloadCmd prefetches clips without building anything.
type DownloadCmd struct {
	Query []string `arg:"" help:"Free text reference"`
	Voice string   `help:"Reciter (short name or archive directory)"`
}

func (c *DownloadCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	span, err := a.resolveSpan(c.Query)
	if err != nil {
		return err
	}
	voice, err := a.voiceDir(c.Voice, nil)
	if err != nil {
		return err
	}
	paths, err := a.fetcher().FetchSpan(context.Background(), a.corpus, voice, span)
	if err != nil {
		return err
	}
	fmt.Printf("%d clips ready under %s\n", len(paths), filepath.Join(a.cfg.MediaDir, voice))
	return nil
}

// PrefsCmd shows or updates the invoking user's stored preferences.
type PrefsCmd struct {
	Lang       string `help:"Set preferred language" enum:",en,ar" default:""`
	Voice      string `help:"Set preferred reciter"`
	Tafsir     string `help:"Set preferred commentary edition" enum:",muyassar,jalalayn,qurtubi,ibn-kathir" default:""`
	TextFormat string `help:"Set preferred verse text source"`
}

func (c *PrefsCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	changed := false
	if c.Lang != "" {
		if err := st.SetLang(CLI.User, c.Lang); err != nil {
			return err
		}
		fmt.Println(a.bundle.T(c.Lang, "lang_set", c.Lang))
		changed = true
	}
	if c.Voice != "" {
		dir, err := config.VoiceDir(c.Voice)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "unknown voice %q, known: %s",
				c.Voice, strings.Join(config.VoiceNames(), ", "))
		}
		if err := st.SetVoice(CLI.User, dir); err != nil {
			return err
		}
		u, _ := st.GetUser(CLI.User)
		fmt.Println(a.bundle.T(u.Lang, "voice_set", dir))
		changed = true
	}
	if c.Tafsir != "" {
		if err := st.SetTafsirSource(CLI.User, c.Tafsir); err != nil {
			return err
		}
		fmt.Printf("tafsir\t%s\n", c.Tafsir)
		changed = true
	}
	if c.TextFormat != "" {
		sources := quran.Sources()
		slices.Sort(sources)
		if !slices.Contains(sources, c.TextFormat) {
			return errors.Wrapf(errors.ErrInvalidInput, "unknown text source %q, known: %s",
				c.TextFormat, strings.Join(sources, ", "))
		}
		if err := st.SetTextFormat(CLI.User, c.TextFormat); err != nil {
			return err
		}
		fmt.Printf("text\t%s\n", c.TextFormat)
		changed = true
	}
	if !changed {
		u, err := st.GetUser(CLI.User)
		if err != nil {
			return err
		}
		voice := u.Voice
		if voice == "" {
			voice = a.cfg.DefaultVoice + " (default)"
		}
		tafsirSource := u.TafsirSource
		if tafsirSource == "" {
			tafsirSource = tafsir.DefaultEdition + " (default)"
		}
		format := u.TextFormat
		if format == "" {
			format = a.cfg.TextSource + " (default)"
		}
		fmt.Printf("user\t%s\nlang\t%s\nvoice\t%s\ntafsir\t%s\ntext\t%s\n",
			u.ID, u.Lang, voice, tafsirSource, format)
	}
	return nil
}

// VoicesCmd lists the reciter catalog.
type VoicesCmd struct{}

func (c *VoicesCmd) Run() error {
	for _, name := range config.VoiceNames() {
		dir, _ := config.VoiceDir(name)
		marker := ""
		if name == config.DefaultVoice {
			marker = "\t(default)"
		}
		fmt.Printf("%s\t%s%s\n", name, dir, marker)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("qbot version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("qbot"),
		kong.Description("Quran reference assistant - text, recitation audio, video and tafsir"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}

// Package fetch downloads per-verse recitation clips into the local media
// store. Clips are keyed by voice and a fixed-width chapter/verse name, so
// a clip is fetched at most once; corrupt (zero-byte) copies are detected
// and replaced on demand.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/internal/logging"
)

const (
	// DefaultBaseURL is the public recitation archive.
	DefaultBaseURL = "https://everyayah.com/data"
	// attempts is how many times one clip download is tried.
	attempts = 3
	// attemptTimeout bounds a single download attempt.
	attemptTimeout = 10 * time.Second
)

// Fetcher downloads and validates clips under one media directory.
type Fetcher struct {
	BaseURL string
	Dir     string
	Client  *http.Client
}

// New returns a Fetcher storing clips under dir.
func New(dir string) *Fetcher {
	return &Fetcher{
		BaseURL: DefaultBaseURL,
		Dir:     dir,
		Client:  &http.Client{},
	}
}

// ClipName is the canonical clip file name for a verse, three digits of
// chapter then three of verse.
func ClipName(chapter, verse int) string {
	return fmt.Sprintf("%03d%03d.mp3", chapter, verse)
}

// ClipPath returns where a clip lives (or would live) on disk.
func (f *Fetcher) ClipPath(voice string, chapter, verse int) string {
	return filepath.Join(f.Dir, voice, ClipName(chapter, verse))
}

// Fetch makes sure the clip for a verse exists locally and returns its
// path. An existing non-empty file is used as-is. Downloads go to a
// temporary name first and are renamed into place only when complete.
func (f *Fetcher) Fetch(ctx context.Context, voice string, chapter, verse int) (string, error) {
	path := f.ClipPath(voice, chapter, verse)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.NewIO("mkdir", filepath.Dir(path), err)
	}

	url := fmt.Sprintf("%s/%s/%s", f.BaseURL, voice, ClipName(chapter, verse))
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = f.download(ctx, url, path)
		logging.FetchAttempt(voice, chapter, verse, attempt, lastErr)
		if lastErr == nil {
			return path, nil
		}
		// A definitive 404 will not improve with retries.
		if errors.Is(lastErr, errors.ErrNotFound) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return "", &errors.MissingMediaError{Voice: voice, Chapter: chapter, Verse: verse, Err: lastErr}
}

func (f *Fetcher) download(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewNotFound("clip", url)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".part")
	out, err := os.Create(tmp)
	if err != nil {
		return errors.NewIO("create", tmp, err)
	}
	n, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = fmt.Errorf("empty response body for %s", url)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewIO("rename", path, err)
	}
	return nil
}

// EnsureValid returns the path to a usable clip, replacing a zero-byte
// file left behind by an interrupted download.
func (f *Fetcher) EnsureValid(ctx context.Context, voice string, chapter, verse int) (string, error) {
	path := f.ClipPath(voice, chapter, verse)
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return path, nil
	}
	if err == nil {
		logging.Warn("purging corrupt clip", "path", path)
		if rmErr := os.Remove(path); rmErr != nil {
			return "", errors.NewIO("remove", path, rmErr)
		}
	}
	return f.Fetch(ctx, voice, chapter, verse)
}

// FetchSpan collects valid clip paths for every verse in a span, in
// corpus order. The first verse that cannot be obtained aborts the whole
// span; partial media is worse than an error.
func (f *Fetcher) FetchSpan(ctx context.Context, c *quran.Corpus, voice string, span quran.Span) ([]string, error) {
	paths := make([]string, 0, c.SpanLen(span))
	err := c.Each(span, func(ch, v int) error {
		path, ferr := f.EnsureValid(ctx, voice, ch, v)
		if ferr != nil {
			return ferr
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

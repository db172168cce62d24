// Package fileutil provides file system helpers for the media store:
// copying, name sanitization and disk pressure relief.
package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/internal/logging"
)

const (
	// MinFreeMB is the free-space floor below which the media store is
	// purged.
	MinFreeMB = 200
	// TargetFreeMB is how much space a purge tries to recover.
	TargetFreeMB = 500
	// purgeBatch is how many files go between free-space re-checks.
	purgeBatch = 5
)

// CopyFile copies src to dst, creating parent directories as needed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewIO("open", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(dst), err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.NewIO("create", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.NewIO("copy", dst, err)
	}
	return out.Close()
}

// SanitizeTitle makes a string safe to use as a file name: path
// separators and shell-hostile characters become underscores, whitespace
// collapses.
func SanitizeTitle(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, s)
	fields := strings.Fields(mapped)
	if len(fields) == 0 {
		return "untitled"
	}
	return strings.Join(fields, " ")
}

// PurgeOldest removes up to n regular files from dir, oldest
// modification time first, and returns how many were removed.
func PurgeOldest(dir string, n int) (int, error) {
	files, err := filesByAge(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if removed >= n {
			break
		}
		if err := os.Remove(f); err != nil {
			return removed, errors.NewIO("remove", f, err)
		}
		removed++
	}
	return removed, nil
}

// CheckAndPurge frees space under dir when the volume is low: if free
// space is below MinFreeMB, the oldest files go first until TargetFreeMB
// is available or the directory is empty. On platforms where free space
// cannot be measured this is a no-op.
func CheckAndPurge(dir string) (int, error) {
	free, err := FreeMB(dir)
	if err != nil || free < 0 || free >= MinFreeMB {
		return 0, err
	}

	removed := 0
	for free < TargetFreeMB {
		n, err := PurgeOldest(dir, purgeBatch)
		removed += n
		if err != nil {
			return removed, err
		}
		if n == 0 {
			break
		}
		if free, err = FreeMB(dir); err != nil {
			return removed, err
		}
	}
	logging.StoragePurge(dir, removed, float64(free))
	return removed, nil
}

// filesByAge lists the regular files directly under dir, oldest first.
func filesByAge(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("readdir", dir, err)
	}
	type aged struct {
		path string
		mod  int64
	}
	var files []aged
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{path: filepath.Join(dir, e.Name()), mod: info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(a, b int) bool { return files[a].mod < files[b].mod })
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

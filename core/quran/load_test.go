package quran

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/adelkhalifa/qbot/core/errors"
)

// writeTestData materializes a full synthetic data directory: metadata in
// the requested format plus the hafs text file.
func writeTestData(t *testing.T, metaFormat string, compress bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metadata"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "text"), 0o755))

	counts := testChapterCounts()

	switch metaFormat {
	case "json", "js":
		suras := [][]any{{}}
		offset := 0
		for n := 1; n <= NumChapters; n++ {
			suras = append(suras, []any{
				offset, counts[n], n, 1,
				fmt.Sprintf("سورة-%d", n), fmt.Sprintf("Chapter-%d", n),
				fmt.Sprintf("Chapter-%d", n), "Meccan",
			})
			offset += counts[n]
		}
		pages := [][]any{{}}
		for p := 1; p <= NumPages; p++ {
			i := (p - 1) * TotalVerses / NumPages
			ch, v := locate(counts, i)
			pages = append(pages, []any{ch, v})
		}
		blob, err := json.Marshal(map[string]any{"Sura": suras, "Page": pages})
		require.NoError(t, err)
		if metaFormat == "js" {
			blob = []byte("var QuranData = " + string(blob) + ";\n")
		}
		name := "quran-data." + metaFormat
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata", name), blob, 0o644))
	case "xml":
		var b strings.Builder
		b.WriteString("<quran>\n<suras>\n")
		offset := 0
		for n := 1; n <= NumChapters; n++ {
			fmt.Fprintf(&b, `<sura index="%d" ayas="%d" start="%d" name="سورة-%d" tname="Chapter-%d" ename="Chapter-%d" type="Meccan" order="%d" rukus="1"/>`+"\n",
				n, counts[n], offset, n, n, n, n)
			offset += counts[n]
		}
		b.WriteString("</suras>\n<pages>\n")
		for p := 1; p <= NumPages; p++ {
			i := (p - 1) * TotalVerses / NumPages
			ch, v := locate(counts, i)
			fmt.Fprintf(&b, `<page index="%d" sura="%d" aya="%d"/>`+"\n", p, ch, v)
		}
		b.WriteString("</pages>\n</quran>\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata", "quran-data.xml"), []byte(b.String()), 0o644))
	}

	var text strings.Builder
	for n := 1; n <= NumChapters; n++ {
		for v := 1; v <= counts[n]; v++ {
			fmt.Fprintf(&text, "%d|%d|آية %d %d\n", n, v, n, v)
		}
	}
	text.WriteString("\n# Tanzil-style trailer comment\n")

	path := filepath.Join(dir, "text", "quran-uthmani.txt")
	if compress {
		f, err := os.Create(path + ".xz")
		require.NoError(t, err)
		w, err := xz.NewWriter(f)
		require.NoError(t, err)
		_, err = w.Write([]byte(text.String()))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, f.Close())
	} else {
		require.NoError(t, os.WriteFile(path, []byte(text.String()), 0o644))
	}
	return dir
}

// locate maps a flat index to (chapter, verse) using a counts table.
func locate(counts []int, i int) (int, int) {
	for n := 1; n <= NumChapters; n++ {
		if i < counts[n] {
			return n, i + 1
		}
		i -= counts[n]
	}
	return NumChapters, counts[NumChapters]
}

func TestLoadJSON(t *testing.T) {
	dir := writeTestData(t, "json", false)

	c, err := Load(dir, "hafs")
	require.NoError(t, err)

	assert.Equal(t, "سورة-2", c.Name(2, "ar"))
	assert.Equal(t, "Chapter-2", c.Name(2, "en"))
	assert.True(t, c.HasPages())

	text, err := c.Verse(3, 7)
	require.NoError(t, err)
	assert.Equal(t, "آية 3 7", text)
}

func TestLoadJSMetadata(t *testing.T) {
	dir := writeTestData(t, "js", false)

	c, err := Load(dir, "hafs")
	require.NoError(t, err)
	assert.Equal(t, 55, c.VerseCount(1))
}

func TestLoadXMLMetadata(t *testing.T) {
	dir := writeTestData(t, "xml", false)

	c, err := Load(dir, "hafs")
	require.NoError(t, err)
	assert.Equal(t, "Chapter-114", c.Name(114, "en"))
	assert.True(t, c.HasPages())
}

func TestLoadCompressedVerses(t *testing.T) {
	dir := writeTestData(t, "json", true)

	c, err := Load(dir, "hafs")
	require.NoError(t, err)

	text, err := c.Verse(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "آية 1 1", text)
}

func TestLoadVersesDigestStable(t *testing.T) {
	dir := writeTestData(t, "json", false)

	_, d1, err := LoadVerses(filepath.Join(dir, "text"), "hafs")
	require.NoError(t, err)
	_, d2, err := LoadVerses(filepath.Join(dir, "text"), "hafs")
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 16)
}

func TestLoadVersesUnknownSource(t *testing.T) {
	_, _, err := LoadVerses(t.TempDir(), "nope")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestLoadVersesMissingFile(t *testing.T) {
	_, _, err := LoadVerses(t.TempDir(), "hafs")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLoadMetadataMissing(t *testing.T) {
	_, _, err := LoadMetadata(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLoadVersesTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quran-uthmani.txt"), []byte("1|1|short\n"), 0o644))
	_, _, err := LoadVerses(dir, "hafs")
	assert.Error(t, err)
}

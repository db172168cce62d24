package quran

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/internal/logging"
)

// sourceFiles maps a text source name to its file under <dir>/text. Each
// file may also be present compressed as <name>.xz.
var sourceFiles = map[string]string{
	"hafs":   "quran-uthmani.txt",
	"simple": "quran-simple.txt",
	"clean":  "quran-simple-clean.txt",
	"min":    "quran-simple-min.txt",
}

// DefaultSource is the text source used when none is configured.
const DefaultSource = "hafs"

// Sources lists the known text source names.
func Sources() []string {
	out := make([]string, 0, len(sourceFiles))
	for name := range sourceFiles {
		out = append(out, name)
	}
	return out
}

// Load reads metadata and verse text from dir and returns a validated
// Corpus. The expected layout is <dir>/metadata/quran-data.{json,js,xml}
// and <dir>/text/<source file>[.xz].
func Load(dir, source string) (*Corpus, error) {
	chapters, pages, err := LoadMetadata(filepath.Join(dir, "metadata"))
	if err != nil {
		return nil, err
	}
	verses, digest, err := LoadVerses(filepath.Join(dir, "text"), source)
	if err != nil {
		return nil, err
	}
	c := New(chapters, pages, verses)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logging.CorpusLoaded(source, len(verses), digest)
	return c, nil
}

// LoadMetadata reads chapter and page tables from the first metadata file
// found in dir, trying quran-data.json, quran-data.js and quran-data.xml
// in that order.
func LoadMetadata(dir string) ([]Chapter, []PageRef, error) {
	for _, name := range []string{"quran-data.json", "quran-data.js", "quran-data.xml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, nil, errors.NewIO("read", path, err)
		}
		switch filepath.Ext(name) {
		case ".json":
			return parseMetadataJSON(path, data)
		case ".js":
			// The .js distribution is a JSON object wrapped in a
			// variable assignment; slice out the object literal.
			lo := strings.IndexByte(string(data), '{')
			hi := strings.LastIndexByte(string(data), '}')
			if lo < 0 || hi <= lo {
				return nil, nil, errors.NewParse("js", path, "no object literal found")
			}
			return parseMetadataJSON(path, data[lo:hi+1])
		case ".xml":
			return parseMetadataXML(path, data)
		}
	}
	return nil, nil, errors.NewNotFound("metadata file", dir)
}

func parseMetadataJSON(path string, data []byte) ([]Chapter, []PageRef, error) {
	var raw struct {
		Sura [][]any `json:"Sura"`
		Page [][]any `json:"Page"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.NewParseWrap("json", path, "metadata decode failed", err)
	}
	if len(raw.Sura) < NumChapters+1 {
		return nil, nil, errors.NewParse("json", path, fmt.Sprintf("sura table has %d rows", len(raw.Sura)))
	}

	chapters := make([]Chapter, NumChapters+1)
	for n := 1; n <= NumChapters; n++ {
		row := raw.Sura[n]
		if len(row) < 6 {
			return nil, nil, errors.NewParse("json", path, fmt.Sprintf("sura row %d too short", n))
		}
		chapters[n] = Chapter{
			Start:       jsonInt(row[0]),
			Count:       jsonInt(row[1]),
			NameArabic:  jsonString(row[4]),
			NameEnglish: jsonString(row[5]),
		}
	}

	var pages []PageRef
	if len(raw.Page) >= NumPages+1 {
		pages = make([]PageRef, NumPages+1)
		for p := 1; p <= NumPages; p++ {
			row := raw.Page[p]
			if len(row) < 2 {
				return nil, nil, errors.NewParse("json", path, fmt.Sprintf("page row %d too short", p))
			}
			pages[p] = PageRef{Chapter: jsonInt(row[0]), Verse: jsonInt(row[1])}
		}
	}
	return chapters, pages, nil
}

func jsonInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	}
	return 0
}

func jsonString(v any) string {
	s, _ := v.(string)
	return s
}

func parseMetadataXML(path string, data []byte) ([]Chapter, []PageRef, error) {
	doc, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, nil, errors.NewParseWrap("xml", path, "metadata decode failed", err)
	}

	chapters := make([]Chapter, NumChapters+1)
	for _, node := range xmlquery.Find(doc, "//suras/sura") {
		n, _ := strconv.Atoi(node.SelectAttr("index"))
		if n < 1 || n > NumChapters {
			return nil, nil, errors.NewParse("xml", path, fmt.Sprintf("sura index %d out of range", n))
		}
		start, _ := strconv.Atoi(node.SelectAttr("start"))
		ayas, _ := strconv.Atoi(node.SelectAttr("ayas"))
		chapters[n] = Chapter{
			Start:       start,
			Count:       ayas,
			NameArabic:  node.SelectAttr("name"),
			NameEnglish: node.SelectAttr("tname"),
		}
	}

	pageNodes := xmlquery.Find(doc, "//pages/page")
	var pages []PageRef
	if len(pageNodes) >= NumPages {
		pages = make([]PageRef, NumPages+1)
		for _, node := range pageNodes {
			p, _ := strconv.Atoi(node.SelectAttr("index"))
			if p < 1 || p > NumPages {
				continue
			}
			sura, _ := strconv.Atoi(node.SelectAttr("sura"))
			aya, _ := strconv.Atoi(node.SelectAttr("aya"))
			pages[p] = PageRef{Chapter: sura, Verse: aya}
		}
	}
	return chapters, pages, nil
}

// LoadVerses reads the verse text for the named source from dir, trying
// the plain file first and the .xz compressed variant second. It returns
// the verses in corpus order along with the BLAKE3 digest of the raw
// (decompressed) bytes.
func LoadVerses(dir, source string) ([]string, string, error) {
	name, ok := sourceFiles[source]
	if !ok {
		return nil, "", errors.Wrapf(errors.ErrInvalidInput, "unknown text source %q", source)
	}

	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		path += ".xz"
		data, err = readXZ(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.NewNotFound("text source", source)
		}
		return nil, "", errors.NewIO("read", path, err)
	}

	sum := blake3.Sum256(data)
	digest := fmt.Sprintf("%x", sum[:8])

	verses := make([]string, 0, TotalVerses)
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Tanzil files end with blank lines and a comment block.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Lines may carry a "sura|aya|text" prefix; keep the text only.
		if i := strings.LastIndexByte(line, '|'); i >= 0 {
			line = line[i+1:]
		}
		verses = append(verses, line)
		if len(verses) == TotalVerses {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", errors.NewIO("scan", path, err)
	}
	if len(verses) != TotalVerses {
		return nil, "", errors.NewParse("text", path, fmt.Sprintf("got %d verses, expected %d", len(verses), TotalVerses))
	}
	return verses, digest, nil
}

func readXZ(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, errors.NewIO("decompress", path, err)
	}
	return io.ReadAll(r)
}

package config

import (
	"sort"
	"strings"

	"github.com/adelkhalifa/qbot/core/errors"
)

// voices maps the short reciter names users type to the archive
// directories clips are fetched from.
var voices = map[string]string{
	"alafasy":    "Alafasy_64kbps",
	"husary":     "Husary_64kbps",
	"minshawi":   "Minshawy_Murattal_128kbps",
	"abdulbasit": "Abdul_Basit_Murattal_64kbps",
	"sudais":     "Abdurrahmaan_As-Sudais_64kbps",
	"shuraym":    "Saood_ash-Shuraym_64kbps",
	"ajamy":      "Ahmed_ibn_Ali_al-Ajamy_64kbps_QuranExplorer.Com",
}

// DefaultVoice is the reciter used when a user has not picked one.
const DefaultVoice = "alafasy"

// VoiceNames lists the known short names, sorted.
func VoiceNames() []string {
	out := make([]string, 0, len(voices))
	for name := range voices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// VoiceDir resolves a reciter to its archive directory. Both the short
// name and the full directory name are accepted.
func VoiceDir(name string) (string, error) {
	if dir, ok := voices[strings.ToLower(name)]; ok {
		return dir, nil
	}
	for _, dir := range voices {
		if dir == name {
			return dir, nil
		}
	}
	return "", errors.NewNotFound("voice", name)
}

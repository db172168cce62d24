package arabic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"alif hamza above", "أحمد", "احمد"},
		{"alif hamza below", "إبراهيم", "ابراهيم"},
		{"alif madda", "آمن", "امن"},
		{"alif wasla", "ٱلرحمن", "الرحمن"},
		{"alif maksura to ya", "موسى", "موسي"},
		{"hamza on waw", "مؤمن", "مءمن"},
		{"hamza on ya", "سائل", "ساءل"},
		{"ta marbuta to ha", "البقرة", "البقره"},
		{"tashkeel stripped", "بِسْمِ اللَّهِ", "بسم الله"},
		{"superscript alif stripped", "الرحمٰن", "الرحمن"},
		{"tatweel stripped", "محمـــد", "محمد"},
		{"zero width stripped", "اب‌ج‍د\ufeff", "ابجد"},
		{"whitespace collapsed", "  يس   و القرآن  ", "يس و القران"},
		{"latin lowercased", "Al-Baqarah", "al-baqarah"},
		{"mixed passthrough", "Surah 2", "surah 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ",
		"ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ",
		"Al-Fatihah 1:1",
		"  mixed   الفاتحة  TEXT  ",
		"​مؤتة‌",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize must be idempotent for %q", in)
	}
}

package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ar", "en"}, b.Languages())
	assert.True(t, b.Has("en"))
	assert.False(t, b.Has("fr"))
}

func TestTranslation(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.NotEqual(t, b.T("en", "greeting"), b.T("ar", "greeting"))
	assert.Contains(t, b.T("en", "voice_set", "Alafasy_64kbps"), "Alafasy_64kbps")
	assert.Equal(t, "chapter 115 is out of range (1..114).", b.T("en", "out_of_range", "chapter", 115, 114))
}

func TestFallbacks(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	// Unknown language falls back to English.
	assert.Equal(t, b.T("en", "greeting"), b.T("xx", "greeting"))
	// Unknown key renders as itself.
	assert.Equal(t, "no_such_key", b.T("en", "no_such_key"))
}

func TestAllKeysTranslated(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	for key := range b.messages["en"] {
		_, ok := b.messages["ar"][key]
		assert.True(t, ok, "key %q missing in ar", key)
	}
	for key := range b.messages["ar"] {
		_, ok := b.messages["en"][key]
		assert.True(t, ok, "key %q missing in en", key)
	}
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "qbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUserDefaults(t *testing.T) {
	s := testStore(t)

	u, err := s.GetUser("nobody")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "nobody", Lang: "en"}, u)
}

func TestUserPreferences(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.SetLang("u1", "ar"))
	require.NoError(t, s.SetVoice("u1", "Alafasy_64kbps"))
	require.NoError(t, s.SetTafsirSource("u1", "jalalayn"))
	require.NoError(t, s.SetTextFormat("u1", "tajweed"))
	// Second write to the same column overwrites.
	require.NoError(t, s.SetLang("u1", "en"))

	u, err := s.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "en", u.Lang)
	assert.Equal(t, "Alafasy_64kbps", u.Voice)
	assert.Equal(t, "jalalayn", u.TafsirSource)
	assert.Equal(t, "tajweed", u.TextFormat)

	// Other users are untouched.
	other, err := s.GetUser("u2")
	require.NoError(t, err)
	assert.Equal(t, "en", other.Lang)
	assert.Empty(t, other.Voice)
	assert.Empty(t, other.TafsirSource)
	assert.Empty(t, other.TextFormat)
}

func TestTafsirCacheRoundTrip(t *testing.T) {
	s := testStore(t)

	_, ok, err := s.GetTafsir("muyassar", 2, 255, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutTafsir("muyassar", 2, 255, "commentary text"))

	body, ok, err := s.GetTafsir("muyassar", 2, 255, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "commentary text", body)

	// Different edition is a different key.
	_, ok, err = s.GetTafsir("jalalayn", 2, 255, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTafsirCacheExpiry(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.PutTafsir("muyassar", 1, 1, "old"))

	// A zero TTL makes everything stale.
	_, ok, err := s.GetTafsir("muyassar", 1, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	// The stale row was dropped, so a long TTL still misses.
	_, ok, err = s.GetTafsir("muyassar", 1, 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurgeExpiredTafsir(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.PutTafsir("muyassar", 1, 1, "a"))
	require.NoError(t, s.PutTafsir("muyassar", 1, 2, "b"))

	n, err := s.PurgeExpiredTafsir(0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.PurgeExpiredTafsir(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

package ratelimit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clockAt pins the limiter to a fake clock the test can advance.
func clockAt(l *Limiter) *time.Time {
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return &now
}

func TestAllowUpToLimit(t *testing.T) {
	l := New(3, time.Hour)
	clockAt(l)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("u1"), "event %d", i)
	}
	assert.False(t, l.Allow("u1"))
	assert.Zero(t, l.Remaining("u1"))
}

func TestKeysIndependent(t *testing.T) {
	l := New(1, time.Hour)
	clockAt(l)

	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))
}

func TestWindowSlides(t *testing.T) {
	l := New(2, time.Hour)
	now := clockAt(l)

	assert.True(t, l.Allow("u1"))
	*now = now.Add(30 * time.Minute)
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))

	// The first event ages out after another 31 minutes.
	*now = now.Add(31 * time.Minute)
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
}

func TestRetryAfter(t *testing.T) {
	l := New(1, time.Hour)
	now := clockAt(l)

	assert.Zero(t, l.RetryAfter("u1"))
	assert.True(t, l.Allow("u1"))
	assert.Equal(t, time.Hour, l.RetryAfter("u1"))

	*now = now.Add(40 * time.Minute)
	assert.Equal(t, 20*time.Minute, l.RetryAfter("u1"))

	*now = now.Add(21 * time.Minute)
	assert.Zero(t, l.RetryAfter("u1"))
}

func TestRemaining(t *testing.T) {
	l := New(5, time.Hour)
	clockAt(l)

	assert.Equal(t, 5, l.Remaining("u1"))
	l.Allow("u1")
	l.Allow("u1")
	assert.Equal(t, 3, l.Remaining("u1"))
}

// Timestamps survive a save/load cycle, so a fresh process picks up the
// budget where the last one left it.
func TestStatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelimit.json")

	l := New(2, time.Hour)
	now := clockAt(l)
	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	require.NoError(t, l.SaveFile(path))

	fresh := New(2, time.Hour)
	fresh.now = l.now
	require.NoError(t, fresh.LoadFile(path))
	assert.False(t, fresh.Allow("u1"))
	assert.True(t, fresh.Allow("u2"))

	// Restored events age out like live ones.
	*now = now.Add(61 * time.Minute)
	assert.True(t, fresh.Allow("u1"))
}

func TestLoadFileMissing(t *testing.T) {
	l := New(1, time.Hour)
	require.NoError(t, l.LoadFile(filepath.Join(t.TempDir(), "absent.json")))
	assert.True(t, l.Allow("u1"))
}

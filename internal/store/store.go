// Package store persists user preferences and the durable tafsir cache in
// a single SQLite database.
package store

import (
	"database/sql"
	"time"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/internal/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	lang          TEXT NOT NULL DEFAULT 'en',
	voice         TEXT NOT NULL DEFAULT '',
	tafsir_source TEXT NOT NULL DEFAULT '',
	text_format   TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS tafsir_cache (
	edition    TEXT NOT NULL,
	chapter    INTEGER NOT NULL,
	verse      INTEGER NOT NULL,
	body       TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL,
	PRIMARY KEY (edition, chapter, verse)
);
`

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "applying schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// User is one user's stored preferences. Empty voice, tafsir source and
// text format mean "use the configured default".
type User struct {
	ID           string
	Lang         string
	Voice        string
	TafsirSource string
	TextFormat   string
}

// GetUser returns the stored preferences for id, or defaults when the
// user has never been seen.
func (s *Store) GetUser(id string) (User, error) {
	u := User{ID: id, Lang: "en"}
	err := s.db.QueryRow(
		`SELECT lang, voice, tafsir_source, text_format FROM users WHERE id = ?`, id,
	).Scan(&u.Lang, &u.Voice, &u.TafsirSource, &u.TextFormat)
	if err == sql.ErrNoRows {
		return u, nil
	}
	if err != nil {
		return User{}, errors.Wrap(err, "loading user")
	}
	return u, nil
}

// SetLang stores a user's preferred language.
func (s *Store) SetLang(id, lang string) error {
	return s.upsertUser(id, "lang", lang)
}

// SetVoice stores a user's preferred reciter.
func (s *Store) SetVoice(id, voice string) error {
	return s.upsertUser(id, "voice", voice)
}

// SetTafsirSource stores a user's preferred commentary edition.
func (s *Store) SetTafsirSource(id, source string) error {
	return s.upsertUser(id, "tafsir_source", source)
}

// SetTextFormat stores a user's preferred verse text source.
func (s *Store) SetTextFormat(id, format string) error {
	return s.upsertUser(id, "text_format", format)
}

func (s *Store) upsertUser(id, column, value string) error {
	query := `INSERT INTO users (id, ` + column + `, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ` + column + ` = excluded.` + column + `, updated_at = excluded.updated_at`
	if _, err := s.db.Exec(query, id, value, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "saving user")
	}
	return nil
}

// GetTafsir returns a cached commentary body. Entries older than ttl are
// misses and are removed on the way out.
func (s *Store) GetTafsir(edition string, chapter, verse int, ttl time.Duration) (string, bool, error) {
	var (
		body      string
		fetchedAt time.Time
	)
	err := s.db.QueryRow(
		`SELECT body, fetched_at FROM tafsir_cache WHERE edition = ? AND chapter = ? AND verse = ?`,
		edition, chapter, verse,
	).Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "loading tafsir cache")
	}
	if time.Since(fetchedAt) > ttl {
		_, _ = s.db.Exec(
			`DELETE FROM tafsir_cache WHERE edition = ? AND chapter = ? AND verse = ?`,
			edition, chapter, verse,
		)
		return "", false, nil
	}
	return body, true, nil
}

// PutTafsir stores a commentary body, replacing any earlier entry.
func (s *Store) PutTafsir(edition string, chapter, verse int, body string) error {
	_, err := s.db.Exec(
		`INSERT INTO tafsir_cache (edition, chapter, verse, body, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(edition, chapter, verse) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		edition, chapter, verse, body, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "saving tafsir cache")
	}
	return nil
}

// PurgeExpiredTafsir deletes entries older than ttl and reports how many
// went away.
func (s *Store) PurgeExpiredTafsir(ttl time.Duration) (int, error) {
	res, err := s.db.Exec(`DELETE FROM tafsir_cache WHERE fetched_at < ?`, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, errors.Wrap(err, "purging tafsir cache")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

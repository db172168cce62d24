// Package tafsir fetches verse commentary from the alquran.cloud API with
// two cache tiers: an in-process LRU for the hot set and a SQLite table
// that survives restarts. Commentary text changes essentially never, so
// the durable tier keeps entries for a month.
package tafsir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/adelkhalifa/qbot/core/errors"
	"github.com/adelkhalifa/qbot/core/quran"
	"github.com/adelkhalifa/qbot/internal/cache"
	"github.com/adelkhalifa/qbot/internal/logging"
	"github.com/adelkhalifa/qbot/internal/store"
)

const (
	// DefaultBaseURL is the public commentary API.
	DefaultBaseURL = "https://api.alquran.cloud/v1"
	// storeTTL is how long the durable cache tier keeps an entry.
	storeTTL = 30 * 24 * time.Hour
	// requestTimeout bounds one API call.
	requestTimeout = 10 * time.Second
)

// editions maps the short names users type to API edition identifiers.
var editions = map[string]string{
	"muyassar":   "ar.muyassar",
	"jalalayn":   "ar.jalalayn",
	"qurtubi":    "ar.qurtubi",
	"ibn-kathir": "ar.kathir",
}

// DefaultEdition is used when the user does not pick one.
const DefaultEdition = "muyassar"

// Editions lists the supported edition short names, sorted.
func Editions() []string {
	out := make([]string, 0, len(editions))
	for name := range editions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Service serves commentary lookups.
type Service struct {
	BaseURL string
	Client  *http.Client

	store *store.Store
	lru   cache.Cache[string, string]
}

// New builds a Service over the durable store. st may be nil, in which
// case only the in-process tier caches.
func New(st *store.Store) *Service {
	return &Service{
		BaseURL: DefaultBaseURL,
		Client:  &http.Client{Timeout: requestTimeout},
		store:   st,
		lru:     cache.NewLRUCache[string, string](cache.DefaultConfig()),
	}
}

// Get returns the commentary for one verse in the given edition.
func (s *Service) Get(ctx context.Context, edition string, chapter, verse int) (string, error) {
	id, ok := editions[edition]
	if !ok {
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown tafsir edition %q", edition)
	}
	if chapter < 1 || chapter > quran.NumChapters {
		return "", errors.NewOutOfRange("chapter", chapter, quran.NumChapters)
	}

	key := fmt.Sprintf("%s:%d:%d", edition, chapter, verse)
	if body, hit := s.lru.Get(key); hit {
		return body, nil
	}
	if s.store != nil {
		body, hit, err := s.store.GetTafsir(edition, chapter, verse, storeTTL)
		if err != nil {
			logging.Warn("tafsir store read failed", "key", key, "error", err)
		} else if hit {
			s.lru.Put(key, body)
			return body, nil
		}
	}

	body, err := s.fetch(ctx, id, chapter, verse)
	if err != nil {
		return "", err
	}
	s.lru.Put(key, body)
	if s.store != nil {
		if err := s.store.PutTafsir(edition, chapter, verse, body); err != nil {
			logging.Warn("tafsir store write failed", "key", key, "error", err)
		}
	}
	return body, nil
}

func (s *Service) fetch(ctx context.Context, editionID string, chapter, verse int) (string, error) {
	url := fmt.Sprintf("%s/ayah/%d:%d/%s", s.BaseURL, chapter, verse, editionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "tafsir request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", errors.NewNotFound("tafsir", fmt.Sprintf("%d:%d", chapter, verse))
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(errors.ErrInternal, "tafsir API status %d", resp.StatusCode)
	}

	var doc struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", errors.NewParseWrap("json", url, "tafsir response decode failed", err)
	}
	if doc.Data.Text == "" {
		return "", errors.NewNotFound("tafsir", fmt.Sprintf("%d:%d", chapter, verse))
	}
	return doc.Data.Text, nil
}

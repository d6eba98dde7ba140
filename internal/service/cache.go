package service

import (
	"sync"
	"time"

	"github.com/analiz-sintez/begriff/internal/domain"
	"github.com/analiz-sintez/begriff/internal/storage"
)

const (
	injectCacheTTL  = 60 * time.Second
	injectCacheSize = 256
	injectBatchSize = 10
)

type cacheKey struct {
	userID     int64
	languageID int64
}

type cacheEntry struct {
	notes   []domain.Note
	expires time.Time
}

// noteCache is a bounded time-based cache of "notes to inject" per
// (user, language). Entries expire after the TTL; writes through the
// service invalidate their key explicitly.
type noteCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[cacheKey]cacheEntry
}

func newNoteCache(ttl time.Duration, maxSize int) *noteCache {
	return &noteCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *noteCache) get(key cacheKey, now time.Time) ([]domain.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || now.After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.notes, true
}

func (c *noteCache) put(key cacheKey, notes []domain.Note, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		// Evict expired entries first; drop everything if that is not
		// enough. The cache is advisory, losing it only costs a query.
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.maxSize {
			c.entries = make(map[cacheKey]cacheEntry)
		}
	}
	c.entries[key] = cacheEntry{notes: notes, expires: now.Add(c.ttl)}
}

func (c *noteCache) invalidate(userID, languageID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{userID: userID, languageID: languageID})
}

// InjectableNotes returns the user's most recent notes for a language,
// for injection into generated texts. Results are cached for the TTL
// and invalidated when the user adds a note.
func (s *Service) InjectableNotes(userID, languageID int64) ([]domain.Note, error) {
	key := cacheKey{userID: userID, languageID: languageID}
	now := time.Now().UTC()
	if notes, ok := s.inject.get(key, now); ok {
		return notes, nil
	}

	notes, err := s.db.SearchNotes(storage.NoteQuery{
		UserID:     userID,
		LanguageID: &languageID,
		OrderBy:    "created_at",
	})
	if err != nil {
		return nil, err
	}
	if len(notes) > injectBatchSize {
		notes = notes[:injectBatchSize]
	}
	s.inject.put(key, notes, now)
	return notes, nil
}

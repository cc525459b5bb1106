// Package personal is the single accessor for browser-local personalization:
// favorites and recently viewed products, kept as JSON arrays under two keys.
package personal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"marketview/internal/domain"
	applog "marketview/internal/log"
)

const (
	FavoritesKey = "favoriteProducts"
	HistoryKey   = "recentlyViewed"

	MaxFavorites = 30
	MaxHistory   = 6
)

// Storage is a per-browser key/value storage. UpdateItem runs a
// read-modify-write of one item atomically.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	UpdateItem(ctx context.Context, key string, fn func(old string, ok bool) (string, error)) error
}

// Stats summarises the dashboard counters.
type Stats struct {
	Favorites  int
	History    int
	Categories int
}

// Store reads and writes personalization records through a Storage.
type Store struct {
	storage Storage
}

func NewStore(s Storage) *Store { return &Store{storage: s} }

// Favorites returns the saved favorites, most recent first.
func (s *Store) Favorites(ctx context.Context) ([]domain.Entry, error) {
	return s.read(ctx, FavoritesKey)
}

// History returns recently viewed products, most recent first.
func (s *Store) History(ctx context.Context) ([]domain.Entry, error) {
	return s.read(ctx, HistoryKey)
}

// IsFavorite tests membership by (id, category).
func (s *Store) IsFavorite(ctx context.Context, id string, cat domain.Category) (bool, error) {
	favs, err := s.Favorites(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(favs, domain.Entry{ID: id, Category: cat}) >= 0, nil
}

// ToggleFavorite removes e when present, otherwise prepends it. It reports
// whether e is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, e domain.Entry) (bool, error) {
	var now bool
	_, err := s.update(ctx, FavoritesKey, func(favs []domain.Entry) []domain.Entry {
		if i := indexOf(favs, e); i >= 0 {
			now = false
			return append(favs[:i:i], favs[i+1:]...)
		}
		now = true
		return prepend(favs, e, MaxFavorites)
	})
	if err != nil {
		return false, err
	}
	return now, nil
}

// RecordView moves e to the front of the history, dropping any earlier entry
// for the same product.
func (s *Store) RecordView(ctx context.Context, e domain.Entry) ([]domain.Entry, error) {
	return s.update(ctx, HistoryKey, func(hist []domain.Entry) []domain.Entry {
		if i := indexOf(hist, e); i >= 0 {
			hist = append(hist[:i:i], hist[i+1:]...)
		}
		return prepend(hist, e, MaxHistory)
	})
}

// Stats counts favorites, history and the distinct categories among favorites.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	favs, err := s.Favorites(ctx)
	if err != nil {
		return Stats{}, err
	}
	hist, err := s.History(ctx)
	if err != nil {
		return Stats{}, err
	}
	cats := make(map[domain.Category]struct{}, len(favs))
	for _, f := range favs {
		cats[f.Category] = struct{}{}
	}
	return Stats{Favorites: len(favs), History: len(hist), Categories: len(cats)}, nil
}

// read returns the list at key.
func (s *Store) read(ctx context.Context, key string) ([]domain.Entry, error) {
	raw, ok, err := s.storage.GetItem(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return decode(ctx, key, raw, ok), nil
}

// update applies fn to the list at key and stores the result atomically.
func (s *Store) update(ctx context.Context, key string, fn func([]domain.Entry) []domain.Entry) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := s.storage.UpdateItem(ctx, key, func(old string, ok bool) (string, error) {
		entries = fn(decode(ctx, key, old, ok))
		b, err := json.Marshal(entries)
		return string(b), err
	})
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}
	return entries, nil
}

// decode parses a stored list. Corrupt JSON reads as an empty list; the next
// write replaces it.
func decode(ctx context.Context, key, raw string, ok bool) []domain.Entry {
	if !ok || raw == "" {
		return []domain.Entry{}
	}
	var out []domain.Entry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		applog.WarnCtx(ctx, "personal.malformed", fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err), map[string]any{"key": key})
		return []domain.Entry{}
	}
	if out == nil {
		out = []domain.Entry{}
	}
	return out
}

func indexOf(entries []domain.Entry, e domain.Entry) int {
	for i, x := range entries {
		if x.Same(e) {
			return i
		}
	}
	return -1
}

func prepend(entries []domain.Entry, e domain.Entry, limit int) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries)+1)
	out = append(out, e)
	out = append(out, entries...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) UpdateItem(_ context.Context, key string, fn func(old string, ok bool) (string, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.items[key]
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	m.items[key] = v
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

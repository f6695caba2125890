package store

import (
	"context"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
// Records are copied on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	urls   map[shortener.Code]shortener.ShortURL
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls: make(map[shortener.Code]shortener.ShortURL),
	}
}

func (m *MemoryStore) Add(_ context.Context, shortURL *shortener.ShortURL) (*shortener.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.urls[shortURL.Code]; ok {
		return nil, shortener.ErrDuplicateCode
	}

	m.nextID++

	stored := cloneShortURL(*shortURL)
	stored.ID = m.nextID
	m.urls[stored.Code] = stored

	out := cloneShortURL(stored)

	return &out, nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	out := cloneShortURL(stored)

	return &out, nil
}

func cloneShortURL(s shortener.ShortURL) shortener.ShortURL {
	if s.ExpiresAt != nil {
		exp := *s.ExpiresAt
		s.ExpiresAt = &exp
	}

	return s
}

var _ shortener.Repository = (*MemoryStore)(nil)

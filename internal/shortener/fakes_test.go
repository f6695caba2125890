package shortener_test

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

type fakeCodes struct {
	codes []string
	err   error
	calls int
}

func (f *fakeCodes) GenerateCode(_ context.Context) (string, error) {
	f.calls++

	if f.err != nil {
		return "", f.err
	}

	if len(f.codes) == 0 {
		return "", nil
	}

	code := f.codes[0]
	f.codes = f.codes[1:]

	return code, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[shortener.Code]*shortener.ShortURL
	addErr  error
	getErr  error
	adds    int
	gets    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[shortener.Code]*shortener.ShortURL)}
}

func (f *fakeRepo) Add(_ context.Context, s *shortener.ShortURL) (*shortener.ShortURL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adds++

	if f.addErr != nil {
		return nil, f.addErr
	}

	if _, ok := f.records[s.Code]; ok {
		return nil, shortener.ErrDuplicateCode
	}

	stored := *s
	stored.ID = int64(len(f.records) + 1)
	f.records[s.Code] = &stored

	out := stored

	return &out, nil
}

func (f *fakeRepo) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++

	if f.getErr != nil {
		return nil, f.getErr
	}

	s, ok := f.records[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	out := *s

	return &out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	records map[shortener.Code]shortener.CachedRecord
	ttls    map[shortener.Code]time.Duration
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		records: make(map[shortener.Code]shortener.CachedRecord),
		ttls:    make(map[shortener.Code]time.Duration),
	}
}

func (f *fakeCache) Get(_ context.Context, code shortener.Code) (*shortener.CachedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++

	if f.getErr != nil {
		return nil, f.getErr
	}

	rec, ok := f.records[code]
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	return &rec, nil
}

func (f *fakeCache) Set(_ context.Context, code shortener.Code, rec *shortener.CachedRecord, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sets++

	if f.setErr != nil {
		return f.setErr
	}

	f.records[code] = *rec
	f.ttls[code] = ttl

	return nil
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	registrykv "github.com/wellmind/care-service/internal/registry/kv"
)

func init() {
	registrykv.Register(registrykv.Plugin{
		Name: "memory",
		Loader: func(ctx context.Context) (registrykv.Store, error) {
			return New(), nil
		},
	})
}

// New returns an empty in-memory Store. Used by tests and dev mode.
func New() registrykv.Store {
	return &memoryStore{data: map[string][]byte{}}
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memoryStore) ScanPrefix(ctx context.Context, prefix string) ([]registrykv.Pair, error) {
	s.mu.RLock()
	keys := make([]string, 0, 16)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]registrykv.Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, registrykv.Pair{Key: k, Value: append([]byte(nil), s.data[k]...)})
	}
	s.mu.RUnlock()
	return pairs, nil
}

func (s *memoryStore) Close() error {
	return nil
}

var _ registrykv.Store = (*memoryStore)(nil)

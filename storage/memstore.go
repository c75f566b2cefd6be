package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/blang/semver"
)

func init() {
	RegisterEngine(memEngine{})
}

type memEngine struct{}

func (memEngine) GetName() string               { return "memstore" }
func (memEngine) GetDescription() string        { return "in-memory key-value store" }
func (memEngine) GetSemVer() (v semver.Version) { v, _ = semver.Make("1.0.0"); return }

func (memEngine) NewStore(path string) (KeyValueStore, error) {
	return NewMemStore(), nil
}

// MemStore is an in-memory KeyValueStore used for testing and small runs.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, found := s.data[key]
	if !found {
		return nil, ErrKeyNotFound
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	return dup, nil
}

func (s *MemStore) Put(key string, value []byte) error {
	dup := make([]byte, len(value))
	copy(dup, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = dup
	return nil
}

func (s *MemStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *MemStore) ListPrefix(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemStore) Close() error {
	return nil
}

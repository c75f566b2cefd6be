/*
Package storage provides the key-value interface backing fragment and
skeleton persistence, plus a registry of storage engines.  Fragments are
keyed by "{object_id}:skel:{bbox_token}" and fragment-list metadata by
"{object_id}.json", so any engine that supports prefix listing can serve
both pipeline stages.
*/
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blang/semver"
)

// ErrKeyNotFound is returned by Get when no value exists under the key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the minimal store contract the pipeline requires.
type KeyValueStore interface {
	// Get returns the value under a key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Put durably writes a value under a key.
	Put(key string, value []byte) error

	// Delete removes the given keys.  Missing keys are not an error.
	Delete(keys ...string) error

	// ListPrefix returns all keys with the given prefix in lexicographic
	// order.
	ListPrefix(prefix string) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// Engine is a storage backend that can create stores at a path.
type Engine interface {
	GetName() string
	GetDescription() string
	GetSemVer() semver.Version
	NewStore(path string) (KeyValueStore, error)
}

var (
	enginesMu sync.RWMutex
	engines   = map[string]Engine{}
)

// RegisterEngine makes an engine available by name.
func RegisterEngine(e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[e.GetName()] = e
}

// GetEngine returns a registered engine by name.
func GetEngine(name string) (Engine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	e, found := engines[name]
	if !found {
		return nil, fmt.Errorf("no storage engine %q is registered", name)
	}
	return e, nil
}

// NewStore opens a store using the named engine.
func NewStore(engine, path string) (KeyValueStore, error) {
	e, err := GetEngine(engine)
	if err != nil {
		return nil, err
	}
	return e.NewStore(path)
}

// EnginesAvailable returns a description of registered engines.
func EnginesAvailable() string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	var s string
	for _, e := range engines {
		if s != "" {
			s += "; "
		}
		s += fmt.Sprintf("%s [%s]", e.GetName(), e.GetSemVer())
	}
	return s
}

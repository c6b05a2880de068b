// Package memory provides a map-backed storage adapter. Used by tests
// and as a throwaway store for demos; nothing survives the process.
package memory

import (
	"sync"

	"github.com/bodahq/boda/core"
)

// Adapter is an in-memory core.Storage.
type Adapter struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ core.Storage = (*Adapter)(nil)

func New() *Adapter {
	return &Adapter{data: make(map[string][]byte)}
}

func (a *Adapter) Get(key string) ([]byte, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	value, ok := a.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (a *Adapter) Set(key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	a.data[key] = stored
	return nil
}

func (a *Adapter) Delete(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.data, key)
	return nil
}

// Keys returns the stored key set; test helper.
func (a *Adapter) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.data))
	for k := range a.data {
		keys = append(keys, k)
	}
	return keys
}

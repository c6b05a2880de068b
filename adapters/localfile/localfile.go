// Package localfile persists the whole keyspace as one JSON document
// on disk. It is the library's stand-in for browser localStorage: tiny
// data, synchronous writes, a single writer of record.
package localfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodahq/boda/core"
)

// Adapter is a file-backed core.Storage. The file holds a flat
// string-to-string object, localStorage style. It is read once at
// Open; every Set/Delete rewrites it via atomic rename so a crash
// never leaves a half-written store behind.
type Adapter struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

var _ core.Storage = (*Adapter)(nil)

// Open loads (or lazily creates) the store file at path.
func Open(path string) (*Adapter, error) {
	a := &Adapter{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening store file: %w", err)
	}
	if len(raw) == 0 {
		return a, nil
	}

	if err := json.Unmarshal(raw, &a.data); err != nil {
		return nil, fmt.Errorf("store file is not valid JSON: %w", err)
	}
	return a, nil
}

func (a *Adapter) Get(key string) ([]byte, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	value, ok := a.data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (a *Adapter) Set(key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.data[key] = string(value)
	return a.flushLocked()
}

func (a *Adapter) Delete(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.data[key]; !ok {
		return nil
	}
	delete(a.data, key)
	return a.flushLocked()
}

// flushLocked rewrites the whole file. Caller holds the lock.
func (a *Adapter) flushLocked() error {
	raw, err := json.MarshalIndent(a.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".boda-*")
	if err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing store file: %w", err)
	}

	if err := os.Rename(tmpName, a.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

package zarr

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is the key/value surface a Zarr hierarchy is written to and read
// from. Keys use "/" separators regardless of platform.
type Store interface {
	Set(key string, data []byte) error
	Get(key string) ([]byte, error)
	// List returns all keys in lexical order.
	List() ([]string, error)
}

// DirStore maps keys onto files under a root directory.
type DirStore struct {
	root string
}

// NewDirStore creates the root directory if needed and returns a store
// over it.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *DirStore) Root() string {
	return s.root
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Set writes a key, creating parent directories as needed.
func (s *DirStore) Set(key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Get reads a key.
func (s *DirStore) Get(key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

// List walks the hierarchy and returns all keys in lexical order.
func (s *DirStore) List() ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// MemStore is an in-memory store for tests.
type MemStore struct {
	entries map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: map[string][]byte{}}
}

// Set stores a copy of data under key.
func (s *MemStore) Set(key string, data []byte) error {
	s.entries[key] = append([]byte(nil), data...)
	return nil
}

// Get returns the data stored under key.
func (s *MemStore) Get(key string) ([]byte, error) {
	data, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %q", os.ErrNotExist, key)
	}
	return data, nil
}

// List returns all keys in lexical order.
func (s *MemStore) List() ([]string, error) {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// arrayPaths filters a key list down to the array paths of a hierarchy,
// identified by their .zarray keys.
func arrayPaths(keys []string) []string {
	var paths []string
	for _, k := range keys {
		if strings.HasSuffix(k, "/"+arrayKey) {
			paths = append(paths, strings.TrimSuffix(k, "/"+arrayKey))
		}
	}
	return paths
}

// internal/storage/file_store.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore persists small JSON documents under a base directory, one file
// per key. Used for the bundle archive and per-book viewer preferences.
// Concurrent access to the same key is serialized with a per-file lock.
type FileStore struct {
	BaseDir string

	fileLocks sync.Map // path -> *sync.RWMutex
}

// NewFileStore creates the base directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{BaseDir: baseDir}, nil
}

func (fs *FileStore) lockFor(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// resolve keeps keys inside the base directory.
func (fs *FileStore) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key: %q", name)
	}
	return filepath.Join(fs.BaseDir, clean), nil
}

// SaveRaw writes bytes under name, creating parent directories as needed.
func (fs *FileStore) SaveRaw(name string, data []byte) error {
	path, err := fs.resolve(name)
	if err != nil {
		return err
	}

	lock := fs.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// SaveJSON marshals v with indentation and writes it under name.
func (fs *FileStore) SaveJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return fs.SaveRaw(name, data)
}

// LoadJSON reads the document under name into v. Missing files are reported
// via os.IsNotExist on the returned error.
func (fs *FileStore) LoadJSON(name string, v interface{}) error {
	path, err := fs.resolve(name)
	if err != nil {
		return err
	}

	lock := fs.lockFor(path)
	lock.RLock()
	defer lock.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a document is stored under name.
func (fs *FileStore) Exists(name string) bool {
	path, err := fs.resolve(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// Delete removes the document under name. Deleting a missing document is
// not an error.
func (fs *FileStore) Delete(name string) error {
	path, err := fs.resolve(name)
	if err != nil {
		return err
	}

	lock := fs.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns the stored keys under a subdirectory, sorted.
func (fs *FileStore) List(dir string) ([]string, error) {
	path, err := fs.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists session keys as a JSON object in a single file. A store
// constructed with an empty path is a no-op store: reads return "" and writes
// do nothing. This mirrors the contract that session access must never fail
// just because no persistent location is available.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the session file location under the user config
// directory, or "" when none can be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "secureshare", "session.json")
}

func (f *FileStore) Get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()[key]
}

func (f *FileStore) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data := f.load()
	data[key] = value
	f.save(data)
}

func (f *FileStore) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data := f.load()
	if _, ok := data[key]; !ok {
		return
	}
	delete(data, key)
	f.save(data)
}

// load reads the session file. Any read or decode failure yields an empty
// map; a corrupt session file is indistinguishable from an absent one.
func (f *FileStore) load() map[string]string {
	data := map[string]string{}
	if f.path == "" {
		return data
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return data
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]string{}
	}
	return data
}

func (f *FileStore) save(data map[string]string) {
	if f.path == "" {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return
	}
	// The file holds a bearer token; keep it private to the user.
	_ = os.WriteFile(f.path, raw, 0o600)
}

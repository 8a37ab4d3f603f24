package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// KeyCache is a per-user file that holds unlocked keys so that repeated
// commands skip the OS keychain prompt. The file is written with 0600.
//
//	macOS:   ~/Library/Caches/w3oracle/session.json
//	Linux:   ~/.cache/w3oracle/session.json
//	Windows: %LocalAppData%\w3oracle\session.json
type KeyCache struct {
	mu   sync.Mutex
	path string
}

// NewKeyCache returns a cache stored at path.
func NewKeyCache(path string) *KeyCache {
	return &KeyCache{path: path}
}

// DefaultKeyCache returns the cache in the OS cache directory.
func DefaultKeyCache() *KeyCache {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return NewKeyCache(filepath.Join(dir, keychainService, "session.json"))
}

// Get returns a cached key for ref.
func (c *KeyCache) Get(ref string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.load()[ref]
	return v, ok
}

// Put caches a key for ref.
func (c *KeyCache) Put(ref, hexKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.load()
	m[ref] = normaliseHexKey(hexKey)
	return c.save(m)
}

// Remove evicts ref from the cache.
func (c *KeyCache) Remove(ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.load()
	if _, ok := m[ref]; !ok {
		return nil
	}
	delete(m, ref)
	return c.save(m)
}

// Clear deletes the cache file.
func (c *KeyCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Active reports whether any key is cached.
func (c *KeyCache) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.load()) > 0
}

// load returns an empty map (never nil) on any error.
func (c *KeyCache) load() map[string]string {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func (c *KeyCache) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return err
	}
	_ = os.Chmod(c.path, 0o600)
	return nil
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spboyer/ifccheck/internal/checks"
)

// keyVersion is mixed into every key. Bump it when a rule's output changes
// so stale entries stop matching.
const keyVersion = "2"

// Entry is one cached rule run. Schema is the model's schema identifier so
// a cache hit reports the same header as a fresh parse.
type Entry struct {
	Schema  string          `json:"schema,omitempty"`
	Results []checks.Result `json:"results"`
}

// Cache stores rule results on disk, one JSON file per key
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// CacheKey generates a unique cache key for one rule run against one model.
// The key is based on:
// - the model file content
// - the rule name
// - the rule options
func CacheKey(modelPath, rule string, opts checks.Options) (string, error) {
	h := sha256.New()

	if err := writeString(h, keyVersion); err != nil {
		return "", err
	}
	if err := writeString(h, rule); err != nil {
		return "", err
	}

	// encoding/json sorts map keys, so equal options hash equally
	optsJSON, err := json.Marshal(normalizeOptions(opts))
	if err != nil {
		return "", fmt.Errorf("marshaling options: %w", err)
	}
	if _, err := h.Write(optsJSON); err != nil {
		return "", err
	}

	if err := hashFile(h, modelPath); err != nil {
		return "", fmt.Errorf("hashing model %s: %w", modelPath, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached rule run if it exists
func (c *Cache) Get(key string) (Entry, bool) {
	if c.dir == "" {
		return Entry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Invalid cache entry, treat as miss
		return Entry{}, false
	}
	if _, ok := checks.Summary(entry.Results); !ok {
		return Entry{}, false
	}

	return entry, true
}

// Put stores a rule run in the cache
func (c *Cache) Put(key string, entry Entry) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Entries returns the keys currently stored, sorted.
func (c *Cache) Entries() ([]string, error) {
	if c.dir == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		keys = append(keys, entry.Name()[:len(entry.Name())-len(".json")])
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes all cached results
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Only remove directories that hold nothing but cache files
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if len(entries) > 0 {
		hasValidCache := false
		for _, entry := range entries {
			if entry.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if filepath.Ext(entry.Name()) == ".json" {
				hasValidCache = true
			} else {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
		if !hasValidCache {
			return fmt.Errorf("no valid cache files found in directory - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func normalizeOptions(opts checks.Options) checks.Options {
	if len(opts) == 0 {
		return checks.Options{}
	}
	return opts
}

func writeString(w io.Writer, s string) error {
	// Null byte delimiter keeps "ab"+"c" distinct from "a"+"bc"
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	_, err = io.Copy(h, f)
	return err
}

// Package cache keeps extracted palettes on disk so an image is only run
// through k-means once.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	cacheVersion     = 1
	defaultTTLDays   = 90
	cacheDirName     = "kinetic"
	paletteCacheName = "palettes"
	entryExt         = ".bin"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache expired")
	ErrCacheStale   = errors.New("cache stale")
	ErrCacheCorrupt = errors.New("cache corrupt")
)

// PaletteEntry is one cached palette. ModTime is the source file's
// modification time when it was read, zero for remote images.
type PaletteEntry struct {
	Version      uint8
	Source       string
	ModTime      int64
	Primary      string
	Secondary    string
	Accent       string
	Dim          string
	Gradient     []string
	GradientInfo string
	CreatedAt    int64
	ExpiresAt    int64
}

type DiskCache struct {
	basePath string
	mu       sync.RWMutex
	memCache map[string]*PaletteEntry
}

var (
	globalCache     *DiskCache
	globalCacheOnce sync.Once
)

// GetGlobalCache opens the user cache once. When the directory cannot be
// created the cache lives in memory only.
func GetGlobalCache() *DiskCache {
	globalCacheOnce.Do(func() {
		c, err := NewDiskCache()
		if err != nil {
			c = &DiskCache{memCache: make(map[string]*PaletteEntry)}
		}
		globalCache = c
	})
	return globalCache
}

// NewDiskCache opens the cache under $XDG_CACHE_HOME/kinetic/palettes.
func NewDiskCache() (*DiskCache, error) {
	dir, err := cacheDirectory()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, paletteCacheName))
}

// Open uses dir as the cache directory, creating it if needed.
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{
		basePath: dir,
		memCache: make(map[string]*PaletteEntry),
	}, nil
}

func cacheDirectory() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, cacheDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", cacheDirName), nil
}

// Dir is where entries are stored, empty for a memory-only cache.
func (c *DiskCache) Dir() string { return c.basePath }

func generateKey(source string) string {
	hash := sha256.Sum256([]byte(source))
	return hex.EncodeToString(hash[:12])
}

func (c *DiskCache) filePath(key string) string {
	return filepath.Join(c.basePath, key+entryExt)
}

// Get returns the entry for source. An entry recorded for a different
// modification time is dropped and reported as ErrCacheStale.
func (c *DiskCache) Get(source string, modTime int64) (*PaletteEntry, error) {
	if source == "" {
		return nil, ErrCacheMiss
	}
	key := generateKey(source)
	now := time.Now().Unix()

	c.mu.RLock()
	entry, ok := c.memCache[key]
	c.mu.RUnlock()

	if !ok {
		if c.basePath == "" {
			return nil, ErrCacheMiss
		}
		var err error
		entry, err = c.readFromDisk(c.filePath(key))
		if err != nil {
			return nil, err
		}
	}

	switch {
	case entry.ExpiresAt <= now:
		c.drop(key)
		return nil, ErrCacheExpired
	case entry.ModTime != modTime:
		c.drop(key)
		return nil, ErrCacheStale
	}

	c.mu.Lock()
	c.memCache[key] = entry
	c.mu.Unlock()
	return entry, nil
}

func (c *DiskCache) drop(key string) {
	c.mu.Lock()
	delete(c.memCache, key)
	c.mu.Unlock()
	if c.basePath != "" {
		_ = os.Remove(c.filePath(key))
	}
}

// Set stores entry under source, stamping its version and lifetime.
func (c *DiskCache) Set(source string, entry *PaletteEntry) error {
	if source == "" || entry == nil {
		return errors.New("invalid cache entry")
	}
	key := generateKey(source)

	now := time.Now().Unix()
	entry.Version = cacheVersion
	entry.Source = source
	entry.CreatedAt = now
	entry.ExpiresAt = now + int64(defaultTTLDays*24*60*60)

	c.mu.Lock()
	c.memCache[key] = entry
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}
	return c.writeToDisk(c.filePath(key), entry)
}

func (c *DiskCache) readFromDisk(path string) (*PaletteEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	defer f.Close()

	var entry PaletteEntry
	if err := gob.NewDecoder(f).Decode(&entry); err != nil {
		return nil, ErrCacheCorrupt
	}
	if entry.Version != cacheVersion {
		_ = os.Remove(path)
		return nil, ErrCacheCorrupt
	}
	return &entry, nil
}

func (c *DiskCache) writeToDisk(path string, entry *PaletteEntry) error {
	// temp file then rename, so readers never see half an entry
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(entry); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// entryFiles lists the entry files on disk. A missing directory is empty.
func (c *DiskCache) entryFiles() ([]os.DirEntry, error) {
	if c.basePath == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	files := entries[:0]
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), entryExt) {
			files = append(files, e)
		}
	}
	return files, nil
}

func (c *DiskCache) Clear() error {
	c.mu.Lock()
	c.memCache = make(map[string]*PaletteEntry)
	c.mu.Unlock()

	files, err := c.entryFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		_ = os.Remove(filepath.Join(c.basePath, f.Name()))
	}
	return nil
}

// Prune removes expired and unreadable entries and reports how many went.
func (c *DiskCache) Prune() (int, error) {
	files, err := c.entryFiles()
	if err != nil {
		return 0, err
	}

	pruned := 0
	now := time.Now().Unix()
	for _, f := range files {
		path := filepath.Join(c.basePath, f.Name())
		entry, err := c.readFromDisk(path)
		if err == nil && entry.ExpiresAt > now {
			continue
		}
		_ = os.Remove(path)
		c.mu.Lock()
		delete(c.memCache, strings.TrimSuffix(f.Name(), entryExt))
		c.mu.Unlock()
		pruned++
	}
	return pruned, nil
}

func (c *DiskCache) Stats() (count int, sizeBytes int64, err error) {
	files, err := c.entryFiles()
	if err != nil {
		return 0, 0, err
	}
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			continue
		}
		count++
		sizeBytes += info.Size()
	}
	return count, sizeBytes, nil
}

// ListAll reads every readable entry on disk.
func (c *DiskCache) ListAll() ([]*PaletteEntry, error) {
	files, err := c.entryFiles()
	if err != nil {
		return nil, err
	}
	var result []*PaletteEntry
	for _, f := range files {
		entry, err := c.readFromDisk(filepath.Join(c.basePath, f.Name()))
		if err != nil {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (c *DiskCache) Delete(source string) error {
	if source == "" {
		return errors.New("invalid source")
	}
	key := generateKey(source)

	c.mu.Lock()
	delete(c.memCache, key)
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}
	err := os.Remove(c.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package image_scanner

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

// CacheEntry records a digest together with the file state it was computed from.
type CacheEntry struct {
	Path      string
	Hash      string
	Algorithm string
	FileSize  int64
	ModTime   time.Time
	Timestamp time.Time
}

// FileCache stores one gob-encoded entry per image path.
type FileCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

// CacheManager avoids re-hashing images whose size and mtime did not change.
type CacheManager struct {
	fileCache *FileCache
	lookups   lookupCounter
}

// Entries older than this are dropped when the cache is opened.
const cacheMaxAge = 30 * 24 * time.Hour

// NewCacheManager creates a new cache manager instance
// If cacheDir is empty, it defaults to ".imgsync-cache" in the current working directory.
// The directory itself is created by the first Set.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".imgsync-cache")
	}

	cacheManager := &CacheManager{
		fileCache: &FileCache{cacheDir: cacheDir},
	}

	if err := cacheManager.CleanExpiredCache(cacheMaxAge); err != nil {
		return nil, err
	}

	return cacheManager, nil
}

// generateCacheKey creates a unique cache key for a file
func (fc *FileCache) generateCacheKey(filePath string) string {
	return fmt.Sprintf("%x.cache", xxh3.HashString(filePath))
}

// getCachePath returns the full path to a cache file
func (fc *FileCache) getCachePath(cacheKey string) string {
	return filepath.Join(fc.cacheDir, cacheKey)
}

func (fc *FileCache) readEntry(cachePath string) (*CacheEntry, error) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, err
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Get returns the stored entry of filePath, whether or not it is still current.
func (fc *FileCache) Get(filePath string) (*CacheEntry, bool) {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()

	entry, err := fc.readEntry(fc.getCachePath(fc.generateCacheKey(filePath)))
	if err != nil || entry.Path != filePath {
		return nil, false
	}
	return entry, true
}

// matches reports whether the entry was computed from this file state.
func (entry *CacheEntry) matches(size int64, modTime time.Time, algorithm string) bool {
	return entry.Algorithm == algorithm && entry.FileSize == size && entry.ModTime.Equal(modTime)
}

// Set stores the digest with the file metadata it was computed from.
func (fc *FileCache) Set(filePath string, size int64, modTime time.Time, algorithm string, hash string) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	entry := CacheEntry{
		Path:      filePath,
		Hash:      hash,
		Algorithm: algorithm,
		FileSize:  size,
		ModTime:   modTime,
		Timestamp: time.Now(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := os.MkdirAll(fc.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachePath := fc.getCachePath(fc.generateCacheKey(filePath))
	if err := os.WriteFile(cachePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Delete removes the entry of filePath, if any.
func (fc *FileCache) Delete(filePath string) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	cachePath := fc.getCachePath(fc.generateCacheKey(filePath))
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}

	return nil
}

// GetHashCache retrieves a cached digest and records the hit or miss. An
// entry left over from an older state of the file is deleted.
func (cm *CacheManager) GetHashCache(filePath string, size int64, modTime time.Time, algorithm string) (string, bool) {
	entry, found := cm.fileCache.Get(filePath)
	if found && !entry.matches(size, modTime, algorithm) {
		if err := cm.fileCache.Delete(filePath); err != nil {
			log.WithError(err).WithField("file", filePath).Warn("Failed to drop stale hash cache entry")
		}
		found = false
	}

	cm.lookups.record(found)
	if !found {
		return "", false
	}
	return entry.Hash, true
}

// SetHashCache stores a digest in cache
func (cm *CacheManager) SetHashCache(filePath string, size int64, modTime time.Time, algorithm string, hash string) error {
	return cm.fileCache.Set(filePath, size, modTime, algorithm, hash)
}

// listEntries returns the cache files; a directory that was never created holds none.
func (fc *FileCache) listEntries() ([]os.DirEntry, error) {
	files, err := os.ReadDir(fc.cacheDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	return files, nil
}

// GetCacheStats returns storage statistics merged with the lookup counters of this process.
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	files, err := cm.fileCache.listEntries()
	if err != nil {
		return nil, err
	}

	var totalSize int64
	var cacheFiles int
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		cacheFiles++
		totalSize += info.Size()
	}

	stats := cm.lookups.snapshot()
	stats["cache_enabled"] = true
	stats["cache_files"] = cacheFiles
	stats["total_size"] = totalSize
	stats["cache_dir"] = cm.fileCache.cacheDir

	return stats, nil
}

// ClearCache completely removes all cache entries
func (cm *CacheManager) ClearCache() error {
	cm.fileCache.mutex.Lock()
	defer cm.fileCache.mutex.Unlock()

	files, err := cm.fileCache.listEntries()
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		cachePath := filepath.Join(cm.fileCache.cacheDir, file.Name())
		if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete cache file: %w", err)
		}
	}

	cm.lookups.reset()
	return nil
}

// CleanExpiredCache removes cache entries older than specified duration
func (cm *CacheManager) CleanExpiredCache(maxAge time.Duration) error {
	cm.fileCache.mutex.Lock()
	defer cm.fileCache.mutex.Unlock()

	files, err := cm.fileCache.listEntries()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-maxAge)

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		cachePath := filepath.Join(cm.fileCache.cacheDir, file.Name())
		entry, err := cm.fileCache.readEntry(cachePath)
		if err != nil {
			// Unreadable entries are garbage.
			os.Remove(cachePath)
			continue
		}

		if entry.Timestamp.Before(cutoff) {
			os.Remove(cachePath)
		}
	}

	return nil
}

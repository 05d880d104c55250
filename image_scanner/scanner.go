package image_scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/imgsync/image_scanner/contracts"
	"github.com/meysamhadeli/imgsync/image_scanner/models"
	"github.com/meysamhadeli/imgsync/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ImageExtensions are matched case-insensitively against the file name.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// ImageScanner lists and hashes the images of a folder.
type ImageScanner struct {
	fs           afero.Fs
	algorithm    string
	cacheManager *CacheManager
}

// NewImageScanner initializes a new ImageScanner. When enableCache is false no
// cache directory is created and every image is hashed from its content.
func NewImageScanner(fs afero.Fs, algorithm string, enableCache bool, cacheDir string) (contracts.IImageScanner, error) {
	algorithm, err := NormalizeHashAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}

	scanner := &ImageScanner{
		fs:        fs,
		algorithm: algorithm,
	}

	if enableCache {
		cacheManager, err := NewCacheManager(cacheDir)
		if err != nil {
			// Fallback to no caching if cache initialization fails
			log.WithError(err).Warn("Failed to initialize hash cache, hashing without it")
		} else {
			scanner.cacheManager = cacheManager
		}
	}

	return scanner, nil
}

func (scanner *ImageScanner) Algorithm() string {
	return scanner.algorithm
}

// IsImageFile reports whether name carries one of the supported image extensions.
func IsImageFile(name string) bool {
	lowerName := strings.ToLower(name)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}
	return false
}

// ScanImages lists the images directly inside folder, sorted by name.
func (scanner *ImageScanner) ScanImages(folder string) ([]models.ImageFile, error) {
	ignorePatterns, err := utils.GetIgnorePatterns(scanner.fs, folder)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(scanner.fs, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder %s: %w", folder, err)
	}

	var images []models.ImageFile
	for _, entry := range entries {
		name := entry.Name()

		if entry.Mode()&os.ModeSymlink != 0 {
			target, err := scanner.fs.Stat(filepath.Join(folder, name))
			if err != nil {
				log.WithError(err).WithField("file", name).Warn("Skipping unreadable symlink")
				continue
			}
			entry = target
		}

		if !entry.Mode().IsRegular() || !IsImageFile(name) {
			continue
		}

		if utils.IsIgnored(name, ignorePatterns) {
			log.WithField("file", name).Debug("Skipping ignored image")
			continue
		}

		images = append(images, models.ImageFile{
			Name:    name,
			Path:    filepath.Join(folder, name),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Name < images[j].Name
	})

	return images, nil
}

// HashImage returns the content digest of image, served from the hash cache
// when the file's size and mtime are unchanged.
func (scanner *ImageScanner) HashImage(image models.ImageFile) (string, error) {
	if scanner.cacheManager != nil {
		if hash, found := scanner.cacheManager.GetHashCache(image.Path, image.Size, image.ModTime, scanner.algorithm); found {
			return hash, nil
		}
	}

	hash, err := HashFile(scanner.fs, image.Path, scanner.algorithm)
	if err != nil {
		return "", err
	}

	if scanner.cacheManager != nil {
		if err := scanner.cacheManager.SetHashCache(image.Path, image.Size, image.ModTime, scanner.algorithm, hash); err != nil {
			log.WithError(err).WithField("file", image.Name).Warn("Failed to cache image hash")
		}
	}

	return hash, nil
}

// ClearCache removes every cached digest.
func (scanner *ImageScanner) ClearCache() error {
	if scanner.cacheManager == nil {
		return nil
	}
	return scanner.cacheManager.ClearCache()
}

// GetCacheStats reports the hash cache state; cache_enabled is false when disabled.
func (scanner *ImageScanner) GetCacheStats() (map[string]interface{}, error) {
	if scanner.cacheManager == nil {
		return map[string]interface{}{"cache_enabled": false}, nil
	}
	return scanner.cacheManager.GetCacheStats()
}

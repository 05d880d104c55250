package state_management

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/meysamhadeli/imgsync/state_management/contracts"
	"github.com/meysamhadeli/imgsync/state_management/models"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// stateManager persists the manifest as a single JSON object.
type stateManager struct {
	fs   afero.Fs
	path string
}

// NewStateManager creates a manager for the manifest stored at path.
func NewStateManager(fs afero.Fs, path string) contracts.IStateManagement {
	return &stateManager{
		fs:   fs,
		path: path,
	}
}

func (sm *stateManager) Path() string {
	return sm.path
}

// Load returns the last manifest. A missing, blank or malformed file yields an
// empty manifest; only I/O failures other than "not found" are errors.
func (sm *stateManager) Load() (models.Manifest, error) {
	content, err := afero.ReadFile(sm.fs, sm.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", sm.path, err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return models.Manifest{}, nil
	}

	var manifest models.Manifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		log.WithError(err).WithField("path", sm.path).Warn("State file is not a valid manifest, starting from an empty one")
		return models.Manifest{}, nil
	}

	if manifest == nil {
		manifest = models.Manifest{}
	}
	return manifest, nil
}

// Save overwrites the manifest wholesale. The new content is written next to
// the target and renamed over it so a failed write never truncates the old one.
func (sm *stateManager) Save(manifest models.Manifest) error {
	if manifest == nil {
		manifest = models.Manifest{}
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if dir := filepath.Dir(sm.path); dir != "." {
		if err := sm.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmpPath := sm.path + ".tmp"
	if err := afero.WriteFile(sm.fs, tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := sm.fs.Rename(tmpPath, sm.path); err != nil {
		sm.fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Reset deletes the manifest so the next run treats every image as new.
func (sm *stateManager) Reset() error {
	if err := sm.fs.Remove(sm.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// Diff compares the manifest of the last run with the current one.
func Diff(last models.Manifest, current models.Manifest) models.ManifestDiff {
	var diff models.ManifestDiff

	for name, hash := range current {
		lastHash, exists := last[name]
		switch {
		case !exists:
			diff.New = append(diff.New, name)
		case lastHash != hash:
			diff.Changed = append(diff.Changed, name)
		default:
			diff.Unchanged = append(diff.Unchanged, name)
		}
	}

	for name := range last {
		if _, exists := current[name]; !exists {
			diff.Removed = append(diff.Removed, name)
		}
	}

	sort.Strings(diff.New)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Unchanged)
	sort.Strings(diff.Removed)

	return diff
}

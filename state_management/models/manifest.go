package models

// Manifest maps an image file name to the hex digest seen in the last completed run.
type Manifest map[string]string

// ManifestDiff classifies the names of two manifests. Every list is sorted.
type ManifestDiff struct {
	New       []string
	Changed   []string
	Unchanged []string
	Removed   []string
}

// NeedsSync reports whether name is absent from the manifest or recorded with another hash.
func (m Manifest) NeedsSync(name string, hash string) bool {
	lastHash, exists := m[name]
	return !exists || lastHash != hash
}

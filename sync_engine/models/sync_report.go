package models

import "time"

// SyncOptions tune a single run.
type SyncOptions struct {
	// DryRun detects changes without uploading or writing the manifest.
	DryRun bool
}

// SyncedImage is an image that was uploaded (or would be, in a dry run).
type SyncedImage struct {
	Name    string
	Title   string
	Hash    string
	AssetID string
}

// SyncReport summarizes one run.
type SyncReport struct {
	DryRun    bool
	Scanned   int
	Unchanged int
	Synced    []SyncedImage
	// Removed names were in the last manifest but are no longer in the folder.
	Removed  []string
	Duration time.Duration
}

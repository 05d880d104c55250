package models

import "time"

// ImageFile is an image found at the top level of the image folder.
type ImageFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

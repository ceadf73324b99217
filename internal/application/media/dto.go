package media

import (
	"io"
	"time"
)

// UploadInput is one file to store
type UploadInput struct {
	// Key is the target pathname. Empty means the default prefix plus
	// Filename; a key ending in "/" is a folder the filename is appended to.
	Key         string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult describes the stored file
type UploadResult struct {
	URL         string
	Pathname    string
	Size        int64
	ContentType string
}

// FileInfo is one listed file
type FileInfo struct {
	Name       string    `json:"name"`
	Pathname   string    `json:"pathname"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

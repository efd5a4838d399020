package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrFileNotFound is returned when the named blob does not exist in the store.
var ErrFileNotFound = errors.New("file not found in store")

// SaveResult carries the location metadata assigned by a single save
// operation. Filename and URL always originate together; callers must
// never construct one without the other.
type SaveResult struct {
	Filename string
	URL      string
}

// FileInfo is the derived metadata of a stored blob.
type FileInfo struct {
	Size     int64
	MimeType string
}

// FileStore is the narrow file-operations interface consumed by the
// track lifecycle service. Implementations assign the filename.
type FileStore interface {
	// SaveFile persists the blob and returns the assigned filename and
	// its public URL.
	SaveFile(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (*SaveResult, error)
	// GetFileInfo returns size and MIME type for a stored blob.
	GetFileInfo(ctx context.Context, filename string) (*FileInfo, error)
	// GetStreamingURL computes the streaming URL for an assigned filename.
	GetStreamingURL(filename string) string
	// DeleteFile removes the blob. Fails with ErrFileNotFound when absent.
	DeleteFile(ctx context.Context, filename string) error
	// Open returns a reader over the stored blob, for pass-through serving.
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
}

var nonAlphaNumeric = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

func generateUniqueSuffix() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// assignFilename builds the storage filename from the upload's original
// name: sanitized base, a random suffix to keep names unique per blob,
// and the original extension.
func assignFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))

	if strings.TrimSpace(base) == "" {
		base = "untitled_track"
	}

	// Replace runs of whitespace with a single underscore, then drop
	// anything outside [a-zA-Z0-9_-.].
	base = multipleSpaces.ReplaceAllString(strings.TrimSpace(base), "_")
	base = nonAlphaNumeric.ReplaceAllString(base, "")

	maxLength := 100
	if len(base) > maxLength {
		base = base[:maxLength]
	}
	if base == "" {
		base = "fallback_filename"
	}

	return base + "_" + generateUniqueSuffix() + ext
}

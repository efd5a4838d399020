package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore is a FileStore backed by a directory on local disk.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the store root if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", root, err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the store's root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// SaveFile writes the blob under an assigned filename.
func (s *LocalStore) SaveFile(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (*SaveResult, error) {
	filename := assignFilename(originalName)
	path := filepath.Join(s.root, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", filename, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close file %s: %w", filename, err)
	}

	return &SaveResult{
		Filename: filename,
		URL:      s.baseURL + "/files/" + filename,
	}, nil
}

// GetFileInfo stats the file; the MIME type is inferred from the extension.
func (s *LocalStore) GetFileInfo(ctx context.Context, filename string) (*FileInfo, error) {
	info, err := os.Stat(filepath.Join(s.root, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &FileInfo{
		Size:     info.Size(),
		MimeType: mimeType,
	}, nil
}

// GetStreamingURL computes the streaming URL for an assigned filename.
func (s *LocalStore) GetStreamingURL(filename string) string {
	return s.baseURL + "/stream/" + filename
}

// DeleteFile removes the file from disk.
func (s *LocalStore) DeleteFile(ctx context.Context, filename string) error {
	err := os.Remove(filepath.Join(s.root, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to remove file %s: %w", filename, err)
	}
	return nil
}

// Open returns a reader over the stored file.
func (s *LocalStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	return f, nil
}

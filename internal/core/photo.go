package core

// photo.go stores registration photos under a managed directory.
//
// A photo is written to a uuid-named temp file in the same directory and then
// renamed to <public_id>.<ext>, so readers never observe a half-written file
// and a retried upload for the same ID replaces the previous one.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// PhotoStore reads and writes player photos in a single directory.
type PhotoStore struct {
	dir string
}

// NewPhotoStore returns a store rooted at dir, creating the directory if needed.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Dir returns the managed directory.
func (s *PhotoStore) Dir() string {
	return s.dir
}

// PhotoExtension returns the lower-cased text after the last '.' of name.
// It fails with ErrInvalidFilename when there is no dot, nothing after it,
// or the extension contains anything but ASCII letters and digits.
func PhotoExtension(name string) (string, error) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "", errors.Wrapf(ErrInvalidFilename, "%q has no extension", name)
	}
	ext := strings.ToLower(name[i+1:])
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", errors.Wrapf(ErrInvalidFilename, "%q has an unsupported extension", name)
		}
	}
	return ext, nil
}

// Ingest writes upload to <publicID>.<ext> and returns that file name.
// An existing file with the same name is replaced.
func (s *PhotoStore) Ingest(upload *Upload, publicID string) (string, error) {
	if upload == nil || upload.Content == nil || upload.Filename == "" {
		return "", ErrMissingFile
	}

	ext, err := PhotoExtension(upload.Filename)
	if err != nil {
		return "", err
	}
	filename := publicID + "." + ext

	tmpPath := filepath.Join(s.dir, "."+uuid.NewString()+".part")
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp photo: %w", err)
	}

	if _, err := io.Copy(tmp, upload.Content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close photo: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename photo: %w", err)
	}

	return filename, nil
}

// Remove deletes a stored photo. A missing file is not an error.
func (s *PhotoStore) Remove(filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

// Open opens a stored photo for reading.
func (s *PhotoStore) Open(filename string) (*os.File, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// path resolves filename inside the managed directory, refusing anything
// that is not a plain visible file name.
func (s *PhotoStore) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", errors.Wrapf(ErrInvalidFilename, "%q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

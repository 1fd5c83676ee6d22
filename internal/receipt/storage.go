package receipt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for file names that would escape the storage directory
var ErrInvalidPath = errors.New("invalid file path")

// Storage defines the interface for file storage operations
type Storage interface {
	// Save saves a file and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by path
	Get(path string) ([]byte, error)

	// Delete removes a file
	Delete(path string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// fullPath maps a flat file name into the storage directory
func (l *LocalStorage) fullPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return filepath.Join(l.basePath, name), nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := l.fullPath(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(path string) error {
	fullPath, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// ImageResolver stores an upload and returns its stored reference and public URL
type ImageResolver interface {
	Resolve(filename string, data []byte, baseURL string) (ref string, url string, err error)
}

// LocalImageResolver saves uploads to Storage and serves them under /uploads/
type LocalImageResolver struct {
	storage   Storage
	publicURL string
}

// NewLocalImageResolver creates a resolver. A non-empty publicURL overrides the
// per-request base URL.
func NewLocalImageResolver(storage Storage, publicURL string) *LocalImageResolver {
	return &LocalImageResolver{storage: storage, publicURL: strings.TrimRight(publicURL, "/")}
}

// Resolve saves the data and builds <base>/uploads/<ref>
func (r *LocalImageResolver) Resolve(filename string, data []byte, baseURL string) (string, string, error) {
	ref, err := r.storage.Save(filename, data)
	if err != nil {
		return "", "", err
	}

	base := r.publicURL
	if base == "" {
		base = strings.TrimRight(baseURL, "/")
	}
	return ref, base + "/uploads/" + ref, nil
}

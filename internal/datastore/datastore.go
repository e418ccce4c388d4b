// Package datastore locates and identifies the data files an
// experiment consumes and produces. A data key is an opaque reference
// of the form "relpath@digest" where the digest is the sha1 of the
// file contents, so a key pins both location and content.
package datastore

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DataStore is the contract the launch core consumes. Implementations
// resolve filesystem paths to content keys and scan for new outputs.
type DataStore interface {
	// Root returns the store's root directory.
	Root() string
	// ContainsPath reports whether path lies within the store's root.
	ContainsPath(path string) bool
	// GenerateKeys resolves a path (file or directory) to one or more
	// content keys, ordered by relative path.
	GenerateKeys(path string) ([]string, error)
	// FindNewData returns keys for files modified at or after since.
	FindNewData(since time.Time) ([]string, error)
	// Delete removes the files behind the given keys. Missing files
	// are skipped.
	Delete(keys []string) error
}

// KeyPath extracts the relative path component of a data key.
func KeyPath(key string) string {
	if i := strings.LastIndex(key, "@"); i >= 0 {
		return key[:i]
	}
	return key
}

// FileSystemDataStore resolves data keys against a directory tree.
type FileSystemDataStore struct {
	root string
}

// NewFileSystem creates a data store rooted at dir. The directory is
// created if it does not exist.
func NewFileSystem(dir string) (*FileSystemDataStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("data store root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data store root: %w", err)
	}
	return &FileSystemDataStore{root: abs}, nil
}

func (s *FileSystemDataStore) Root() string { return s.root }

func (s *FileSystemDataStore) ContainsPath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

func (s *FileSystemDataStore) GenerateKeys(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("generate keys: %w", err)
	}
	if !info.IsDir() {
		key, err := s.keyFor(abs)
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	}
	var keys []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		key, kerr := s.keyFor(p)
		if kerr != nil {
			return kerr
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileSystemDataStore) FindNewData(since time.Time) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		if info.ModTime().Before(since) {
			return nil
		}
		key, kerr := s.keyFor(p)
		if kerr != nil {
			return kerr
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan for new data: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileSystemDataStore) Delete(keys []string) error {
	for _, key := range keys {
		path := filepath.Join(s.root, filepath.FromSlash(KeyPath(key)))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// keyFor builds "relpath@sha1" for an absolute file path.
func (s *FileSystemDataStore) keyFor(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	digest, err := fileDigest(abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel) + "@" + digest, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

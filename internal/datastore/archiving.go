package datastore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ArchivingFileSystemDataStore behaves like FileSystemDataStore but
// additionally copies every newly found output file into an archive
// directory, so outputs survive later modification of the working
// data directory. Deletion removes both the working file and its
// archived copy.
type ArchivingFileSystemDataStore struct {
	*FileSystemDataStore
	archive string
}

// NewArchiving creates an archiving data store with the given working
// root and archive directory.
func NewArchiving(dir, archive string) (*ArchivingFileSystemDataStore, error) {
	base, err := NewFileSystem(dir)
	if err != nil {
		return nil, err
	}
	absArchive, err := filepath.Abs(archive)
	if err != nil {
		return nil, fmt.Errorf("archive root: %w", err)
	}
	if err := os.MkdirAll(absArchive, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &ArchivingFileSystemDataStore{FileSystemDataStore: base, archive: absArchive}, nil
}

// ArchiveRoot returns the archive directory.
func (s *ArchivingFileSystemDataStore) ArchiveRoot() string { return s.archive }

func (s *ArchivingFileSystemDataStore) FindNewData(since time.Time) ([]string, error) {
	keys, err := s.FileSystemDataStore.FindNewData(since)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := s.archiveKey(key); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (s *ArchivingFileSystemDataStore) Delete(keys []string) error {
	if err := s.FileSystemDataStore.Delete(keys); err != nil {
		return err
	}
	for _, key := range keys {
		path := filepath.Join(s.archive, filepath.FromSlash(KeyPath(key)))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete archived %s: %w", key, err)
		}
	}
	return nil
}

func (s *ArchivingFileSystemDataStore) archiveKey(key string) error {
	rel := filepath.FromSlash(KeyPath(key))
	src := filepath.Join(s.Root(), rel)
	dst := filepath.Join(s.archive, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}

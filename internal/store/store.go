// Package store persists experiment records per project and
// synchronizes record stores with each other.
//
// Two backends ship: SQLite for local stores addressed by filesystem
// path, and PostgreSQL for network stores addressed by postgres://
// URL. Both speak the same schema through database/sql.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recap/internal/record"
)

// RecordStore is a keyed collection of records scoped by project.
type RecordStore interface {
	// Location identifies the store (path or URL).
	Location() string
	// Save inserts a finished record. A duplicate label within the
	// project is an error.
	Save(ctx context.Context, project string, rec *record.Record) error
	// Get returns the record with the given label, or a
	// NotFoundError.
	Get(ctx context.Context, project, label string) (*record.Record, error)
	// MostRecent returns the record with the latest timestamp, or an
	// EmptyStoreError.
	MostRecent(ctx context.Context, project string) (*record.Record, error)
	// List returns records in timestamp order, newest first. With
	// tags, only records carrying at least one of them are returned.
	List(ctx context.Context, project string, tags []string) ([]*record.Record, error)
	// Labels returns all labels in the project, sorted.
	Labels(ctx context.Context, project string) ([]string, error)
	// Delete removes a record, returning NotFoundError if absent.
	Delete(ctx context.Context, project, label string) error
	// DeleteByTag removes every record carrying tag and returns how
	// many were deleted.
	DeleteByTag(ctx context.Context, project, tag string) (int, error)
	// AddTag and RemoveTag mutate the tag set idempotently.
	AddTag(ctx context.Context, project, label, tag string) error
	RemoveTag(ctx context.Context, project, label, tag string) error
	// AddComment appends to (or, with replace, overwrites) the
	// record's outcome text.
	AddComment(ctx context.Context, project, label, comment string, replace bool) error
	// ContentHash returns the hash of the record's write-once
	// content, as stored. Synchronization compares these.
	ContentHash(ctx context.Context, project, label string) (string, error)
	// Export serializes every record in the project to a snapshot.
	Export(ctx context.Context, project string) ([]byte, error)
	// Import loads a snapshot, replacing records with matching labels.
	Import(ctx context.Context, project string, blob []byte) error
	// Projects lists the project names present in the store.
	Projects(ctx context.Context) ([]string, error)
	Close() error
}

// NotFoundError reports a label lookup miss.
type NotFoundError struct {
	Project string
	Label   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record named %q in project %q", e.Label, e.Project)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// EmptyStoreError reports that a project holds no records.
type EmptyStoreError struct {
	Project string
}

func (e *EmptyStoreError) Error() string {
	return fmt.Sprintf("project %q has no records", e.Project)
}

// IsEmptyStore reports whether err is an EmptyStoreError.
func IsEmptyStore(err error) bool {
	var ee *EmptyStoreError
	return errors.As(err, &ee)
}

// Open dispatches on the store location: postgres:// and
// postgresql:// URLs get the PostgreSQL backend, anything else is
// treated as a SQLite database path.
func Open(location string) (RecordStore, error) {
	if strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://") {
		return OpenPostgres(location)
	}
	return OpenSQLite(location)
}

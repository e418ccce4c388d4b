package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recap/internal/record"
)

func (s *SQLStore) Get(ctx context.Context, project, label string) (*record.Record, error) {
	var content string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT content FROM records WHERE project = ? AND label = ?
	`), project, label).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Project: project, Label: label}
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return unmarshalRecord(content)
}

func (s *SQLStore) MostRecent(ctx context.Context, project string) (*record.Record, error) {
	var content string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT content FROM records WHERE project = ?
		ORDER BY timestamp DESC LIMIT 1
	`), project).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &EmptyStoreError{Project: project}
	}
	if err != nil {
		return nil, fmt.Errorf("most recent record: %w", err)
	}
	return unmarshalRecord(content)
}

func (s *SQLStore) List(ctx context.Context, project string, tags []string) ([]*record.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT content FROM records WHERE project = ?
		ORDER BY timestamp DESC
	`), project)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*record.Record
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		rec, err := unmarshalRecord(content)
		if err != nil {
			return nil, err
		}
		if len(tags) > 0 && !carriesAny(rec, tags) {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func carriesAny(rec *record.Record, tags []string) bool {
	for _, t := range tags {
		if rec.HasTag(t) {
			return true
		}
	}
	return false
}

func (s *SQLStore) Labels(ctx context.Context, project string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT label FROM records WHERE project = ? ORDER BY label
	`), project)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("list labels: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func (s *SQLStore) Projects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT project FROM records ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ContentHash returns the stored content hash for a label without
// unmarshaling the record. Used by synchronization.
func (s *SQLStore) ContentHash(ctx context.Context, project, label string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT content_hash FROM records WHERE project = ? AND label = ?
	`), project, label).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &NotFoundError{Project: project, Label: label}
	}
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hash, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/recap/internal/record"
)

func (s *SQLStore) Save(ctx context.Context, project string, rec *record.Record) error {
	content, hash, tsKey, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var count int
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM records WHERE project = ? AND label = ?
	`), project, rec.Label).Scan(&count)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("a record named %q already exists in project %q", rec.Label, project)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO records (project, label, timestamp, content_hash, content)
		VALUES (?, ?, ?, ?, ?)
	`), project, rec.Label, tsKey, hash, content)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return tx.Commit()
}

// put inserts or replaces a record. Used by Import and mutation
// rewrites, never by Save: launches must not overwrite history.
func (s *SQLStore) put(ctx context.Context, project string, rec *record.Record) error {
	content, hash, tsKey, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO records (project, label, timestamp, content_hash, content)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (project, label) DO UPDATE SET
			timestamp = excluded.timestamp,
			content_hash = excluded.content_hash,
			content = excluded.content
	`), project, rec.Label, tsKey, hash, content)
	if err != nil {
		return fmt.Errorf("put record %q: %w", rec.Label, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, project, label string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM records WHERE project = ? AND label = ?
	`), project, label)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return &NotFoundError{Project: project, Label: label}
	}
	return nil
}

func (s *SQLStore) DeleteByTag(ctx context.Context, project, tag string) (int, error) {
	recs, err := s.List(ctx, project, []string{tag})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, rec := range recs {
		if err := s.Delete(ctx, project, rec.Label); err != nil {
			if IsNotFound(err) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// mutate loads a record, applies fn, and rewrites the row when fn
// reports a change. Only the mutable fields (tags, outcome) ever go
// through here, so the content hash is unaffected.
func (s *SQLStore) mutate(ctx context.Context, project, label string, fn func(*record.Record) bool) error {
	rec, err := s.Get(ctx, project, label)
	if err != nil {
		return err
	}
	if !fn(rec) {
		return nil
	}
	return s.put(ctx, project, rec)
}

func (s *SQLStore) AddTag(ctx context.Context, project, label, tag string) error {
	return s.mutate(ctx, project, label, func(rec *record.Record) bool {
		return rec.AddTag(tag)
	})
}

func (s *SQLStore) RemoveTag(ctx context.Context, project, label, tag string) error {
	return s.mutate(ctx, project, label, func(rec *record.Record) bool {
		return rec.RemoveTag(tag)
	})
}

func (s *SQLStore) AddComment(ctx context.Context, project, label, comment string, replace bool) error {
	return s.mutate(ctx, project, label, func(rec *record.Record) bool {
		rec.AddComment(comment, replace)
		return true
	})
}

// Export serializes every record in the project as an indented JSON
// array, newest first.
func (s *SQLStore) Export(ctx context.Context, project string) ([]byte, error) {
	recs, err := s.List(ctx, project, nil)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*record.Record{}
	}
	return json.MarshalIndent(recs, "", "  ")
}

// Import loads an exported snapshot, replacing any records whose
// labels already exist.
func (s *SQLStore) Import(ctx context.Context, project string, blob []byte) error {
	var recs []*record.Record
	if err := json.Unmarshal(blob, &recs); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	for _, rec := range recs {
		if err := s.put(ctx, project, rec); err != nil {
			return err
		}
	}
	return nil
}

package project

import (
	"context"
	"fmt"

	"github.com/roach88/recap/internal/record"
)

// GetRecord returns the record behind label; "last" resolves to the
// most recent record.
func (p *Project) GetRecord(ctx context.Context, label string) (*record.Record, error) {
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	if label == "last" {
		return st.MostRecent(ctx, p.Name)
	}
	return st.Get(ctx, p.Name, label)
}

// MostRecent returns the newest record in the project.
func (p *Project) MostRecent(ctx context.Context) (*record.Record, error) {
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.MostRecent(ctx, p.Name)
}

// DeleteRecord removes a record and, with deleteData, the output
// data files it references.
func (p *Project) DeleteRecord(ctx context.Context, label string, deleteData bool) error {
	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(ctx, p.Name, label)
	if err != nil {
		return err
	}
	if deleteData && len(rec.OutputData) > 0 {
		ds, err := p.DataStore()
		if err != nil {
			return err
		}
		if err := ds.Delete(rec.OutputData); err != nil {
			return fmt.Errorf("delete data for %q: %w", label, err)
		}
	}
	return st.Delete(ctx, p.Name, label)
}

// DeleteByTag removes every record carrying tag and returns the count
// deleted.
func (p *Project) DeleteByTag(ctx context.Context, tag string, deleteData bool) (int, error) {
	st, err := p.OpenStore()
	if err != nil {
		return 0, err
	}
	defer st.Close()

	recs, err := st.List(ctx, p.Name, []string{tag})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, rec := range recs {
		if deleteData && len(rec.OutputData) > 0 {
			ds, err := p.DataStore()
			if err != nil {
				return deleted, err
			}
			if err := ds.Delete(rec.OutputData); err != nil {
				return deleted, fmt.Errorf("delete data for %q: %w", rec.Label, err)
			}
		}
		if err := st.Delete(ctx, p.Name, rec.Label); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// AddTag tags a record.
func (p *Project) AddTag(ctx context.Context, label, tag string) error {
	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.AddTag(ctx, p.Name, label, tag)
}

// RemoveTag removes a tag from a record.
func (p *Project) RemoveTag(ctx context.Context, label, tag string) error {
	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.RemoveTag(ctx, p.Name, label, tag)
}

// AddComment describes the outcome of a record.
func (p *Project) AddComment(ctx context.Context, label, comment string, replace bool) error {
	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return st.AddComment(ctx, p.Name, label, comment, replace)
}

// Compare returns the structural diff between two records.
func (p *Project) Compare(ctx context.Context, labelA, labelB string) (*record.RecordDiff, error) {
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	recA, err := st.Get(ctx, p.Name, labelA)
	if err != nil {
		return nil, err
	}
	recB, err := st.Get(ctx, p.Name, labelB)
	if err != nil {
		return nil, err
	}
	return record.Diff(recA, recB), nil
}

// FormatRecords lists the project's records, optionally restricted to
// the given tags.
func (p *Project) FormatRecords(ctx context.Context, tags []string, mode string) (string, error) {
	st, err := p.OpenStore()
	if err != nil {
		return "", err
	}
	defer st.Close()

	recs, err := st.List(ctx, p.Name, tags)
	if err != nil {
		return "", err
	}
	return record.FormatList(recs, mode), nil
}

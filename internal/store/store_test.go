package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/recap/internal/params"
	"github.com/roach88/recap/internal/record"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(label string, ts time.Time) *record.Record {
	p := params.NewSet()
	p.Set("seed", int64(42))
	return &record.Record{
		Label:           label,
		Reason:          "test",
		Parameters:      p,
		InputData:       []string{"in.csv@abc"},
		OutputData:      []string{"out.dat@def"},
		ScriptArguments: "<parameters>",
		Executable:      record.Executable{Name: "python3", Path: "/usr/bin/python3"},
		MainFile:        "main.py",
		Version:         "1a2b3c4d",
		Repository:      record.Repository{URL: "/tmp/proj", Kind: "git"},
		LaunchMode:      record.LaunchMode{Kind: record.LaunchSerial},
		Timestamp:       ts,
		Duration:        2 * time.Second,
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("r1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	if err := s.Save(ctx, "proj", rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "proj", "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Label != "r1" || got.Version != "1a2b3c4d" || got.MainFile != "main.py" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	seed, _ := got.Parameters.Get("seed")
	if seed != int64(42) {
		t.Errorf("parameters lost in round trip: got %v", seed)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("timestamp mismatch: got %v want %v", got.Timestamp, rec.Timestamp)
	}
}

func TestSaveDuplicateLabelFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, "proj", testRecord("r1", ts)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "proj", testRecord("r1", ts)); err == nil {
		t.Fatal("want error saving duplicate label, got nil")
	}

	// The same label in another project is fine.
	if err := s.Save(ctx, "other", testRecord("r1", ts)); err != nil {
		t.Fatalf("save in other project: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "proj", "absent")
	if !IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestMostRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.MostRecent(ctx, "proj")
	if !IsEmptyStore(err) {
		t.Fatalf("want EmptyStoreError, got %v", err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, label := range []string{"r1", "r3", "r2"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		if err := s.Save(ctx, "proj", testRecord(label, base.Add(offsets[i]))); err != nil {
			t.Fatalf("save %s: %v", label, err)
		}
	}

	got, err := s.MostRecent(ctx, "proj")
	if err != nil {
		t.Fatalf("most recent: %v", err)
	}
	if got.Label != "r3" {
		t.Errorf("most recent = %q, want r3", got.Label)
	}
}

func TestListNewestFirstAndTagFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, label := range []string{"r1", "r2", "r3"} {
		if err := s.Save(ctx, "proj", testRecord(label, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", label, err)
		}
	}
	if err := s.AddTag(ctx, "proj", "r1", "keep"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if err := s.AddTag(ctx, "proj", "r3", "keep"); err != nil {
		t.Fatalf("tag: %v", err)
	}

	all, err := s.List(ctx, "proj", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Label != "r3" || all[2].Label != "r1" {
		t.Errorf("want newest first [r3 r2 r1], got %v", labelsOf(all))
	}

	tagged, err := s.List(ctx, "proj", []string{"keep"})
	if err != nil {
		t.Fatalf("list tagged: %v", err)
	}
	if len(tagged) != 2 || tagged[0].Label != "r3" || tagged[1].Label != "r1" {
		t.Errorf("want [r3 r1], got %v", labelsOf(tagged))
	}
}

func labelsOf(recs []*record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Label
	}
	return out
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, "proj", testRecord("r1", ts)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, "proj", "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "proj", "r1"); !IsNotFound(err) {
		t.Fatalf("second delete: want NotFoundError, got %v", err)
	}
}

func TestDeleteByTag(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 4; i++ {
		label := fmt.Sprintf("r%d", i)
		if err := s.Save(ctx, "proj", testRecord(label, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save %s: %v", label, err)
		}
	}
	for _, label := range []string{"r2", "r4"} {
		if err := s.AddTag(ctx, "proj", label, "scratch"); err != nil {
			t.Fatalf("tag %s: %v", label, err)
		}
	}

	n, err := s.DeleteByTag(ctx, "proj", "scratch")
	if err != nil {
		t.Fatalf("delete by tag: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d records, want 2", n)
	}
	labels, err := s.Labels(ctx, "proj")
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if len(labels) != 2 || labels[0] != "r1" || labels[1] != "r3" {
		t.Errorf("remaining labels = %v, want [r1 r3]", labels)
	}
}

func TestTagMutationKeepsContentHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, "proj", testRecord("r1", ts)); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, err := s.ContentHash(ctx, "proj", "r1")
	if err != nil {
		t.Fatalf("content hash: %v", err)
	}

	if err := s.AddTag(ctx, "proj", "r1", "published"); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	if err := s.AddComment(ctx, "proj", "r1", "looks good", false); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	after, err := s.ContentHash(ctx, "proj", "r1")
	if err != nil {
		t.Fatalf("content hash: %v", err)
	}
	if before != after {
		t.Errorf("content hash changed by tag/comment mutation: %s -> %s", before, after)
	}

	got, err := s.Get(ctx, "proj", "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.HasTag("published") || got.Outcome != "looks good" {
		t.Errorf("mutations not persisted: tags=%v outcome=%q", got.Tags, got.Outcome)
	}
}

func TestAddTagIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, "proj", testRecord("r1", ts)); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.AddTag(ctx, "proj", "r1", "keep"); err != nil {
			t.Fatalf("add tag: %v", err)
		}
	}
	got, err := s.Get(ctx, "proj", "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Tags) != 1 {
		t.Errorf("tags = %v, want exactly one", got.Tags)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := openTestStore(t)
	dst := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, label := range []string{"r1", "r2"} {
		if err := src.Save(ctx, "proj", testRecord(label, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save %s: %v", label, err)
		}
	}

	blob, err := src.Export(ctx, "proj")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := dst.Import(ctx, "proj", blob); err != nil {
		t.Fatalf("import: %v", err)
	}

	labels, err := dst.Labels(ctx, "proj")
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("imported %d records, want 2", len(labels))
	}

	// Import again: replaces, never duplicates.
	if err := dst.Import(ctx, "proj", blob); err != nil {
		t.Fatalf("second import: %v", err)
	}
	labels, _ = dst.Labels(ctx, "proj")
	if len(labels) != 2 {
		t.Errorf("after re-import got %d records, want 2", len(labels))
	}
}

func TestProjects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, proj := range []string{"beta", "alpha"} {
		if err := s.Save(ctx, proj, testRecord("r1", ts)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	projects, err := s.Projects(ctx)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(projects) != 2 || projects[0] != "alpha" || projects[1] != "beta" {
		t.Errorf("projects = %v, want [alpha beta]", projects)
	}
}

func TestOpenDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if s.Location() != path {
		t.Errorf("location = %q, want %q", s.Location(), path)
	}
}

package store

import (
	"context"
	"fmt"
	"sort"
)

// Sync merges records bidirectionally between projectA in store a and
// projectB in store b. Labels present on one side only are copied to
// the other; a label present on both sides with different content is
// a collision: it is left untouched in both stores and reported.
//
// Sync is idempotent: running it again copies nothing further and
// reports the same collisions until a human resolves them.
func Sync(ctx context.Context, a, b RecordStore, projectA, projectB string) ([]string, error) {
	labelsA, err := a.Labels(ctx, projectA)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	labelsB, err := b.Labels(ctx, projectB)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	inA := make(map[string]bool, len(labelsA))
	for _, l := range labelsA {
		inA[l] = true
	}
	inB := make(map[string]bool, len(labelsB))
	for _, l := range labelsB {
		inB[l] = true
	}

	var collisions []string
	for _, label := range labelsA {
		if !inB[label] {
			if err := copyRecord(ctx, a, projectA, b, projectB, label); err != nil {
				return nil, err
			}
			continue
		}
		same, err := sameContent(ctx, a, projectA, b, projectB, label)
		if err != nil {
			return nil, err
		}
		if !same {
			collisions = append(collisions, label)
		}
	}
	for _, label := range labelsB {
		if !inA[label] {
			if err := copyRecord(ctx, b, projectB, a, projectA, label); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(collisions)
	return collisions, nil
}

// SyncAll synchronizes every project present in either store.
// Collision labels are qualified with their project name.
func SyncAll(ctx context.Context, a, b RecordStore) ([]string, error) {
	projectsA, err := a.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync all: %w", err)
	}
	projectsB, err := b.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync all: %w", err)
	}
	seen := make(map[string]bool)
	var projects []string
	for _, p := range append(append([]string{}, projectsA...), projectsB...) {
		if !seen[p] {
			seen[p] = true
			projects = append(projects, p)
		}
	}
	sort.Strings(projects)

	var collisions []string
	for _, project := range projects {
		cs, err := Sync(ctx, a, b, project, project)
		if err != nil {
			return nil, err
		}
		for _, label := range cs {
			collisions = append(collisions, project+"/"+label)
		}
	}
	return collisions, nil
}

func copyRecord(ctx context.Context, from RecordStore, fromProject string, to RecordStore, toProject, label string) error {
	rec, err := from.Get(ctx, fromProject, label)
	if err != nil {
		return fmt.Errorf("sync copy %q: %w", label, err)
	}
	if err := to.Save(ctx, toProject, rec); err != nil {
		return fmt.Errorf("sync copy %q: %w", label, err)
	}
	return nil
}

// sameContent compares the write-once content of the two records
// behind a shared label. Tags and outcome stay mutable after storage,
// so they do not participate.
func sameContent(ctx context.Context, a RecordStore, projectA string, b RecordStore, projectB, label string) (bool, error) {
	hashA, err := a.ContentHash(ctx, projectA, label)
	if err != nil {
		return false, fmt.Errorf("sync compare %q: %w", label, err)
	}
	hashB, err := b.ContentHash(ctx, projectB, label)
	if err != nil {
		return false, fmt.Errorf("sync compare %q: %w", label, err)
	}
	return hashA == hashB, nil
}

// Package vcs abstracts the version-control working copy the launch
// guard inspects. Only a git adapter ships; the interfaces admit
// other backends.
package vcs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// VersionLatest asks the guard to use the current head of the working
// copy without checking anything out.
const VersionLatest = "latest"

// WorkingCopy is a checked-out copy of the experiment code.
type WorkingCopy interface {
	// Path returns the working copy root.
	Path() string
	// CurrentVersion returns the revision identifier currently
	// checked out.
	CurrentVersion() (string, error)
	// HasUncommittedModifications reports whether the working copy
	// differs from its base revision.
	HasUncommittedModifications() (bool, error)
	// Checkout switches the working copy to the given revision.
	Checkout(version string) error
	// Diff returns the textual difference between the working copy
	// and its base revision.
	Diff() (string, error)
	// Repository describes where the code came from.
	Repository() Repository
}

// Repository is a reference to a code repository.
type Repository struct {
	URL  string
	Kind string
}

// UncommittedModificationsError aborts a launch whose on-changed
// policy is "error" while the working copy carries local changes.
type UncommittedModificationsError struct {
	Path string
}

func (e *UncommittedModificationsError) Error() string {
	return fmt.Sprintf("working copy at %s has uncommitted modifications: commit them or set the on-changed policy to store-diff", e.Path)
}

// IsUncommittedModifications reports whether err is an
// UncommittedModificationsError.
func IsUncommittedModifications(err error) bool {
	var ue *UncommittedModificationsError
	return errors.As(err, &ue)
}

// ErrNoWorkingCopy is returned when no supported version-control
// working copy is found at or above a directory.
var ErrNoWorkingCopy = errors.New("no version control working copy found")

// Detect walks up from dir looking for a supported working copy.
func Detect(dir string) (WorkingCopy, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		if info, err := os.Stat(filepath.Join(abs, ".git")); err == nil && info.IsDir() {
			return NewGitWorkingCopy(abs)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return nil, fmt.Errorf("%w at or above %s", ErrNoWorkingCopy, dir)
		}
		abs = parent
	}
}

package vcs

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// GitWorkingCopy drives a git checkout through the git binary.
type GitWorkingCopy struct {
	path string
}

// NewGitWorkingCopy wraps the git working copy rooted at path.
func NewGitWorkingCopy(path string) (*GitWorkingCopy, error) {
	wc := &GitWorkingCopy{path: path}
	if _, err := wc.git("rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%s is not a git working copy: %w", path, err)
	}
	return wc, nil
}

func (w *GitWorkingCopy) Path() string { return w.path }

func (w *GitWorkingCopy) CurrentVersion() (string, error) {
	out, err := w.git("rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("current version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (w *GitWorkingCopy) HasUncommittedModifications() (bool, error) {
	out, err := w.git("status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, fmt.Errorf("working copy status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (w *GitWorkingCopy) Checkout(version string) error {
	if version == VersionLatest || version == "" {
		return nil
	}
	if _, err := w.git("checkout", version); err != nil {
		return fmt.Errorf("checkout %s: %w", version, err)
	}
	return nil
}

func (w *GitWorkingCopy) Diff() (string, error) {
	out, err := w.git("diff", "HEAD")
	if err != nil {
		return "", fmt.Errorf("working copy diff: %w", err)
	}
	return out, nil
}

func (w *GitWorkingCopy) Repository() Repository {
	url, err := w.git("config", "--get", "remote.origin.url")
	if err != nil || strings.TrimSpace(url) == "" {
		// A purely local repository: the working copy path is the URL.
		return Repository{URL: w.path, Kind: "git"}
	}
	return Repository{URL: strings.TrimSpace(url), Kind: "git"}
}

func (w *GitWorkingCopy) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = w.path
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

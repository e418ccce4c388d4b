// Package record defines the immutable description of one experiment
// execution and the structural diff between two such descriptions.
package record

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/recap/internal/params"
)

// Executable identifies the program that ran the experiment.
type Executable struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	Options string `json:"options,omitempty"`
}

// Repository identifies where the experiment code lives.
type Repository struct {
	URL  string `json:"url"`
	Kind string `json:"kind"` // "git", "mercurial", ...
}

// Launch mode kinds.
const (
	LaunchSerial      = "serial"
	LaunchDistributed = "distributed"
)

// LaunchMode describes how the executable was invoked: a single serial
// process, or N distributed worker processes.
type LaunchMode struct {
	Kind      string `json:"kind"`
	Processes int    `json:"processes,omitempty"`
}

func (m LaunchMode) String() string {
	if m.Kind == LaunchDistributed {
		return fmt.Sprintf("distributed (n=%d)", m.Processes)
	}
	return LaunchSerial
}

// ParametersPlaceholder is substituted into the script-argument string
// in place of the parameter-file token. The launcher replaces it with
// the path of the parameter file written for the run.
const ParametersPlaceholder = "<parameters>"

// Record describes one experiment execution. Once a record has been
// stored, only Tags and Outcome may change; every other field is
// write-once at creation.
type Record struct {
	Label           string               `json:"label"`
	Reason          string               `json:"reason,omitempty"`
	Outcome         string               `json:"outcome,omitempty"`
	Parameters      *params.ParameterSet `json:"parameters"`
	InputData       []string             `json:"input_data"`
	OutputData      []string             `json:"output_data"`
	ScriptArguments string               `json:"script_arguments"`
	Executable      Executable           `json:"executable"`
	MainFile        string               `json:"main_file,omitempty"`
	Version         string               `json:"version"`
	Repository      Repository           `json:"repository"`
	LaunchMode      LaunchMode           `json:"launch_mode"`
	Diff            string               `json:"diff,omitempty"` // working-copy diff captured under the store-diff policy
	Tags            []string             `json:"tags,omitempty"`
	Timestamp       time.Time            `json:"timestamp"`
	Duration        time.Duration        `json:"duration"`
	ExitCode        int                  `json:"exit_code"`
}

// TimestampFormat is the layout used in derived labels.
const TimestampFormat = "20060102-150405"

// DeriveLabel builds a label from the parameter-file name and the
// launch timestamp. With no parameter file the label is the timestamp
// plus a short time-sortable UUIDv7 suffix so that rapid launches do
// not collide.
func DeriveLabel(paramFile string, ts time.Time) string {
	stamp := ts.Format(TimestampFormat)
	if paramFile != "" {
		base := filepath.Base(paramFile)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return base + "_" + stamp
	}
	id := uuid.Must(uuid.NewV7()).String()
	return stamp + "_" + id[:8]
}

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag adds a tag, keeping the tag list sorted. Adding a tag the
// record already carries is a no-op; the return value reports whether
// the record changed.
func (r *Record) AddTag(tag string) bool {
	if r.HasTag(tag) {
		return false
	}
	r.Tags = append(r.Tags, tag)
	sort.Strings(r.Tags)
	return true
}

// RemoveTag removes a tag. Removing an absent tag is a no-op.
func (r *Record) RemoveTag(tag string) bool {
	for i, t := range r.Tags {
		if t == tag {
			r.Tags = append(r.Tags[:i], r.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// AddComment appends text to the outcome, or replaces it when replace
// is set. Appended comments start on a new line.
func (r *Record) AddComment(text string, replace bool) {
	if replace || r.Outcome == "" {
		r.Outcome = text
		return
	}
	r.Outcome = r.Outcome + "\n" + text
}

// Succeeded reports whether the underlying script exited cleanly.
func (r *Record) Succeeded() bool {
	return r.ExitCode == 0
}

// CommandLine reconstructs the command that was run, with the
// parameter placeholder substituted by paramFile (or left in place if
// paramFile is empty).
func (r *Record) CommandLine(paramFile string) string {
	args := r.ScriptArguments
	if paramFile != "" {
		args = strings.ReplaceAll(args, ParametersPlaceholder, paramFile)
	}
	parts := []string{r.Executable.Path}
	if r.Executable.Options != "" {
		parts = append(parts, r.Executable.Options)
	}
	if r.MainFile != "" {
		parts = append(parts, r.MainFile)
	}
	if args != "" {
		parts = append(parts, args)
	}
	return strings.Join(parts, " ")
}

package project

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/recap/internal/launch"
	"github.com/roach88/recap/internal/record"
	"github.com/roach88/recap/internal/store"
)

// storeSaver scopes a record store to the project for the launcher.
type storeSaver struct {
	st      store.RecordStore
	project string
}

func (s storeSaver) Save(ctx context.Context, rec *record.Record) error {
	return s.st.Save(ctx, s.project, rec)
}

// Launch fills in project defaults and runs the launch lifecycle,
// returning the stored record.
func (p *Project) Launch(ctx context.Context, req launch.Request) (*record.Record, error) {
	p.applyDefaults(&req)

	wc, err := p.WorkingCopy()
	if err != nil {
		return nil, err
	}
	outputs, err := p.DataStore()
	if err != nil {
		return nil, err
	}
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	orch := launch.New(launch.Options{
		WorkingCopy: wc,
		Outputs:     outputs,
		Store:       storeSaver{st: st, project: p.Name},
		ParamsDir:   filepath.Join(p.root, ConfigDirName, "parameters"),
		OnChanged:   p.OnChanged,
		Logger:      slog.Default(),
	})
	return orch.Launch(ctx, req)
}

// applyDefaults resolves unset request fields from the project
// configuration. The data-label setting threads the run label through
// to the script, either on the command line or as a parameter.
func (p *Project) applyDefaults(req *launch.Request) {
	if req.ExecutablePath == "" && req.MainFile == "" {
		req.ExecutablePath = p.Defaults.Executable
		req.ExecutableOpts = p.Defaults.ExecutableOptions
	}
	if req.MainFile == "" {
		req.MainFile = p.Defaults.MainFile
	}
	if req.Mode.Kind == "" {
		req.Mode = p.Defaults.LaunchMode
	}
	if req.Mode.Kind == "" {
		req.Mode = record.LaunchMode{Kind: record.LaunchSerial}
	}

	switch p.DataLabel {
	case "cmdline":
		if req.Label != "" {
			req.ScriptArgs = strings.TrimSpace(req.ScriptArgs + " " + req.Label)
		}
	case "parameters":
		if req.Label != "" && req.Parameters != nil {
			req.Parameters.Set("label", req.Label)
		}
	}
}

// RepeatResult reports the outcome of re-running a prior record.
type RepeatResult struct {
	Original *record.Record
	New      *record.Record
	Diff     *record.RecordDiff
	Message  string
}

// Repeat re-runs the record behind label under its captured
// conditions and compares the two records. The comparison message is
// appended to the new record's outcome.
func (p *Project) Repeat(ctx context.Context, label string) (*RepeatResult, error) {
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	original, err := func() (*record.Record, error) {
		defer st.Close()
		if label == "last" {
			return st.MostRecent(ctx, p.Name)
		}
		return st.Get(ctx, p.Name, label)
	}()
	if err != nil {
		return nil, err
	}

	req := launch.Request{
		Parameters:     original.Parameters.Copy(),
		InputData:      append([]string{}, original.InputData...),
		ScriptArgs:     original.ScriptArguments,
		ExecutablePath: original.Executable.Path,
		ExecutableOpts: original.Executable.Options,
		MainFile:       original.MainFile,
		Version:        original.Version,
		Mode:           original.LaunchMode,
		Label:          original.Label + "_repeat",
		Reason:         fmt.Sprintf("Repeat experiment %s", original.Label),
	}
	repeated, err := p.Launch(ctx, req)
	if err != nil {
		return nil, err
	}

	diff := record.Diff(original, repeated)
	var msg string
	if diff.Empty() {
		msg = "The new record exactly matches the original."
	} else {
		msg = strings.Join([]string{
			"The new record does not match the original. It differs as follows.",
			diff.Format(record.FormatShort),
			fmt.Sprintf("run 'recap diff --long %s %s' to see the differences in detail.", original.Label, repeated.Label),
		}, "\n")
	}
	if err := p.AddComment(ctx, repeated.Label, msg, false); err != nil {
		return nil, err
	}
	repeated.AddComment(msg, false)

	return &RepeatResult{Original: original, New: repeated, Diff: diff, Message: msg}, nil
}

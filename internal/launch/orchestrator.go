// Package launch drives a single experiment run through its
// lifecycle: version guard, checkout, execution, capture, and
// persistence into the record store.
package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recap/internal/datastore"
	"github.com/roach88/recap/internal/params"
	"github.com/roach88/recap/internal/record"
	"github.com/roach88/recap/internal/vcs"
)

// On-changed policies: what to do when the working copy carries
// uncommitted modifications at launch time.
const (
	OnChangedError     = "error"
	OnChangedStoreDiff = "store-diff"
)

// RecordSaver persists a finished record. Save must be atomic: a
// record is either fully visible in the store or not at all.
type RecordSaver interface {
	Save(ctx context.Context, rec *record.Record) error
}

// Request carries everything needed to launch one run.
type Request struct {
	Parameters      *params.ParameterSet
	ParameterFile   string // original parameter-file path, used for label derivation
	InputData       []string
	ScriptArgs      string // with the <parameters> placeholder where the parameter file goes
	ExecutablePath  string // explicit executable; empty means infer from MainFile
	ExecutableOpts  string
	MainFile        string
	Version         string // explicit revision, or "latest"
	Mode            record.LaunchMode
	Label           string // empty means derive from parameter file + timestamp
	Reason          string
}

// Orchestrator runs the launch state machine. One orchestrator
// instance serves one launch.
type Orchestrator struct {
	wc        vcs.WorkingCopy
	outputs   datastore.DataStore
	store     RecordSaver
	paramsDir string
	onChanged string
	log       *slog.Logger

	state State
}

// Options configures an Orchestrator.
type Options struct {
	WorkingCopy vcs.WorkingCopy
	Outputs     datastore.DataStore
	Store       RecordSaver
	// ParamsDir is where merged parameter files are written before
	// being handed to the script.
	ParamsDir string
	// OnChanged is the uncommitted-modifications policy.
	OnChanged string
	Logger    *slog.Logger
}

// New creates an Orchestrator in the Requested state.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onChanged := opts.OnChanged
	if onChanged == "" {
		onChanged = OnChangedError
	}
	return &Orchestrator{
		wc:        opts.WorkingCopy,
		outputs:   opts.Outputs,
		store:     opts.Store,
		paramsDir: opts.ParamsDir,
		onChanged: onChanged,
		log:       logger,
		state:     StateRequested,
	}
}

// State returns the current launch state.
func (o *Orchestrator) State() State { return o.state }

// abort moves to the terminal Aborted state and returns err.
func (o *Orchestrator) abort(err error) (*record.Record, error) {
	o.state = StateAborted
	return nil, err
}

// Launch runs the full lifecycle for req and returns the stored
// record. Guard and assembly failures abort before any record exists;
// a script that runs and fails still produces a record, with the
// failure noted in its outcome.
func (o *Orchestrator) Launch(ctx context.Context, req Request) (*record.Record, error) {
	if err := o.transition(StateVersionGuard); err != nil {
		return nil, err
	}
	diffText, err := o.versionGuard()
	if err != nil {
		return o.abort(err)
	}

	if err := o.transition(StateCheckout); err != nil {
		return nil, err
	}
	version, err := o.checkout(req.Version)
	if err != nil {
		return o.abort(err)
	}

	executable, err := ResolveExecutable(req.ExecutablePath, req.MainFile)
	if err != nil {
		return o.abort(err)
	}
	executable.Options = req.ExecutableOpts

	runner, err := NewRunner(req.Mode)
	if err != nil {
		return o.abort(err)
	}

	start := time.Now()
	label := req.Label
	if label == "" {
		label = record.DeriveLabel(req.ParameterFile, start)
	}

	scriptArgs, _, err := o.materializeParameters(req, label)
	if err != nil {
		return o.abort(err)
	}

	argv := composeCommand(executable, req.MainFile, scriptArgs)

	if err := o.transition(StateExecuting); err != nil {
		return nil, err
	}
	o.log.Info("executing", "label", label, "command", strings.Join(argv, " "), "mode", runner.Mode().String())
	result, err := runner.Run(ctx, o.wc.Path(), argv)
	if err != nil {
		return o.abort(fmt.Errorf("execution failed to start: %w", err))
	}
	duration := time.Since(start)

	if err := o.transition(StateCapturing); err != nil {
		return nil, err
	}
	rec, err := o.capture(req, label, version, executable, runner.Mode(), diffText, start, duration, result)
	if err != nil {
		return o.abort(err)
	}

	if err := o.store.Save(ctx, rec); err != nil {
		return o.abort(fmt.Errorf("store record %s: %w", rec.Label, err))
	}
	if err := o.transition(StateStored); err != nil {
		return nil, err
	}
	o.log.Info("record stored", "label", rec.Label, "duration", duration, "exit_code", result.ExitCode)
	return rec, nil
}

// versionGuard enforces the on-changed policy. Under store-diff the
// working-copy diff is captured for the record instead of aborting.
func (o *Orchestrator) versionGuard() (string, error) {
	dirty, err := o.wc.HasUncommittedModifications()
	if err != nil {
		return "", fmt.Errorf("version guard: %w", err)
	}
	if !dirty {
		return "", nil
	}
	if o.onChanged == OnChangedStoreDiff {
		diff, err := o.wc.Diff()
		if err != nil {
			return "", fmt.Errorf("version guard: %w", err)
		}
		o.log.Debug("uncommitted modifications present, storing diff", "bytes", len(diff))
		return diff, nil
	}
	return "", &vcs.UncommittedModificationsError{Path: o.wc.Path()}
}

// checkout resolves the requested version. "latest" means the current
// head with no checkout; an explicit revision is checked out only if
// it differs from the working-copy state.
func (o *Orchestrator) checkout(requested string) (string, error) {
	current, err := o.wc.CurrentVersion()
	if err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	if requested == "" || requested == vcs.VersionLatest || requested == current {
		return current, nil
	}
	if err := o.wc.Checkout(requested); err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	return o.wc.CurrentVersion()
}

// materializeParameters writes the merged parameter set to a file and
// substitutes its path for the placeholder in the script arguments.
func (o *Orchestrator) materializeParameters(req Request, label string) (scriptArgs, paramFile string, err error) {
	scriptArgs = req.ScriptArgs
	if req.Parameters == nil || req.Parameters.Len() == 0 {
		return scriptArgs, "", nil
	}
	if o.paramsDir == "" {
		// No scratch area configured: run against the original file.
		return strings.ReplaceAll(scriptArgs, record.ParametersPlaceholder, req.ParameterFile), req.ParameterFile, nil
	}
	if err := os.MkdirAll(o.paramsDir, 0o755); err != nil {
		return "", "", fmt.Errorf("parameter scratch dir: %w", err)
	}
	paramFile = filepath.Join(o.paramsDir, label+".yaml")
	data, err := yaml.Marshal(req.Parameters.AsMap())
	if err != nil {
		return "", "", fmt.Errorf("write parameters: %w", err)
	}
	if err := os.WriteFile(paramFile, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write parameters: %w", err)
	}
	return strings.ReplaceAll(scriptArgs, record.ParametersPlaceholder, paramFile), paramFile, nil
}

// capture assembles the finished record from everything the launch
// observed. A failing script is still captured; only genuinely
// missing information prevents assembly.
func (o *Orchestrator) capture(req Request, label, version string, executable record.Executable,
	mode record.LaunchMode, diffText string, start time.Time, duration time.Duration, result RunResult) (*record.Record, error) {

	if version == "" {
		return nil, &MissingInformationError{Field: "code version"}
	}
	outputs, err := o.outputs.FindNewData(start)
	if err != nil {
		return nil, fmt.Errorf("capture outputs: %w", err)
	}

	parameters := req.Parameters
	if parameters == nil {
		parameters = params.NewSet()
	}

	rec := &record.Record{
		Label:           label,
		Reason:          req.Reason,
		Parameters:      parameters,
		InputData:       req.InputData,
		OutputData:      outputs,
		ScriptArguments: req.ScriptArgs,
		Executable:      executable,
		MainFile:        req.MainFile,
		Version:         version,
		Repository:      record.Repository(o.wc.Repository()),
		LaunchMode:      mode,
		Diff:            diffText,
		Timestamp:       start,
		Duration:        duration,
		ExitCode:        result.ExitCode,
	}
	if result.ExitCode != 0 {
		rec.AddComment(fmt.Sprintf("Script failed with exit status %d.\n%s", result.ExitCode, strings.TrimSpace(result.Output)), false)
	}
	return rec, nil
}

// composeCommand assembles the argv for the run.
func composeCommand(executable record.Executable, mainFile, scriptArgs string) []string {
	argv := []string{executable.Path}
	if executable.Options != "" {
		argv = append(argv, strings.Fields(executable.Options)...)
	}
	if mainFile != "" {
		argv = append(argv, mainFile)
	}
	if scriptArgs != "" {
		argv = append(argv, strings.Fields(scriptArgs)...)
	}
	return argv
}

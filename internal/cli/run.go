package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/classify"
	"github.com/roach88/recap/internal/launch"
	"github.com/roach88/recap/internal/record"
	"github.com/roach88/recap/internal/vcs"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Version      string
	Label        string
	Reason       string
	Executable   string
	MainFile     string
	NumProcesses int
	Tag          string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [flags] [arg ...] [param=value ...]",
		Short: "Run a simulation or analysis and record its provenance",
		Long: `Run a simulation or analysis. The arguments are passed on to the
script. They should normally contain the name of a parameter file, and
may also contain input files, flags, and param=value overrides for
individual parameters from the file (no spaces around the equals sign).

Example:
  recap run --reason "vary learning rate" defaults.yaml lr=0.01 data/train.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "use this revision of the code (checked out if not current); defaults to the working-copy head")
	cmd.Flags().StringVarP(&opts.Label, "label", "l", "", "label for the run; derived from the parameter file and timestamp if omitted")
	cmd.Flags().StringVarP(&opts.Reason, "reason", "r", "", "why this run is being launched")
	cmd.Flags().StringVarP(&opts.Executable, "executable", "e", "", "executable for this run, overriding the project default")
	cmd.Flags().StringVarP(&opts.MainFile, "main", "m", "", "script supplied to the executable, overriding the project default")
	cmd.Flags().IntVarP(&opts.NumProcesses, "num-processes", "n", 0, "run distributed on N processes; 0 means serial")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "tag added to the new record")

	return cmd
}

func runRun(opts *RunOptions, args []string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	inputStore, err := p.InputDataStore()
	if err != nil {
		return WrapExitError(ExitCommandError, "input data store", err)
	}

	classified, err := classify.Classify(args, inputStore)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	mode := record.LaunchMode{}
	if opts.NumProcesses > 0 {
		mode = record.LaunchMode{Kind: record.LaunchDistributed, Processes: opts.NumProcesses}
	}
	execPath, execOpts := launch.ParseExecutableString(opts.Executable)

	req := launch.Request{
		Parameters:     classified.Parameters,
		ParameterFile:  classified.ParameterFile,
		InputData:      classified.InputData,
		ScriptArgs:     classified.ScriptArgs,
		ExecutablePath: execPath,
		ExecutableOpts: execOpts,
		MainFile:       opts.MainFile,
		Version:        opts.Version,
		Mode:           mode,
		Label:          opts.Label,
		Reason:         strings.Trim(opts.Reason, `'"`),
	}

	rec, err := p.Launch(cmd.Context(), req)
	if err != nil {
		if vcs.IsUncommittedModifications(err) || launch.IsMissingInformation(err) {
			return WrapExitError(ExitFailure, "launch aborted", err)
		}
		return WrapExitError(ExitFailure, "launch failed", err)
	}

	if opts.Tag != "" {
		if err := p.AddTag(cmd.Context(), rec.Label, opts.Tag); err != nil {
			return WrapExitError(ExitCommandError, "failed to tag record", err)
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(rec)
	}
	if !rec.Succeeded() {
		if err := out.Success(fmt.Sprintf("Record %s stored (script failed with exit status %d)", rec.Label, rec.ExitCode)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "script failed")
	}
	return out.Success(fmt.Sprintf("Record %s stored", rec.Label))
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/launch"
	"github.com/roach88/recap/internal/project"
	"github.com/roach88/recap/internal/record"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	DataPath   string
	InputPath  string
	AddLabel   string
	Executable string
	MainFile   string
	OnChanged  string
	StorePath  string
	Archive    string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init NAME",
		Short: "Create a new project in the current directory",
		Long: `Create a new project called NAME in the current directory.

Example:
  recap init --datapath ./Data --main simulate.py my-experiment`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DataPath, "datapath", "d", "Data", "directory searched for output datafiles produced by runs")
	cmd.Flags().StringVarP(&opts.InputPath, "input", "i", "/", "directory input datafile paths are resolved against")
	cmd.Flags().StringVarP(&opts.AddLabel, "addlabel", "l", "", "append the record label to the command line ('cmdline') or the parameter set ('parameters')")
	cmd.Flags().StringVarP(&opts.Executable, "executable", "e", "", "default executable, optionally followed by options")
	cmd.Flags().StringVarP(&opts.MainFile, "main", "m", "", "default script supplied to the executable, e.g. simulate.py")
	cmd.Flags().StringVarP(&opts.OnChanged, "on-changed", "c", launch.OnChangedError, "action when the working copy has uncommitted changes (error|store-diff)")
	cmd.Flags().StringVarP(&opts.StorePath, "store", "s", "", "path or URL of the record store")
	cmd.Flags().StringVarP(&opts.Archive, "archive", "A", "", "directory in which to archive output datafiles")

	return cmd
}

func runInit(opts *InitOptions, name string, cmd *cobra.Command) error {
	if err := validateOnChanged(opts.OnChanged); err != nil {
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}
	if err := validateAddLabel(opts.AddLabel); err != nil {
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	dir, err := os.Getwd()
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot determine working directory", err)
	}

	execPath, execOpts := launch.ParseExecutableString(opts.Executable)
	p := &project.Project{
		Name:        name,
		OnChanged:   opts.OnChanged,
		DataLabel:   opts.AddLabel,
		DataPath:    opts.DataPath,
		ArchivePath: opts.Archive,
		InputPath:   opts.InputPath,
		StorePath:   opts.StorePath,
		Defaults: project.Defaults{
			Executable:        execPath,
			ExecutableOptions: execOpts,
			MainFile:          opts.MainFile,
			LaunchMode:        record.LaunchMode{Kind: record.LaunchSerial},
		},
	}
	if _, err := project.Create(dir, p); err != nil {
		return WrapExitError(ExitCommandError, "failed to create project", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project %q created in %s\n", name, dir)
	return nil
}

func validateOnChanged(policy string) error {
	switch policy {
	case launch.OnChangedError, launch.OnChangedStoreDiff:
		return nil
	}
	return fmt.Errorf("on-changed must be %q or %q, got %q", launch.OnChangedError, launch.OnChangedStoreDiff, policy)
}

func validateAddLabel(v string) error {
	switch v {
	case "", "cmdline", "parameters":
		return nil
	}
	return fmt.Errorf("addlabel must be 'cmdline' or 'parameters', got %q", v)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/launch"
)

// ConfigureOptions holds flags for the configure command.
type ConfigureOptions struct {
	*RootOptions
	DataPath   string
	InputPath  string
	AddLabel   string
	Executable string
	MainFile   string
	OnChanged  string
	Archive    string
}

// NewConfigureCommand creates the configure command.
func NewConfigureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "configure",
		Short:         "Modify the settings for the current project",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DataPath, "datapath", "d", "", "directory searched for output datafiles produced by runs")
	cmd.Flags().StringVarP(&opts.InputPath, "input", "i", "", "directory input datafile paths are resolved against")
	cmd.Flags().StringVarP(&opts.AddLabel, "addlabel", "l", "", "append the record label to the command line ('cmdline') or the parameter set ('parameters')")
	cmd.Flags().StringVarP(&opts.Executable, "executable", "e", "", "default executable, optionally followed by options")
	cmd.Flags().StringVarP(&opts.MainFile, "main", "m", "", "default script supplied to the executable")
	cmd.Flags().StringVarP(&opts.OnChanged, "on-changed", "c", "", "action when the working copy has uncommitted changes (error|store-diff)")
	cmd.Flags().StringVarP(&opts.Archive, "archive", "A", "", "directory in which to archive output datafiles ('false' disables archiving)")

	return cmd
}

func runConfigure(opts *ConfigureOptions, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	if opts.OnChanged != "" {
		if err := validateOnChanged(opts.OnChanged); err != nil {
			return WrapExitError(ExitCommandError, "invalid flag", err)
		}
		p.OnChanged = opts.OnChanged
	}
	if opts.AddLabel != "" {
		if err := validateAddLabel(opts.AddLabel); err != nil {
			return WrapExitError(ExitCommandError, "invalid flag", err)
		}
		p.DataLabel = opts.AddLabel
	}
	if opts.DataPath != "" {
		p.DataPath = opts.DataPath
	}
	if opts.InputPath != "" {
		p.InputPath = opts.InputPath
	}
	if opts.Archive != "" {
		if opts.Archive == "false" {
			p.ArchivePath = ""
		} else {
			p.ArchivePath = opts.Archive
		}
	}
	if opts.MainFile != "" {
		p.Defaults.MainFile = opts.MainFile
	}
	if opts.Executable != "" {
		p.Defaults.Executable, p.Defaults.ExecutableOptions = launch.ParseExecutableString(opts.Executable)
	}

	if err := p.Save(); err != nil {
		return WrapExitError(ExitCommandError, "failed to save project", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Project settings updated.")
	return nil
}

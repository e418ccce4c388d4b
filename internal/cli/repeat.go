package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/store"
)

// NewRepeatCommand creates the repeat command.
func NewRepeatCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repeat LABEL",
		Short: "Re-run a previous experiment under its recorded conditions",
		Long: `Re-run the experiment behind LABEL with the same code version, parameters
and input data, then compare the new record against the original. Use
"last" to repeat the most recent record.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepeat(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runRepeat(opts *RootOptions, label string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	result, err := p.Repeat(cmd.Context(), label)
	if err != nil {
		if store.IsNotFound(err) || store.IsEmptyStore(err) {
			return WrapExitError(ExitCommandError, "no such record", err)
		}
		return WrapExitError(ExitFailure, "repeat failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "New record: %s\n", result.New.Label)
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}

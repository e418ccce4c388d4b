package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/record"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Long bool
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff LABEL1 LABEL2",
		Short: "Show how two records differ",
		Long: `Compare two records field by field: executable, code version, parameters,
input data and launch mode. With --long, every differing value is shown
in full.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Long, "long", "l", false, "show the full value of every differing field")

	return cmd
}

func runDiff(opts *DiffOptions, args []string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	diff, err := p.Compare(cmd.Context(), args[0], args[1])
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compare records", err)
	}

	mode := record.FormatShort
	if opts.Long {
		mode = record.FormatLong
	}
	fmt.Fprintln(cmd.OutOrStdout(), diff.Format(mode))
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/record"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Long  bool
	Table bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [TAGS ...]",
		Short: "List records belonging to the current project",
		Long: `List records belonging to the current project. If tags are given,
only records carrying at least one of them are listed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Long, "long", "l", false, "print full information for each record")
	cmd.Flags().BoolVarP(&opts.Table, "table", "T", false, "print information in aligned columns")

	return cmd
}

func runList(opts *ListOptions, tags []string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	mode := record.ModeShort
	switch {
	case opts.Long:
		mode = record.ModeLong
	case opts.Table:
		mode = record.ModeTable
	}

	listing, err := p.FormatRecords(cmd.Context(), tags, mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list records", err)
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(listing)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/store"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	ByTag      bool
	DeleteData bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete [flags] LIST",
		Short: "Delete records, or records with a particular tag",
		Long: `LIST is a space-separated list of record labels, or of tags with the
--tag flag set. The special label "last" deletes the most recent
record. Deleting a label that does not exist is a warning, not an
error, so bulk deletions proceed past individual misses.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.ByTag, "tag", "t", false, "interpret LIST as tags; records with any of these tags are deleted")
	cmd.Flags().BoolVarP(&opts.DeleteData, "data", "d", false, "also delete output data associated with the record(s)")

	return cmd
}

func runDelete(opts *DeleteOptions, args []string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if opts.ByTag {
		for _, tag := range args {
			n, err := p.DeleteByTag(ctx, tag, opts.DeleteData)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to delete by tag", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records deleted.\n", n)
		}
		return nil
	}

	for _, label := range args {
		if label == "last" {
			rec, err := p.MostRecent(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "no records in project", err)
			}
			label = rec.Label
		}
		if err := p.DeleteRecord(ctx, label, opts.DeleteData); err != nil {
			if store.IsNotFound(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not delete record %q because it does not exist\n", label)
				continue
			}
			return WrapExitError(ExitCommandError, "failed to delete record", err)
		}
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// TagOptions holds flags for the tag command.
type TagOptions struct {
	*RootOptions
	Remove bool
}

// NewTagCommand creates the tag command.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TagOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tag TAG [LABELS...]",
		Short: "Tag records for later retrieval",
		Long: `Attach a tag to one or more records. Without labels the tag is applied
to the most recent record. With --remove the tag is removed instead.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Remove, "remove", "r", false, "remove the tag from the records instead of adding it")

	return cmd
}

func runTag(opts *TagOptions, args []string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	tag := args[0]
	labels := args[1:]
	if len(labels) == 0 {
		rec, err := p.MostRecent(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "no records in project", err)
		}
		labels = []string{rec.Label}
	}

	verb := "Tagged"
	for _, label := range labels {
		rec, err := p.GetRecord(ctx, label)
		if err != nil {
			return WrapExitError(ExitCommandError, "no such record", err)
		}
		if opts.Remove {
			err = p.RemoveTag(ctx, rec.Label, tag)
			verb = "Untagged"
		} else {
			err = p.AddTag(ctx, rec.Label, tag)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to update tags", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s record %s\n", verb, rec.Label)
	}
	return nil
}

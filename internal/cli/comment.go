package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CommentOptions holds flags for the comment command.
type CommentOptions struct {
	*RootOptions
	Replace  bool
	FromFile bool
}

// NewCommentCommand creates the comment command.
func NewCommentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "comment [LABEL] COMMENT",
		Short: "Add a comment describing the outcome of a record",
		Long: `Describe the outcome of a run. With one argument the comment is added
to the most recent record. With --file, COMMENT names a file holding
the comment text.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComment(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Replace, "replace", "r", false, "overwrite any existing comment instead of appending")
	cmd.Flags().BoolVarP(&opts.FromFile, "file", "f", false, "interpret COMMENT as the path to a file containing the comment")

	return cmd
}

func runComment(opts *CommentOptions, args []string, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var label, comment string
	if len(args) == 2 {
		rec, err := p.GetRecord(ctx, args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "no such record", err)
		}
		label, comment = rec.Label, args[1]
	} else {
		comment = args[0]
		rec, err := p.MostRecent(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "no records in project", err)
		}
		label = rec.Label
	}

	if opts.FromFile {
		data, err := os.ReadFile(comment)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read comment file", err)
		}
		comment = string(data)
	}

	if err := p.AddComment(ctx, label, comment, opts.Replace); err != nil {
		return WrapExitError(ExitCommandError, "failed to add comment", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Comment added to record %s\n", label)
	return nil
}

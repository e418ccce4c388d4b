package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/store"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync PATH1 [PATH2]",
		Short: "Synchronize two record stores",
		Long: `Copy records in both directions until the two stores hold the same set.
With one argument, the store at PATH1 is synchronized with the current
project's store. With two arguments, every project present in either
store is synchronized. Paths may be SQLite files or postgres:// URLs.

Records that share a label but differ in content are left untouched and
reported; the command exits with status 1 when any such collision is
found.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runSync(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	other, err := store.Open(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer other.Close()

	var collisions []string
	if len(args) == 2 {
		second, err := store.Open(args[1])
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open store", err)
		}
		defer second.Close()
		collisions, err = store.SyncAll(ctx, other, second)
		if err != nil {
			return WrapExitError(ExitFailure, "sync failed", err)
		}
	} else {
		p, err := loadProject()
		if err != nil {
			return err
		}
		mine, err := p.OpenStore()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open project store", err)
		}
		defer mine.Close()
		collisions, err = store.Sync(ctx, mine, other, p.Name, p.Name)
		if err != nil {
			return WrapExitError(ExitFailure, "sync failed", err)
		}
	}

	if len(collisions) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Synchronization incomplete: there are records with the same label in both stores but different content.")
		for _, label := range collisions {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", label)
		}
		return NewExitError(ExitFailure, "sync collisions")
	}
	return nil
}

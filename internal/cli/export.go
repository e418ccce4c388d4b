package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/recap/internal/project"
)

const exportFileName = "records_export.json"

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the project's records as JSON",
		Long: `Write every record in the project, together with the project
configuration, to JSON files under the project's configuration
directory. The snapshot can be re-imported by the upgrade command or by
other tools.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, cmd)
		},
	}
	return cmd
}

func runExport(opts *RootOptions, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	dir := filepath.Join(p.Root(), project.ConfigDirName)
	if err := exportProject(cmd.Context(), p, dir); err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Records exported to %s\n", filepath.Join(dir, exportFileName))
	return nil
}

func exportProject(ctx context.Context, p *project.Project, dir string) error {
	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	blob, err := st.Export(ctx, p.Name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, exportFileName), blob, 0o644); err != nil {
		return err
	}

	cfg, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "project_export.json"), cfg, 0o644)
}

// NewUpgradeCommand creates the upgrade command.
func NewUpgradeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Rebuild the record store from an exported snapshot",
		Long: `Back up the project's configuration directory, then re-import the
records from the snapshot written by a previous export. Run export
before upgrading.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(rootOpts, cmd)
		},
	}
	return cmd
}

func runUpgrade(opts *RootOptions, cmd *cobra.Command) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	dir := filepath.Join(p.Root(), project.ConfigDirName)

	blob, err := os.ReadFile(filepath.Join(dir, exportFileName))
	if err != nil {
		return WrapExitError(ExitCommandError, "no export snapshot found; run 'recap export' first", err)
	}

	backup := fmt.Sprintf("%s.backup_%s", dir, time.Now().Format("20060102150405"))
	if err := copyTree(dir, backup); err != nil {
		return WrapExitError(ExitCommandError, "failed to back up project directory", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project directory backed up to %s\n", backup)

	st, err := p.OpenStore()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open project store", err)
	}
	defer st.Close()

	if err := st.Import(cmd.Context(), p.Name, blob); err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Record store upgraded.")
	return nil
}

// copyTree copies a directory recursively, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}

package cli

import (
	"os"

	"github.com/roach88/recap/internal/project"
)

// loadProject loads the project from the current directory, mapping
// failure to a command error exit code.
func loadProject() (*project.Project, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot determine working directory", err)
	}
	p, err := project.Load(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load project", err)
	}
	return p, nil
}

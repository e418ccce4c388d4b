package launch

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/roach88/recap/internal/record"
)

// interpreters maps script extensions to the interpreter that runs
// them. Resolution by main-file extension falls back to treating the
// script itself as the executable when the extension is unknown and
// the file is executable.
var interpreters = map[string]string{
	".py": "python3",
	".sh": "sh",
	".r":  "Rscript",
	".jl": "julia",
	".m":  "octave",
}

// ParseExecutableString splits "path options..." at the first space.
func ParseExecutableString(s string) (path, options string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// ResolveExecutable builds an executable descriptor from an explicit
// path, falling back to inference from the main file's extension.
func ResolveExecutable(path, mainFile string) (record.Executable, error) {
	if path != "" {
		full, err := exec.LookPath(path)
		if err != nil {
			return record.Executable{}, fmt.Errorf("executable %s: %w", path, err)
		}
		return record.Executable{Name: filepath.Base(path), Path: full}, nil
	}
	if mainFile == "" {
		return record.Executable{}, &MissingInformationError{Field: "executable"}
	}
	ext := strings.ToLower(filepath.Ext(mainFile))
	interp, ok := interpreters[ext]
	if !ok {
		return record.Executable{}, &MissingInformationError{Field: "executable for " + ext + " scripts"}
	}
	full, err := exec.LookPath(interp)
	if err != nil {
		return record.Executable{}, fmt.Errorf("interpreter %s for %s: %w", interp, mainFile, err)
	}
	return record.Executable{Name: interp, Path: full}, nil
}

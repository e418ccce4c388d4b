// Package classify splits the raw argument list of a launch command
// into a parameter set, input-data references, and the pass-through
// script argument string.
package classify

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/roach88/recap/internal/datastore"
	"github.com/roach88/recap/internal/params"
	"github.com/roach88/recap/internal/record"
)

// ConfigurationError reports an argument combination the launcher
// cannot act on.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Result is the classified form of a launch argument list.
type Result struct {
	// Parameters is the parameter-file contents merged with
	// command-line overrides, or nil if no parameter file was given.
	Parameters *params.ParameterSet
	// ParameterFile is the path of the parameter file, if any.
	ParameterFile string
	// InputData holds data keys for recognized input files, in
	// argument order.
	InputData []string
	// ScriptArgs is the reconstructed argument string, with the
	// parameter file replaced by the placeholder token.
	ScriptArgs string
}

// Classify walks the tokens in order. Each token is, in priority
// order: a parameter file (an existing path that parses), an input
// data file (an existing path under the input store's root), a
// name=value override, or an opaque argument passed through unchanged.
//
// A path that exists but is malformed as a parameter file falls
// through to the data-file check; any other parameter-parse failure
// propagates.
func Classify(args []string, inputStore datastore.DataStore) (*Result, error) {
	res := &Result{}
	overrides := params.NewSet()
	var scriptArgs []string
	sawMalformedFile := false

	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil {
			set, perr := params.ParseFile(arg)
			switch {
			case perr == nil:
				if res.Parameters != nil {
					return nil, &ConfigurationError{Message: "no more than one parameter file may be supplied"}
				}
				res.Parameters = set
				res.ParameterFile = arg
				scriptArgs = append(scriptArgs, record.ParametersPlaceholder)
				continue
			case params.IsMalformed(perr):
				// Probably a data file, not a parameter file.
				sawMalformedFile = true
			default:
				return nil, perr
			}
		}

		if inputStore != nil && inputStore.ContainsPath(arg) {
			keys, err := inputStore.GenerateKeys(arg)
			if err != nil {
				return nil, fmt.Errorf("resolve input data %s: %w", arg, err)
			}
			res.InputData = append(res.InputData, keys...)
			scriptArgs = append(scriptArgs, arg)
			continue
		}

		name, value, err := parseAsOverride(arg)
		switch {
		case err == nil:
			overrides.Set(name, value)
			continue
		case !errors.Is(err, errNotOverride):
			return nil, &ConfigurationError{Message: err.Error()}
		}

		scriptArgs = append(scriptArgs, arg)
	}

	if overrides.Len() > 0 && res.Parameters == nil {
		if sawMalformedFile {
			return nil, &ConfigurationError{Message: "command-line parameters supplied, but the parameter file given could not be parsed"}
		}
		return nil, &ConfigurationError{Message: "command-line parameters supplied but without a parameter file to put them into"}
	}
	if res.Parameters != nil {
		res.Parameters.Update(overrides)
	}

	res.ScriptArgs = strings.Join(scriptArgs, " ")
	return res, nil
}

// errNotOverride marks tokens that are not overrides at all, as
// opposed to overrides whose value fails to parse.
var errNotOverride = errors.New("not an override")

// parseAsOverride treats a token as name=value only when it contains
// an equals sign and does not name an existing path. A token that is
// an override but carries a malformed value returns the parse error.
func parseAsOverride(tok string) (string, any, error) {
	if !strings.Contains(tok, "=") {
		return "", nil, errNotOverride
	}
	if _, err := os.Stat(tok); err == nil {
		return "", nil, errNotOverride
	}
	return params.ParseOverride(tok)
}

package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// MalformedError reports that a file exists but could not be parsed as
// a parameter file. The argument classifier treats exactly this error
// as "probably a data file, not a parameter file"; any other error from
// ParseFile (I/O failures, unreadable files) propagates.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s is not a valid parameter file: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// ParseFile reads a parameter file and returns its parameter set.
// The format is chosen by extension: .cue files are compiled with the
// CUE evaluator, everything else is parsed as YAML (which covers JSON
// and simple "name: value" files as well).
func ParseFile(path string) (*ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return parseCUE(path, data)
	}
	return parseYAML(path, data)
}

// parseYAML decodes a YAML mapping, preserving key order via the node
// API. A document whose root is not a mapping is malformed: parameter
// files are always name→value.
func parseYAML(path string, data []byte) (*ParameterSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &MalformedError{Path: path, Err: fmt.Errorf("empty document")}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &MalformedError{Path: path, Err: fmt.Errorf("top level is not a mapping")}
	}
	set, err := yamlMapping(root)
	if err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	return set, nil
}

func yamlMapping(node *yaml.Node) (*ParameterSet, error) {
	set := NewSet()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, err
		}
		val, err := yamlValue(valNode)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		set.Set(key, val)
	}
	return set, nil
}

func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return yamlMapping(node)
	case yaml.SequenceNode:
		lst := make([]any, 0, len(node.Content))
		for _, elem := range node.Content {
			v, err := yamlValue(elem)
			if err != nil {
				return nil, err
			}
			lst = append(lst, v)
		}
		return lst, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return normalizeScalar(v), nil
	}
}

// normalizeScalar widens ints so parameter values compare consistently
// regardless of which parser produced them.
func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return v
	}
}

// parseCUE compiles a CUE file and decodes its top-level fields.
// Evaluation errors and non-concrete values are malformed input.
func parseCUE(path string, data []byte) (*ParameterSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	set, err := cueStruct(v)
	if err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	return set, nil
}

func cueStruct(v cue.Value) (*ParameterSet, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, err
	}
	set := NewSet()
	for iter.Next() {
		val, err := cueValue(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", iter.Label(), err)
		}
		set.Set(iter.Label(), val)
	}
	return set, nil
}

func cueValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StructKind:
		return cueStruct(v)
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		lst := []any{}
		for iter.Next() {
			elem, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			lst = append(lst, elem)
		}
		return lst, nil
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.BoolKind:
		return v.Bool()
	case cue.NullKind:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %v", v.Kind())
	}
}

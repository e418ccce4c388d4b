package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/recap/internal/params"
)

// marshalCanonical produces a canonical JSON serialization for content
// identity: object keys sorted by UTF-16 code units, strings NFC
// normalized, no HTML escaping, floats in shortest round-trip form.
// Two records serialize identically exactly when their content is the
// same, which is what synchronization collision detection relies on.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return canonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case float64:
		if val == float64(int64(val)) {
			return []byte(strconv.FormatInt(int64(val), 10)), nil
		}
		return []byte(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return canonicalArray(arr)
	case []any:
		return canonicalArray(val)
	case map[string]any:
		return canonicalObject(val)
	case *params.ParameterSet:
		return canonicalObject(val.AsMap())
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func canonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func canonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := canonicalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalString NFC-normalizes at the serialization boundary and
// disables HTML escaping.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// compareUTF16 orders strings by UTF-16 code units. Go's default
// string comparison is UTF-8 and produces a different order for
// characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// contentFields returns the write-once portion of a record as a plain
// map. Tags and outcome are excluded: they stay mutable after storage,
// so two records differing only there are still the same content.
func (r *Record) contentFields() map[string]any {
	return map[string]any{
		"label":            r.Label,
		"reason":           r.Reason,
		"parameters":       r.Parameters.AsMap(),
		"input_data":       r.InputData,
		"output_data":      r.OutputData,
		"script_arguments": r.ScriptArguments,
		"executable": map[string]any{
			"name":    r.Executable.Name,
			"path":    r.Executable.Path,
			"version": r.Executable.Version,
			"options": r.Executable.Options,
		},
		"main_file": r.MainFile,
		"version":   r.Version,
		"repository": map[string]any{
			"url":  r.Repository.URL,
			"kind": r.Repository.Kind,
		},
		"launch_mode": map[string]any{
			"kind":      r.LaunchMode.Kind,
			"processes": r.LaunchMode.Processes,
		},
		"diff":      r.Diff,
		"exit_code": r.ExitCode,
		"timestamp": r.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
	}
}

// ContentHash returns the sha256 hex digest of the record's canonical
// content serialization.
func (r *Record) ContentHash() (string, error) {
	b, err := marshalCanonical(r.contentFields())
	if err != nil {
		return "", fmt.Errorf("content hash for %q: %w", r.Label, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

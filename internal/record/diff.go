package record

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDiff holds the two sides of one differing field.
type FieldDiff struct {
	Field string `json:"field"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// RecordDiff is the structural difference between two records. It
// ignores the mutable fields (tags, outcome) and the per-run metadata
// (label, reason, timestamp, duration): a repeat run differs there by
// construction.
type RecordDiff struct {
	LabelA string      `json:"label_a"`
	LabelB string      `json:"label_b"`
	Fields []FieldDiff `json:"fields,omitempty"`
}

// Diff computes the structural difference between two records.
func Diff(a, b *Record) *RecordDiff {
	d := &RecordDiff{LabelA: a.Label, LabelB: b.Label}

	add := func(field, va, vb string) {
		if va != vb {
			d.Fields = append(d.Fields, FieldDiff{Field: field, A: va, B: vb})
		}
	}

	add("executable", fmt.Sprintf("%s %s", a.Executable.Name, a.Executable.Path),
		fmt.Sprintf("%s %s", b.Executable.Name, b.Executable.Path))
	add("main_file", a.MainFile, b.MainFile)
	add("version", a.Version, b.Version)
	add("repository", fmt.Sprintf("%s (%s)", a.Repository.URL, a.Repository.Kind),
		fmt.Sprintf("%s (%s)", b.Repository.URL, b.Repository.Kind))
	add("launch_mode", a.LaunchMode.String(), b.LaunchMode.String())
	add("script_arguments", a.ScriptArguments, b.ScriptArguments)
	add("code_diff", a.Diff, b.Diff)

	diffParameters(d, a, b)
	diffData(d, "input_data", a.InputData, b.InputData)
	diffData(d, "output_data", a.OutputData, b.OutputData)
	return d
}

func diffParameters(d *RecordDiff, a, b *Record) {
	if a.Parameters.Equal(b.Parameters) {
		return
	}
	pathsA, valsA := a.Parameters.Flatten()
	pathsB, valsB := b.Parameters.Flatten()
	seen := make(map[string]bool)
	for _, p := range append(append([]string{}, pathsA...), pathsB...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		va, okA := valsA[p]
		vb, okB := valsB[p]
		switch {
		case okA && !okB:
			d.Fields = append(d.Fields, FieldDiff{Field: "parameters." + p, A: fmt.Sprintf("%v", va), B: "<absent>"})
		case !okA && okB:
			d.Fields = append(d.Fields, FieldDiff{Field: "parameters." + p, A: "<absent>", B: fmt.Sprintf("%v", vb)})
		case fmt.Sprintf("%v", va) != fmt.Sprintf("%v", vb):
			d.Fields = append(d.Fields, FieldDiff{Field: "parameters." + p, A: fmt.Sprintf("%v", va), B: fmt.Sprintf("%v", vb)})
		}
	}
}

// diffData compares data-key sets as sets: order carries no meaning
// for comparison, only membership.
func diffData(d *RecordDiff, field string, a, b []string) {
	sa := append([]string{}, a...)
	sb := append([]string{}, b...)
	sort.Strings(sa)
	sort.Strings(sb)
	if strings.Join(sa, "\n") == strings.Join(sb, "\n") {
		return
	}
	d.Fields = append(d.Fields, FieldDiff{
		Field: field,
		A:     strings.Join(sa, ", "),
		B:     strings.Join(sb, ", "),
	})
}

// Empty reports whether the two records have identical content.
func (d *RecordDiff) Empty() bool {
	return len(d.Fields) == 0
}

// Diff format modes.
const (
	FormatShort = "short"
	FormatLong  = "long"
)

// Format renders the diff. Short mode lists only the names of the
// differing fields; long mode shows both sides of each difference.
func (d *RecordDiff) Format(mode string) string {
	if d.Empty() {
		return fmt.Sprintf("Records %s and %s are identical.", d.LabelA, d.LabelB)
	}
	var b strings.Builder
	switch mode {
	case FormatLong:
		fmt.Fprintf(&b, "Record %s differs from %s:\n", d.LabelB, d.LabelA)
		for _, f := range d.Fields {
			fmt.Fprintf(&b, "  %s:\n    %s: %s\n    %s: %s\n", f.Field, d.LabelA, f.A, d.LabelB, f.B)
		}
	default:
		names := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			names[i] = f.Field
		}
		fmt.Fprintf(&b, "Records differ in: %s", strings.Join(names, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

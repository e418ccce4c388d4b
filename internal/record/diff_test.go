package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffIdenticalRecords(t *testing.T) {
	a := contentHashRecord()
	b := contentHashRecord()
	b.Label = "sim_20240101-130000"
	b.Reason = "repeat"
	b.AddTag("repeat")

	d := Diff(a, b)
	assert.True(t, d.Empty())
	assert.Equal(t, "Records sim_20240101-120000 and sim_20240101-130000 are identical.", d.Format(FormatShort))
}

func TestDiffReportsDifferingFields(t *testing.T) {
	a := contentHashRecord()
	b := contentHashRecord()
	b.Label = "sim_20240101-130000"
	b.Version = "deadbeef"
	b.Parameters.Set("rate", 0.9)
	b.OutputData = []string{"results/other.dat@123abc"}

	d := Diff(a, b)
	require.False(t, d.Empty())

	fields := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"version", "parameters.rate", "output_data"}, fields)

	assert.Equal(t, "Records differ in: version, parameters.rate, output_data", d.Format(FormatShort))
}

func TestDiffParameterAbsence(t *testing.T) {
	a := contentHashRecord()
	b := contentHashRecord()
	b.Parameters.Set("extra", "new")

	d := Diff(a, b)
	require.Len(t, d.Fields, 1)
	assert.Equal(t, "parameters.extra", d.Fields[0].Field)
	assert.Equal(t, "<absent>", d.Fields[0].A)
	assert.Equal(t, "new", d.Fields[0].B)
}

func TestDiffDataOrderIrrelevant(t *testing.T) {
	a := contentHashRecord()
	b := contentHashRecord()
	a.InputData = []string{"x@1", "y@2"}
	b.InputData = []string{"y@2", "x@1"}

	d := Diff(a, b)
	assert.True(t, d.Empty())
}

func TestDiffFormatLong(t *testing.T) {
	a := contentHashRecord()
	b := contentHashRecord()
	b.Label = "sim_20240101-130000"
	b.Version = "deadbeef"

	got := Diff(a, b).Format(FormatLong)
	want := "Record sim_20240101-130000 differs from sim_20240101-120000:\n" +
		"  version:\n" +
		"    sim_20240101-120000: 1a2b3c4d\n" +
		"    sim_20240101-130000: deadbeef"
	assert.Equal(t, want, got)
}

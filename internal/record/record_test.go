package record

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveLabelFromParamFile(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	label := DeriveLabel("config/default.yaml", ts)
	assert.Equal(t, "default_20240102-150405", label)
}

func TestDeriveLabelWithoutParamFile(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	a := DeriveLabel("", ts)
	b := DeriveLabel("", ts)

	assert.True(t, strings.HasPrefix(a, "20240102-150405_"))
	assert.Len(t, a, len("20240102-150405_")+8)
	// The UUID suffix keeps rapid launches from colliding.
	assert.NotEqual(t, a, b)
}

func TestTagsStaySortedAndIdempotent(t *testing.T) {
	r := &Record{Label: "r1"}

	assert.True(t, r.AddTag("zeta"))
	assert.True(t, r.AddTag("alpha"))
	assert.Equal(t, []string{"alpha", "zeta"}, r.Tags)

	assert.False(t, r.AddTag("alpha"))
	assert.Equal(t, []string{"alpha", "zeta"}, r.Tags)

	assert.True(t, r.RemoveTag("zeta"))
	assert.False(t, r.RemoveTag("zeta"))
	assert.Equal(t, []string{"alpha"}, r.Tags)
	assert.True(t, r.HasTag("alpha"))
	assert.False(t, r.HasTag("zeta"))
}

func TestAddComment(t *testing.T) {
	r := &Record{Label: "r1"}

	r.AddComment("first", false)
	assert.Equal(t, "first", r.Outcome)

	r.AddComment("second", false)
	assert.Equal(t, "first\nsecond", r.Outcome)

	r.AddComment("only", true)
	assert.Equal(t, "only", r.Outcome)
}

func TestCommandLine(t *testing.T) {
	r := &Record{
		Executable:      Executable{Name: "python3", Path: "/usr/bin/python3", Options: "-u"},
		MainFile:        "main.py",
		ScriptArguments: ParametersPlaceholder + " extra",
	}

	got := r.CommandLine("run.yaml")
	assert.Equal(t, "/usr/bin/python3 -u main.py run.yaml extra", got)

	// Empty paramFile leaves the placeholder in place.
	got = r.CommandLine("")
	require.Contains(t, got, ParametersPlaceholder)
}

func TestLaunchModeString(t *testing.T) {
	assert.Equal(t, "serial", LaunchMode{Kind: LaunchSerial}.String())
	assert.Equal(t, "distributed (n=4)", LaunchMode{Kind: LaunchDistributed, Processes: 4}.String())
}

func TestSucceeded(t *testing.T) {
	assert.True(t, (&Record{ExitCode: 0}).Succeeded())
	assert.False(t, (&Record{ExitCode: 1}).Succeeded())
}

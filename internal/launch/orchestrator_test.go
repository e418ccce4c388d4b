package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recap/internal/datastore"
	"github.com/roach88/recap/internal/params"
	"github.com/roach88/recap/internal/record"
	"github.com/roach88/recap/internal/vcs"
)

type fakeWorkingCopy struct {
	path    string
	version string
	dirty   bool
	diff    string
}

func (f *fakeWorkingCopy) Path() string { return f.path }

func (f *fakeWorkingCopy) CurrentVersion() (string, error) { return f.version, nil }

func (f *fakeWorkingCopy) HasUncommittedModifications() (bool, error) { return f.dirty, nil }
func (f *fakeWorkingCopy) Checkout(version string) error {
	f.version = version
	return nil
}
func (f *fakeWorkingCopy) Diff() (string, error) { return f.diff, nil }
func (f *fakeWorkingCopy) Repository() vcs.Repository {
	return vcs.Repository{URL: f.path, Kind: "git"}
}

type memorySaver struct {
	saved []*record.Record
	fail  error
}

func (m *memorySaver) Save(ctx context.Context, rec *record.Record) error {
	if m.fail != nil {
		return m.fail
	}
	m.saved = append(m.saved, rec)
	return nil
}

// launchFixture builds a working directory holding a shell script that
// writes one output file into the data directory.
func launchFixture(t *testing.T, script string) (wc *fakeWorkingCopy, outputs datastore.DataStore, saver *memorySaver, orch *Orchestrator) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Data"), 0o755))

	outputs, err := datastore.NewFileSystem(filepath.Join(dir, "Data"))
	require.NoError(t, err)

	wc = &fakeWorkingCopy{path: dir, version: "1a2b3c4d"}
	saver = &memorySaver{}
	orch = New(Options{
		WorkingCopy: wc,
		Outputs:     outputs,
		Store:       saver,
		ParamsDir:   filepath.Join(dir, "params"),
	})
	return wc, outputs, saver, orch
}

func TestLaunchHappyPath(t *testing.T) {
	_, _, saver, orch := launchFixture(t, "#!/bin/sh\necho result > Data/out.dat\n")

	p := params.NewSet()
	p.Set("seed", int64(42))
	rec, err := orch.Launch(context.Background(), Request{
		Parameters:    p,
		ParameterFile: "run.param",
		ScriptArgs:    record.ParametersPlaceholder,
		MainFile:      "run.sh",
		Label:         "trial1",
		Reason:        "testing",
	})
	require.NoError(t, err)
	assert.Equal(t, StateStored, orch.State())

	require.Len(t, saver.saved, 1)
	assert.Same(t, rec, saver.saved[0])

	assert.Equal(t, "trial1", rec.Label)
	assert.Equal(t, "1a2b3c4d", rec.Version)
	assert.Equal(t, 0, rec.ExitCode)
	assert.True(t, rec.Succeeded())
	assert.Equal(t, "sh", rec.Executable.Name)
	assert.Equal(t, record.LaunchSerial, rec.LaunchMode.Kind)
	require.Len(t, rec.OutputData, 1)
	assert.Equal(t, "out.dat", datastore.KeyPath(rec.OutputData[0]))

	// The recorded arguments keep the placeholder, not the scratch path.
	assert.Equal(t, record.ParametersPlaceholder, rec.ScriptArguments)
}

func TestLaunchWritesParameterFile(t *testing.T) {
	wc, _, _, orch := launchFixture(t, "#!/bin/sh\nexit 0\n")

	p := params.NewSet()
	p.Set("seed", int64(42))
	_, err := orch.Launch(context.Background(), Request{
		Parameters: p,
		ScriptArgs: record.ParametersPlaceholder,
		MainFile:   "run.sh",
		Label:      "trial2",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(wc.path, "params", "trial2.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "seed: 42")
}

func TestLaunchDirtyWorkingCopyAborts(t *testing.T) {
	wc, _, saver, orch := launchFixture(t, "#!/bin/sh\nexit 0\n")
	wc.dirty = true

	_, err := orch.Launch(context.Background(), Request{MainFile: "run.sh", Label: "trial3"})
	require.Error(t, err)
	assert.True(t, vcs.IsUncommittedModifications(err))
	assert.Equal(t, StateAborted, orch.State())
	assert.Empty(t, saver.saved)
}

func TestLaunchStoreDiffPolicyCapturesDiff(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	outputs, err := datastore.NewFileSystem(filepath.Join(dir, "Data"))
	require.NoError(t, err)

	wc := &fakeWorkingCopy{path: dir, version: "1a2b3c4d", dirty: true, diff: "--- a/run.sh\n+++ b/run.sh\n"}
	saver := &memorySaver{}
	orch := New(Options{
		WorkingCopy: wc,
		Outputs:     outputs,
		Store:       saver,
		OnChanged:   OnChangedStoreDiff,
	})

	rec, err := orch.Launch(context.Background(), Request{MainFile: "run.sh", Label: "trial4"})
	require.NoError(t, err)
	assert.Equal(t, wc.diff, rec.Diff)
	assert.Equal(t, StateStored, orch.State())
}

func TestLaunchFailedScriptStillRecorded(t *testing.T) {
	_, _, saver, orch := launchFixture(t, "#!/bin/sh\necho boom >&2\nexit 7\n")

	rec, err := orch.Launch(context.Background(), Request{MainFile: "run.sh", Label: "trial5"})
	require.NoError(t, err)
	assert.Equal(t, StateStored, orch.State())
	require.Len(t, saver.saved, 1)

	assert.Equal(t, 7, rec.ExitCode)
	assert.False(t, rec.Succeeded())
	assert.Contains(t, rec.Outcome, "Script failed with exit status 7")
	assert.Contains(t, rec.Outcome, "boom")
}

func TestLaunchSaveFailureAborts(t *testing.T) {
	_, _, saver, orch := launchFixture(t, "#!/bin/sh\nexit 0\n")
	saver.fail = errors.New("database is locked")

	_, err := orch.Launch(context.Background(), Request{MainFile: "run.sh", Label: "trial7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store record trial7")
	assert.Equal(t, StateAborted, orch.State())
	assert.Empty(t, saver.saved)
}

func TestLaunchExplicitVersionCheckout(t *testing.T) {
	wc, _, _, orch := launchFixture(t, "#!/bin/sh\nexit 0\n")

	rec, err := orch.Launch(context.Background(), Request{
		MainFile: "run.sh",
		Version:  "9f8e7d6c",
		Label:    "trial6",
	})
	require.NoError(t, err)
	assert.Equal(t, "9f8e7d6c", wc.version)
	assert.Equal(t, "9f8e7d6c", rec.Version)
}

func TestLaunchDerivesLabel(t *testing.T) {
	_, _, _, orch := launchFixture(t, "#!/bin/sh\nexit 0\n")

	p := params.NewSet()
	p.Set("seed", int64(1))
	rec, err := orch.Launch(context.Background(), Request{
		Parameters:    p,
		ParameterFile: "defaults.yaml",
		MainFile:      "run.sh",
	})
	require.NoError(t, err)
	assert.Contains(t, rec.Label, "defaults_")
}

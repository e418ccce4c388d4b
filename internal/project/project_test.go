package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recap/internal/launch"
	"github.com/roach88/recap/internal/record"
)

func TestCreateAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	created, err := Create(dir, &Project{
		Name:      "simproj",
		DataLabel: "cmdline",
		Defaults: Defaults{
			Executable: "python3",
			MainFile:   "main.py",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, launch.OnChangedError, created.OnChanged)
	assert.Equal(t, filepath.Join(ConfigDirName, "records.db"), created.StorePath)
	assert.Equal(t, "Data", created.DataPath)
	assert.Equal(t, record.LaunchSerial, created.Defaults.LaunchMode.Kind)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "simproj", loaded.Name)
	assert.Equal(t, "cmdline", loaded.DataLabel)
	assert.Equal(t, "python3", loaded.Defaults.Executable)
	assert.Equal(t, dir, loaded.Root())
}

func TestCreateRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := Create(dir, &Project{Name: "one"})
	require.NoError(t, err)

	_, err = Create(dir, &Project{Name: "two"})
	assert.ErrorIs(t, err, ErrProjectExists)
}

func TestLoadMissingProject(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestSavePersistsChanges(t *testing.T) {
	dir := t.TempDir()
	p, err := Create(dir, &Project{Name: "simproj"})
	require.NoError(t, err)

	p.OnChanged = launch.OnChangedStoreDiff
	p.Defaults.MainFile = "simulate.py"
	require.NoError(t, p.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, launch.OnChangedStoreDiff, loaded.OnChanged)
	assert.Equal(t, "simulate.py", loaded.Defaults.MainFile)
}

func TestOpenStoreResolvesRelativePath(t *testing.T) {
	dir := t.TempDir()
	p, err := Create(dir, &Project{Name: "simproj"})
	require.NoError(t, err)

	st, err := p.OpenStore()
	require.NoError(t, err)
	defer st.Close()
	assert.Equal(t, filepath.Join(dir, ConfigDirName, "records.db"), st.Location())

	_, statErr := os.Stat(filepath.Join(dir, ConfigDirName, "records.db"))
	assert.NoError(t, statErr)
}

func TestDataStoreArchivingSelection(t *testing.T) {
	dir := t.TempDir()
	p, err := Create(dir, &Project{Name: "simproj", ArchivePath: "archive"})
	require.NoError(t, err)

	ds, err := p.DataStore()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Data"), ds.Root())

	_, statErr := os.Stat(filepath.Join(dir, "archive"))
	assert.NoError(t, statErr, "archive directory is created eagerly")
}

func TestApplyDefaults(t *testing.T) {
	p := &Project{
		Name: "simproj",
		Defaults: Defaults{
			Executable: "python3",
			MainFile:   "main.py",
			LaunchMode: record.LaunchMode{Kind: record.LaunchSerial},
		},
	}

	req := launch.Request{}
	p.applyDefaults(&req)
	assert.Equal(t, "python3", req.ExecutablePath)
	assert.Equal(t, "main.py", req.MainFile)
	assert.Equal(t, record.LaunchSerial, req.Mode.Kind)

	// Explicit request fields win over defaults.
	req = launch.Request{ExecutablePath: "sh", MainFile: "run.sh"}
	p.applyDefaults(&req)
	assert.Equal(t, "sh", req.ExecutablePath)
	assert.Equal(t, "run.sh", req.MainFile)
}

func TestApplyDefaultsDataLabel(t *testing.T) {
	p := &Project{Name: "simproj", DataLabel: "cmdline"}
	req := launch.Request{Label: "trial1", ScriptArgs: "--fast"}
	p.applyDefaults(&req)
	assert.Equal(t, "--fast trial1", req.ScriptArgs)

	p.DataLabel = "parameters"
	req = launch.Request{Label: "trial2"}
	req.Parameters = paramsWith(t, "seed", int64(1))
	p.applyDefaults(&req)
	label, ok := req.Parameters.Get("label")
	require.True(t, ok)
	assert.Equal(t, "trial2", label)
}

func TestGetRecordLastSentinel(t *testing.T) {
	dir := t.TempDir()
	p, err := Create(dir, &Project{Name: "simproj"})
	require.NoError(t, err)
	ctx := context.Background()

	st, err := p.OpenStore()
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, p.Name, sampleRecord("r1", 0)))
	require.NoError(t, st.Save(ctx, p.Name, sampleRecord("r2", 1)))
	require.NoError(t, st.Close())

	rec, err := p.GetRecord(ctx, "last")
	require.NoError(t, err)
	assert.Equal(t, "r2", rec.Label)

	rec, err = p.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.Label)
}

func TestDeleteByTagCascadesData(t *testing.T) {
	dir := t.TempDir()
	p, err := Create(dir, &Project{Name: "simproj"})
	require.NoError(t, err)
	ctx := context.Background()

	outPath := filepath.Join(dir, "Data", "out.dat")
	require.NoError(t, os.MkdirAll(filepath.Dir(outPath), 0o755))
	require.NoError(t, os.WriteFile(outPath, []byte("result"), 0o644))

	rec := sampleRecord("r1", 0)
	rec.OutputData = []string{"out.dat@abc"}
	st, err := p.OpenStore()
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, p.Name, rec))
	require.NoError(t, st.Close())

	require.NoError(t, p.AddTag(ctx, "r1", "scratch"))

	n, err := p.DeleteByTag(ctx, "scratch", true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "output data deleted with the record")
}

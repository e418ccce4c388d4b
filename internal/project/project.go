// Package project ties a directory to its record store, data stores,
// version control, and launch defaults. The project file lives at
// .recap/project.yaml in the project root.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recap/internal/datastore"
	"github.com/roach88/recap/internal/launch"
	"github.com/roach88/recap/internal/record"
	"github.com/roach88/recap/internal/store"
	"github.com/roach88/recap/internal/vcs"
)

// ConfigDirName is the per-project configuration directory.
const ConfigDirName = ".recap"

const projectFileName = "project.yaml"

// ErrNoProject is returned by Load when the directory holds no
// project.
var ErrNoProject = errors.New("no project found (run 'recap init' first)")

// ErrProjectExists is returned by Create when one already does.
var ErrProjectExists = errors.New("a project already exists in this directory")

// Defaults holds the per-project launch defaults.
type Defaults struct {
	Executable        string            `yaml:"executable,omitempty"`
	ExecutableOptions string            `yaml:"executable_options,omitempty"`
	MainFile          string            `yaml:"main_file,omitempty"`
	Repository        record.Repository `yaml:"repository,omitempty"`
	LaunchMode        record.LaunchMode `yaml:"launch_mode,omitempty"`
}

// Project is the persistent configuration for one experiment project.
type Project struct {
	Name        string   `yaml:"name"`
	OnChanged   string   `yaml:"on_changed"`
	DataLabel   string   `yaml:"data_label,omitempty"` // "", "cmdline" or "parameters"
	DataPath    string   `yaml:"data_path"`
	ArchivePath string   `yaml:"archive_path,omitempty"`
	InputPath   string   `yaml:"input_path"`
	StorePath   string   `yaml:"record_store"`
	Defaults    Defaults `yaml:"defaults"`

	root string `yaml:"-"`
}

// Root returns the project root directory.
func (p *Project) Root() string { return p.root }

// Load reads the project file from dir.
func Load(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(abs, ConfigDirName, projectFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoProject
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	p.root = abs
	if p.OnChanged == "" {
		p.OnChanged = launch.OnChangedError
	}
	return &p, nil
}

// Create initializes a new project in dir and saves it. Fails if a
// project already exists there.
func Create(dir string, p *Project) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(abs, ConfigDirName, projectFileName)); err == nil {
		return nil, ErrProjectExists
	}
	p.root = abs
	if p.OnChanged == "" {
		p.OnChanged = launch.OnChangedError
	}
	if p.StorePath == "" {
		p.StorePath = filepath.Join(ConfigDirName, "records.db")
	}
	if p.DataPath == "" {
		p.DataPath = "Data"
	}
	if p.InputPath == "" {
		p.InputPath = "/"
	}
	if p.Defaults.LaunchMode.Kind == "" {
		p.Defaults.LaunchMode = record.LaunchMode{Kind: record.LaunchSerial}
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the project file.
func (p *Project) Save() error {
	dir := filepath.Join(p.root, ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, projectFileName), data, 0o644)
}

// OpenStore opens the project's record store. The caller closes it.
func (p *Project) OpenStore() (store.RecordStore, error) {
	location := p.StorePath
	if !isURL(location) && !filepath.IsAbs(location) {
		location = filepath.Join(p.root, location)
	}
	return store.Open(location)
}

func isURL(s string) bool {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// DataStore returns the output data store, archiving if configured.
func (p *Project) DataStore() (datastore.DataStore, error) {
	root := p.DataPath
	if !filepath.IsAbs(root) {
		root = filepath.Join(p.root, root)
	}
	if p.ArchivePath != "" {
		archive := p.ArchivePath
		if !filepath.IsAbs(archive) {
			archive = filepath.Join(p.root, archive)
		}
		return datastore.NewArchiving(root, archive)
	}
	return datastore.NewFileSystem(root)
}

// InputDataStore returns the store input data paths resolve against.
func (p *Project) InputDataStore() (datastore.DataStore, error) {
	return datastore.NewFileSystem(p.InputPath)
}

// WorkingCopy detects the version-control working copy at the
// project root.
func (p *Project) WorkingCopy() (vcs.WorkingCopy, error) {
	return vcs.Detect(p.root)
}

// Info renders a human-readable summary of the project settings.
func (p *Project) Info() string {
	mode := p.Defaults.LaunchMode.String()
	return fmt.Sprintf(
		"Project name     : %s\nRoot             : %s\nRecord store     : %s\nData path        : %s\nInput path       : %s\nOn changed       : %s\nDefault executable: %s\nDefault main file : %s\nDefault launch mode: %s",
		p.Name, p.root, p.StorePath, p.DataPath, p.InputPath, p.OnChanged,
		p.Defaults.Executable, p.Defaults.MainFile, mode)
}

package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the vox directory layout under $HOME.
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base vox directory (~/.voxlocus)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the config file path (~/.voxlocus/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// DataDir returns the data directory (~/.voxlocus/data), home of the
// session catalog.
func (p *Paths) DataDir() string {
	return filepath.Join(p.BaseDir(), "data")
}

// ModelsDir returns the model directory (~/.voxlocus/models)
func (p *Paths) ModelsDir() string {
	return filepath.Join(p.BaseDir(), "models")
}

// LogDir returns the log directory (~/.voxlocus/logs)
func (p *Paths) LogDir() string {
	return filepath.Join(p.BaseDir(), "logs")
}

// EnsureBaseDir creates the base directory if it doesn't exist
func (p *Paths) EnsureBaseDir() error {
	return os.MkdirAll(p.BaseDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0755)
}

// EnsureModelsDir creates the model directory if it doesn't exist
func (p *Paths) EnsureModelsDir() error {
	return os.MkdirAll(p.ModelsDir(), 0755)
}

// EnsureLogDir creates the log directory if it doesn't exist
func (p *Paths) EnsureLogDir() error {
	return os.MkdirAll(p.LogDir(), 0755)
}

// DataPath returns a path within the data directory
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir(), name)
}

// ModelPath returns a path within the model directory
func (p *Paths) ModelPath(name string) string {
	return filepath.Join(p.ModelsDir(), name)
}

// LogPath returns a path within the log directory
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogDir(), name)
}

package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths()
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}

	if paths.HomeDir == "" {
		t.Error("HomeDir should not be empty")
	}
}

func TestPaths_Layout(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	base := filepath.Join(tmpDir, DefaultBaseDir)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", paths.BaseDir(), base},
		{"ConfigFile", paths.ConfigFile(), filepath.Join(base, DefaultConfigFile)},
		{"DataDir", paths.DataDir(), filepath.Join(base, "data")},
		{"ModelsDir", paths.ModelsDir(), filepath.Join(base, "models")},
		{"LogDir", paths.LogDir(), filepath.Join(base, "logs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestPaths_Join(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	if got, want := paths.DataPath("catalog"), filepath.Join(paths.DataDir(), "catalog"); got != want {
		t.Errorf("DataPath() = %q, want %q", got, want)
	}

	if got, want := paths.ModelPath("ggml-base.bin"), filepath.Join(paths.ModelsDir(), "ggml-base.bin"); got != want {
		t.Errorf("ModelPath() = %q, want %q", got, want)
	}

	if got, want := paths.LogPath("vox.log"), filepath.Join(paths.LogDir(), "vox.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}

func TestPaths_Ensure(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	tests := []struct {
		name   string
		ensure func() error
		dir    string
	}{
		{"EnsureBaseDir", paths.EnsureBaseDir, paths.BaseDir()},
		{"EnsureDataDir", paths.EnsureDataDir, paths.DataDir()},
		{"EnsureModelsDir", paths.EnsureModelsDir, paths.ModelsDir()},
		{"EnsureLogDir", paths.EnsureLogDir, paths.LogDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ensure(); err != nil {
				t.Fatalf("%s error: %v", tt.name, err)
			}

			info, err := os.Stat(tt.dir)
			if err != nil {
				t.Fatalf("directory not created: %v", err)
			}

			if !info.IsDir() {
				t.Errorf("%s should be a directory", tt.dir)
			}
		})
	}
}

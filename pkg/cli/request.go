package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest reads a request file into v. Transcription jobs can be
// described in YAML or JSON; the extension picks the decoder.
func LoadRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest decodes request data into v by the extension of
// filename. Without a recognized extension both decoders get a shot,
// YAML first.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse request YAML: %w", err)
		}
		return nil
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse request JSON: %w", err)
		}
		return nil
	}
	if yaml.Unmarshal(data, v) == nil {
		return nil
	}
	if json.Unmarshal(data, v) == nil {
		return nil
	}
	return fmt.Errorf("parse request %s: neither YAML nor JSON", filepath.Base(filename))
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatYAML renders YAML, the default for terminals.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON renders indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatRaw writes strings and byte slices untouched.
	FormatRaw OutputFormat = "raw"
)

// OutputOptions says where and how a result is written.
type OutputOptions struct {
	// Format picks the rendering; empty means FormatYAML.
	Format OutputFormat
	// File receives the output instead of stdout when set.
	File string
	// Indent overrides the two-space JSON indent.
	Indent string
	// Writer, when set, wins over File and stdout.
	Writer io.Writer
}

// Output renders result per opts and writes it to the selected
// destination.
func Output(result any, opts OutputOptions) error {
	w, cleanup, err := opts.dest()
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	switch opts.Format {
	case FormatJSON:
		indent := opts.Indent
		if indent == "" {
			indent = "  "
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", indent)
		return enc.Encode(result)
	case FormatYAML, "":
		return writeYAML(w, result)
	case FormatRaw:
		switch v := result.(type) {
		case []byte:
			_, err := w.Write(v)
			return err
		case string:
			_, err := io.WriteString(w, v)
			return err
		}
		// Raw only means something for text-like results; anything
		// structured falls back to YAML.
		return writeYAML(w, result)
	}
	return fmt.Errorf("unsupported output format: %s", opts.Format)
}

func (o OutputOptions) dest() (io.Writer, func() error, error) {
	if o.Writer != nil {
		return o.Writer, nil, nil
	}
	if o.File == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(o.File)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// OutputBytes writes a binary result, which only makes sense in a
// file.
func OutputBytes(data []byte, path string) error {
	if path == "" {
		return fmt.Errorf("binary output needs a file path")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Terminal print helpers. Results go through Output; these are for
// the human-facing lines around them.

// PrintSuccess prints a checkmarked line to stdout.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error line to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintInfo prints an informational line.
func PrintInfo(format string, args ...any) {
	fmt.Printf("ℹ "+format+"\n", args...)
}

// PrintWarning prints a warning line.
func PrintWarning(format string, args ...any) {
	fmt.Printf("⚠ "+format+"\n", args...)
}

// PrintVerbose prints to stderr, only when verbose is set.
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

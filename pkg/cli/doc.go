// Package cli provides shared plumbing for the vox command-line tool.
//
// This package includes:
//   - Configuration management (named contexts, kubectl style)
//   - Output formatting (YAML, JSON, raw)
//   - Request file loading (YAML/JSON)
//   - jq filtering for structured results
//   - Terminal UI framing and log capture
//
// Configuration lives under ~/.voxlocus/, next to the session catalog
// and downloaded model files.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig()
//
//	ctx, err := cfg.GetCurrentContext()
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli

// Package main provides the vox CLI tool.
//
// Usage:
//
//	vox [flags] <command> [args]
//
// Commands:
//
//	record     - Record the microphone with live chunked transcription
//	clip       - Record a fixed-length clip to a WAV file
//	transcribe - Transcribe an existing WAV file
//	devices    - List audio input devices
//	sessions   - Browse past recording sessions
//	config     - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.voxlocus/
//	Use 'vox config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/sabaimran/vox-locus/cmd/vox/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/audio/capture"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `List the audio input devices capture can open, plus the
registered transcription engine patterns.

Examples:
  vox devices
  vox devices --format json`,
	RunE: runDevices,
}

type devicesResult struct {
	Inputs  []capture.Device `json:"inputs" yaml:"inputs"`
	Engines []string         `json:"engines" yaml:"engines"`
}

func runDevices(cmd *cobra.Command, args []string) error {
	inputs, err := capture.Devices()
	if err != nil {
		return err
	}
	return outputResult(devicesResult{
		Inputs:  inputs,
		Engines: transcribe.Patterns(),
	})
}

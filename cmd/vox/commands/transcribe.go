package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/audio/wav"
	"github.com/sabaimran/vox-locus/pkg/cli"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file.wav]",
	Short: "Transcribe a WAV file",
	Long: `Transcribe an existing WAV file in one pass.

The file must be 16-bit mono PCM at 16, 24 or 48 kHz. Output is the
recognized text with its timed segments. Parameters may also come from
a request file.

Examples:
  vox transcribe meeting.wav
  vox transcribe meeting.wav --engine whisper/small --language en
  vox transcribe -f request.yaml
  vox transcribe meeting.wav --format json -o result.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringP("file", "f", "", "request file (YAML or JSON)")
	transcribeCmd.Flags().String("engine", "", "transcription engine id (e.g. whisper/base, openai/whisper-1)")
	transcribeCmd.Flags().String("device", "", "inference device (cpu, gpu)")
	transcribeCmd.Flags().String("models", "", "directory with local model files")
	transcribeCmd.Flags().String("language", "", "spoken language hint (e.g. en)")
	transcribeCmd.Flags().Int("beam", 0, "decode beam width")
}

// transcribeRequest is the request-file form of the command.
type transcribeRequest struct {
	File     string `yaml:"file" json:"file"`
	Engine   string `yaml:"engine,omitempty" json:"engine,omitempty"`
	Device   string `yaml:"device,omitempty" json:"device,omitempty"`
	Models   string `yaml:"models,omitempty" json:"models,omitempty"`
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
	BeamSize int    `yaml:"beam_size,omitempty" json:"beam_size,omitempty"`
}

// transcribeResult is the one-shot transcription report.
type transcribeResult struct {
	File     string               `json:"file" yaml:"file"`
	Engine   string               `json:"engine" yaml:"engine"`
	Duration jsontime.Duration    `json:"duration" yaml:"duration"`
	Text     string               `json:"text" yaml:"text"`
	Segments []transcribe.Segment `json:"segments,omitempty" yaml:"segments,omitempty"`
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings()
	if err != nil {
		return err
	}

	var wavFile string
	if reqFile, _ := cmd.Flags().GetString("file"); reqFile != "" {
		var req transcribeRequest
		if err := cli.LoadRequest(reqFile, &req); err != nil {
			return err
		}
		wavFile = req.File
		if req.Engine != "" {
			s.Engine = req.Engine
		}
		if req.Device != "" {
			s.Device = req.Device
		}
		if req.Models != "" {
			s.Models = req.Models
		}
		if req.Language != "" {
			s.Language = req.Language
		}
		if req.BeamSize > 0 {
			s.BeamSize = req.BeamSize
		}
	}
	if len(args) > 0 {
		wavFile = args[0]
	}
	if wavFile == "" {
		return fmt.Errorf("a WAV file is required: pass it as an argument or in the request file")
	}

	// Flags override both the context and the request file.
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		s.Engine = v
	}
	if v, _ := cmd.Flags().GetString("device"); v != "" {
		s.Device = v
	}
	if v, _ := cmd.Flags().GetString("models"); v != "" {
		s.Models = v
	}
	if v, _ := cmd.Flags().GetString("language"); v != "" {
		s.Language = v
	}
	if v, _ := cmd.Flags().GetInt("beam"); v > 0 {
		s.BeamSize = v
	}

	f, err := os.Open(wavFile)
	if err != nil {
		return err
	}
	format, data, err := wav.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", wavFile, err)
	}

	eng, err := transcribe.Open(cmd.Context(), s.Engine, s.engineConfig())
	if err != nil {
		return err
	}
	defer eng.Close()

	segments, err := eng.Transcribe(cmd.Context(), data, transcribe.Options{Format: format})
	if err != nil {
		return err
	}

	return outputResult(transcribeResult{
		File:     wavFile,
		Engine:   s.Engine,
		Duration: jsontime.Duration(format.Duration(int64(len(data)))),
		Text:     transcribe.Join(segments),
		Segments: segments,
	})
}

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/audio/capture"
	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
	"github.com/sabaimran/vox-locus/pkg/audio/wav"
	"github.com/sabaimran/vox-locus/pkg/cli"
)

var (
	flagClipDuration time.Duration
	flagClipOut      string
	flagClipRate     int
	flagClipMic      string
)

// clipCmd represents the clip command
var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Record a fixed-length clip to a WAV file",
	Long: `Record a fixed-length clip from the microphone straight to a WAV
file, with no transcription.

Examples:
  vox clip
  vox clip --duration 10s --out note.wav
  vox clip --rate 48000 --mic usb`,
	RunE: runClip,
}

func init() {
	clipCmd.Flags().DurationVar(&flagClipDuration, "duration", 5*time.Second, "clip length")
	clipCmd.Flags().StringVar(&flagClipOut, "out", "output.wav", "output WAV file")
	clipCmd.Flags().IntVar(&flagClipRate, "rate", 16000, "sample rate (16000, 24000, 48000)")
	clipCmd.Flags().StringVar(&flagClipMic, "mic", "", "input device name substring")
}

func runClip(cmd *cobra.Command, args []string) error {
	format, ok := pcm.FormatForRate(flagClipRate)
	if !ok {
		return fmt.Errorf("unsupported sample rate %d (want 16000, 24000 or 48000)", flagClipRate)
	}

	s, err := resolveSettings()
	if err != nil {
		return err
	}
	if flagClipMic != "" {
		s.CaptureDevice = flagClipMic
	}

	src, err := capture.Open(capture.Config{
		Format: format,
		Device: s.CaptureDevice,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	target := format.FramesInDuration(flagClipDuration, src.FrameSize())
	if target < 1 {
		return fmt.Errorf("duration %v is shorter than one %d-sample frame", flagClipDuration, src.FrameSize())
	}

	fmt.Printf("Recording %v from %s...\n", flagClipDuration, src.Name())
	frame := make([]int16, src.FrameSize())
	data := make([]byte, 0, target*src.FrameSize()*2)
	for i := 0; i < target; i++ {
		n, err := src.Read(frame)
		if err != nil {
			return fmt.Errorf("frame read: %w", err)
		}
		data = pcm.Int16ToBytes(data, frame[:n])
	}

	f, err := os.Create(flagClipOut)
	if err != nil {
		return err
	}
	if err := wav.Encode(f, format.DataChunk(data)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	cli.PrintSuccess("Wrote %s (%v of audio)", flagClipOut, format.Duration(int64(len(data))))
	return nil
}

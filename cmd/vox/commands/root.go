package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/cli"
	"github.com/sabaimran/vox-locus/pkg/session"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

// defaultEngine is used when neither the context nor a flag picks one.
const defaultEngine = "whisper/base"

var (
	// Global flags
	cfgFile      string
	contextName  string
	outputFormat string
	outputFile   string
	verbose      bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vox",
	Short: "Live microphone transcription tool",
	Long: `vox records the microphone and transcribes speech as it goes.

Audio is captured in fixed-duration chunks; each chunk is transcribed
the moment it completes, and the full session is re-transcribed in one
pass at the end for a transcript with cross-chunk context. Every
session leaves a timestamped directory with the complete WAV and both
transcripts.

Configuration is stored in ~/.voxlocus/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Record until Ctrl+C with the bundled whisper engine
  vox record

  # Record with a hosted engine and 10-second chunks
  vox config add-context cloud --engine openai/whisper-1 --api-key KEY
  vox -c cloud record --chunk 10s

  # Transcribe an existing WAV file
  vox transcribe meeting.wav --json | jq '.text'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.voxlocus/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default is current context)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "output format (yaml, json, raw)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(clipCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// configErr stores the config load error for deferred reporting, so
// commands that never touch the config still run.
var configErr error

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	globalConfig, configErr = cli.LoadConfigWithPath(cfgFile)
}

// getConfig returns the loaded configuration, surfacing a deferred
// load error.
func getConfig() (*cli.Config, error) {
	if configErr != nil {
		return nil, fmt.Errorf("vox config: %w", configErr)
	}
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getContext resolves the context picked by -c, falling back to the
// current context. Returns nil without error when no context is
// configured at all; commands then run on built-in defaults.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	if contextName == "" && cfg.CurrentContext == "" {
		return nil, nil
	}
	return cfg.ResolveContext(contextName)
}

// settings holds the resolved knobs for a capture or transcription
// run: built-in defaults overlaid by the active context. Commands
// overlay their own flags on top.
type settings struct {
	Engine        string
	Device        string
	Models        string
	Language      string
	BeamSize      int
	Chunk         time.Duration
	CaptureDevice string
	OutputRoot    string
	APIKey        string
	BaseURL       string
	Mirror        *cli.MirrorConfig
}

func resolveSettings() (*settings, error) {
	s := &settings{
		Engine:   defaultEngine,
		Chunk:    session.DefaultChunkDuration,
		BeamSize: transcribe.DefaultBeamSize,
	}
	if paths, err := cli.NewPaths(); err == nil {
		s.Models = paths.ModelsDir()
	}

	ctx, err := getContext()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		return s, nil
	}

	if ctx.Engine != "" {
		s.Engine = ctx.Engine
	}
	if ctx.Device != "" {
		s.Device = ctx.Device
	}
	if ctx.Models != "" {
		s.Models = ctx.Models
	}
	if ctx.Language != "" {
		s.Language = ctx.Language
	}
	if ctx.BeamSize > 0 {
		s.BeamSize = ctx.BeamSize
	}
	if ctx.ChunkSeconds > 0 {
		s.Chunk = time.Duration(ctx.ChunkSeconds) * time.Second
	}
	if ctx.CaptureDevice != "" {
		s.CaptureDevice = ctx.CaptureDevice
	}
	if ctx.OutputRoot != "" {
		s.OutputRoot = ctx.OutputRoot
	}
	s.APIKey = ctx.APIKey
	s.BaseURL = ctx.BaseURL
	s.Mirror = ctx.Mirror
	return s, nil
}

// engineConfig maps the settings onto the transcription backend.
func (s *settings) engineConfig() transcribe.Config {
	return transcribe.Config{
		Models:   s.Models,
		Device:   transcribe.Device(s.Device),
		Language: s.Language,
		BeamSize: s.BeamSize,
		APIKey:   s.APIKey,
		BaseURL:  s.BaseURL,
	}
}

// outputResult renders v in the globally selected output format.
func outputResult(result any) error {
	return cli.Output(result, cli.OutputOptions{
		Format: cli.OutputFormat(outputFormat),
		File:   outputFile,
	})
}

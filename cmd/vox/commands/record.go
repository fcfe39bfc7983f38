package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/audio/capture"
	"github.com/sabaimran/vox-locus/pkg/caption"
	"github.com/sabaimran/vox-locus/pkg/cli"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/session"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

var (
	// Command-line overrides
	flagEngine     string
	flagDevice     string
	flagModels     string
	flagLanguage   string
	flagBeam       int
	flagChunk      time.Duration
	flagMic        string
	flagRTP        string
	flagOutputRoot string
	flagListen     string
	flagTUI        bool
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the microphone with live transcription",
	Long: `Record audio and transcribe it in fixed-duration chunks.

Each completed chunk is transcribed the moment it fills and printed;
when the recording stops the whole session is re-transcribed in one
pass. The session directory holds the complete WAV, the chunk-by-chunk
transcript and the final one.

Recording stops on Ctrl+C. With --rtp the audio comes from an RTP/L16
stream instead of the microphone; with --listen live captions are also
served to websocket subscribers at ws://<addr>/captions.

Examples:
  vox record
  vox record --engine whisper/small --chunk 10s
  vox record --rtp :5004 --listen :8090
  vox record --tui`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&flagEngine, "engine", "", "transcription engine id (e.g. whisper/base, openai/whisper-1)")
	recordCmd.Flags().StringVar(&flagDevice, "device", "", "inference device (cpu, gpu)")
	recordCmd.Flags().StringVar(&flagModels, "models", "", "directory with local model files")
	recordCmd.Flags().StringVar(&flagLanguage, "language", "", "spoken language hint (e.g. en)")
	recordCmd.Flags().IntVar(&flagBeam, "beam", 0, "decode beam width")
	recordCmd.Flags().DurationVar(&flagChunk, "chunk", 0, "chunk duration (e.g. 5s)")
	recordCmd.Flags().StringVar(&flagMic, "mic", "", "input device name substring")
	recordCmd.Flags().StringVar(&flagRTP, "rtp", "", "listen for RTP/L16 audio on this address instead of the mic")
	recordCmd.Flags().StringVar(&flagOutputRoot, "output-root", "", "directory session directories are created under")
	recordCmd.Flags().StringVar(&flagListen, "listen", "", "serve live captions to websocket subscribers on this address")
	recordCmd.Flags().BoolVar(&flagTUI, "tui", false, "full-screen terminal UI")
}

// recordResult is what the record command reports once the session is
// closed and its artifacts are on disk.
type recordResult struct {
	Session   session.Manifest   `json:"session" yaml:"session"`
	Artifacts *session.Artifacts `json:"artifacts" yaml:"artifacts"`
	Mirrored  []string           `json:"mirrored,omitempty" yaml:"mirrored,omitempty"`
}

func runRecord(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if flagEngine != "" {
		s.Engine = flagEngine
	}
	if flagDevice != "" {
		s.Device = flagDevice
	}
	if flagModels != "" {
		s.Models = flagModels
	}
	if flagLanguage != "" {
		s.Language = flagLanguage
	}
	if flagBeam > 0 {
		s.BeamSize = flagBeam
	}
	if flagChunk > 0 {
		s.Chunk = flagChunk
	}
	if flagMic != "" {
		s.CaptureDevice = flagMic
	}
	if flagOutputRoot != "" {
		s.OutputRoot = flagOutputRoot
	}

	eng, err := transcribe.Open(cmd.Context(), s.Engine, s.engineConfig())
	if err != nil {
		return err
	}
	defer eng.Close()

	openSource := func() (capture.Source, error) {
		if flagRTP != "" {
			return capture.ListenRTP(capture.RTPConfig{Addr: flagRTP})
		}
		return capture.Open(capture.Config{Device: s.CaptureDevice})
	}

	var hub *caption.Hub
	if flagListen != "" {
		hub = caption.NewHub(caption.Config{})
		mux := http.NewServeMux()
		mux.Handle("/captions", hub)
		srv := &http.Server{Addr: flagListen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("vox: caption server failed", "addr", flagListen, "error", err)
			}
		}()
		defer srv.Close()
		defer hub.Close()
		fmt.Printf("Captions: ws://%s/captions\n", flagListen)
	}

	// In TUI mode log lines go through a capturing writer so they end
	// up in the log pane instead of corrupting the screen.
	var (
		prog *tea.Program
		logw *cli.LogWriter
	)
	if flagTUI {
		logw = cli.NewLogWriter(64)
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(logw, &slog.HandlerOptions{Level: level})))
	}

	onChunk := func(ev session.ChunkEvent) {
		if hub != nil {
			hub.Publish(caption.Event{
				At:      jsontime.NowMilli(),
				Index:   ev.Index,
				Partial: ev.Partial,
				Elapsed: ev.Elapsed,
				Text:    ev.Text,
			})
		}
		switch {
		case prog != nil:
			prog.Send(chunkMsg(ev))
		case ev.Text != "":
			fmt.Printf("[%s] %s\n", cli.FormatDuration(int(ev.Elapsed.Duration().Milliseconds())), ev.Text)
		}
	}

	rec, err := session.New(session.Config{
		OpenSource:    openSource,
		Engine:        eng,
		ChunkDuration: s.Chunk,
		OutputRoot:    s.OutputRoot,
		Language:      s.Language,
		BeamSize:      s.BeamSize,
		OnChunk:       onChunk,
	})
	if err != nil {
		return err
	}

	id := session.NewID()
	if flagTUI {
		prog = tea.NewProgram(newRecordModel(id, s.Engine, logw), tea.WithAltScreen())
	}

	if err := rec.Start(); err != nil {
		return err
	}

	if prog != nil {
		if _, err := prog.Run(); err != nil {
			slog.Error("vox: tui failed", "error", err)
		}
	} else {
		fmt.Printf("Recording session %s with %s (%s chunks). Press Ctrl+C to stop.\n", id, s.Engine, s.Chunk)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		signal.Stop(sigCh)
		fmt.Println("\nStopping...")
	}

	return finishSession(cmd.Context(), rec, id, s)
}

// finishSession closes the recorder, indexes and mirrors the
// artifacts, and reports the result. A failed artifact write or final
// pass still prints the summary but must show in the exit code.
func finishSession(ctx context.Context, rec *session.Recorder, id string, s *settings) error {
	art, closeErr := rec.Close()
	if closeErr != nil {
		slog.Error("vox: session close reported errors", "error", closeErr)
	}
	if art == nil {
		return closeErr
	}

	m := session.Manifest{
		ID:        id,
		StartedAt: rec.StartedAt().UnixNano(),
		Duration:  jsontime.Duration(rec.Duration()),
		Chunks:    len(rec.Chunks()),
		Frames:    rec.TotalFrames(),
		Engine:    s.Engine,
		Dir:       art.Dir,
		FullText:  art.FullText,
	}
	saveManifest(ctx, m)

	res := recordResult{Session: m, Artifacts: art}
	if s.Mirror != nil && s.Mirror.Bucket != "" {
		res.Mirrored = mirrorArtifacts(ctx, s.Mirror, art.Dir)
	}

	cli.PrintSuccess("Session %s: %d chunks, %s of audio in %s", id, m.Chunks, m.Duration, art.Dir)
	return errors.Join(outputResult(res), closeErr)
}

// saveManifest records the session in the local catalog. The catalog
// is a convenience index; failures must not fail the recording.
func saveManifest(ctx context.Context, m session.Manifest) {
	cat, store, err := openCatalog()
	if err != nil {
		slog.Warn("vox: session catalog unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := cat.Put(ctx, m); err != nil {
		slog.Warn("vox: session catalog put failed", "id", m.ID, "error", err)
	}
}

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
)

func init() {
	mustRegister("whisper/#", OpenerFunc(openWhisper))
}

// whisperEngine runs whisper.cpp locally. The model is loaded once;
// each Transcribe call decodes on a fresh context.
type whisperEngine struct {
	mu     sync.Mutex
	model  whisper.Model
	size   ModelSize
	cfg    Config
	closed bool
}

func openWhisper(ctx context.Context, id string, cfg Config) (Engine, error) {
	_, name := SplitID(id)
	size, err := ParseModelSize(name)
	if err != nil {
		return nil, err
	}
	device, err := cfg.device()
	if err != nil {
		return nil, err
	}
	if device == DeviceGPU {
		// GPU use is fixed when the bindings are compiled; the
		// selector cannot turn it on at run time.
		slog.Debug("transcribe: gpu requested; effective only when bindings are built with gpu support")
	}

	path := filepath.Join(cfg.Models, fmt.Sprintf("ggml-%s.bin", size))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", path, err)
	}
	slog.Debug("transcribe: whisper model loaded", "path", path, "size", size)
	return &whisperEngine{model: model, size: size, cfg: cfg}, nil
}

func (e *whisperEngine) Transcribe(ctx context.Context, audio []byte, opts Options) ([]Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if rate := opts.Format.SampleRate(); rate != whisper.SampleRate {
		return nil, fmt.Errorf("transcribe: whisper expects %dHz audio, got %dHz", whisper.SampleRate, rate)
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("transcribe: new whisper context: %w", err)
	}
	if lang := firstOf(opts.Language, e.cfg.Language); lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			return nil, fmt.Errorf("transcribe: set language %q: %w", lang, err)
		}
	}
	beam := opts.BeamSize
	if beam <= 0 {
		beam = e.cfg.beamSize()
	}
	wctx.SetBeamSize(beam)
	if e.cfg.Threads > 0 {
		wctx.SetThreads(uint(e.cfg.Threads))
	}

	if err := wctx.Process(floatSamples(audio), nil, nil, nil); err != nil {
		return nil, fmt.Errorf("transcribe: process: %w", err)
	}

	var segments []Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transcribe: next segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start: jsontime.Duration(seg.Start),
			End:   jsontime.Duration(seg.End),
			Text:  text,
		})
	}
	return segments, nil
}

func (e *whisperEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.model.Close(); err != nil {
		return fmt.Errorf("transcribe: close whisper model: %w", err)
	}
	return nil
}

// floatSamples converts little-endian 16-bit PCM bytes to the
// normalized float32 samples whisper consumes.
func floatSamples(audio []byte) []float32 {
	ints := pcm.BytesToInt16(audio)
	out := make([]float32, len(ints))
	for i, s := range ints {
		out[i] = float32(s) / 32768
	}
	return out
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

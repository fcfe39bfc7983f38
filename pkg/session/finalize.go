package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
	"github.com/sabaimran/vox-locus/pkg/audio/wav"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

// Artifact file names inside the session directory.
const (
	AudioFile       = "complete_audio.wav"
	IncrementalFile = "incremental_transcription.txt"
	FullFile        = "full_transcription.txt"
)

// Artifacts lists what a closed session wrote. Audio is empty when
// the session captured no frames.
type Artifacts struct {
	Dir         string `json:"dir"`
	Audio       string `json:"audio,omitempty"`
	Incremental string `json:"incremental"`
	Full        string `json:"full"`
	// FullText is the trimmed final-pass transcript, empty for
	// zero-frame sessions or when the final pass failed.
	FullText string `json:"full_text,omitempty"`
}

// Close stops the session if it is still recording and writes the
// artifacts: the complete session audio as a WAV file, the incremental
// transcript with one line per chunk, and a full re-transcription of
// the whole session in one pass. A session that captured no frames
// skips the WAV and the re-pass but still writes both transcript
// files, empty. Close is terminal; every later call returns ErrClosed.
//
// Unlike Stop, Close waits out the capture goroutine without a bound:
// when the join timeout expires with a chunk transcription still in
// flight, Close blocks until that call returns rather than leave the
// chunk's line out of the incremental transcript.
//
// The writes are independent: a failure in one does not prevent the
// others, and all failures come back joined. Artifacts is non-nil
// whenever the session directory was created.
func (r *Recorder) Close() (*Artifacts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	r.closed = true
	stopErr := r.stopLocked()

	// A timed-out join leaves the capture goroutine mid-chunk with the
	// frame and chunk logs still in its hands. The artifacts are built
	// from those logs, so they must not be read until it exits.
	if r.done != nil {
		<-r.done
		stopErr = errors.Join(stopErr, r.loopErr)
		r.loopErr = nil
	}

	art, err := r.finalizeLocked()
	return art, errors.Join(stopErr, err)
}

func (r *Recorder) finalizeLocked() (*Artifacts, error) {
	dir := filepath.Join(r.cfg.OutputRoot, "transcriptions_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create output dir: %w", err)
	}
	art := &Artifacts{
		Dir:         dir,
		Incremental: filepath.Join(dir, IncrementalFile),
		Full:        filepath.Join(dir, FullFile),
	}
	audio := r.audio.Bytes()
	var errs []error

	if len(audio) > 0 {
		art.Audio = filepath.Join(dir, AudioFile)
		if err := writeWAV(art.Audio, r.format, audio); err != nil {
			errs = append(errs, fmt.Errorf("session: write audio: %w", err))
		}
	}

	var inc strings.Builder
	for _, ev := range r.chunks {
		inc.WriteString(ev.Text)
		inc.WriteByte('\n')
	}
	if err := os.WriteFile(art.Incremental, []byte(inc.String()), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("session: write incremental transcript: %w", err))
	}

	// The final pass re-transcribes the whole session in one call, so
	// the engine sees cross-chunk context the incremental pass could
	// not. Skipped for empty sessions; the file is written regardless.
	var full string
	if len(audio) > 0 {
		segments, err := r.cfg.Engine.Transcribe(context.Background(), audio, r.transcribeOpts())
		if err != nil {
			errs = append(errs, fmt.Errorf("session: final transcription: %w", err))
		} else {
			full = strings.TrimSpace(transcribe.Join(segments))
		}
	}
	art.FullText = full
	if err := os.WriteFile(art.Full, []byte(full), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("session: write full transcript: %w", err))
	}

	slog.Info("session: closed",
		"dir", dir, "chunks", len(r.chunks),
		"audio", r.format.Duration(int64(len(audio))), "errors", len(errs))
	return art, errors.Join(errs...)
}

func writeWAV(path string, f pcm.Format, data []byte) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wav.Encode(w, f.DataChunk(data)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

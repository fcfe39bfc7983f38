package session_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/sabaimran/vox-locus/pkg/audio/capture"
	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
	"github.com/sabaimran/vox-locus/pkg/audio/wav"
	"github.com/sabaimran/vox-locus/pkg/session"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

var sessionDirPattern = regexp.MustCompile(`^transcriptions_\d{8}_\d{6}$`)

func TestCloseWritesArtifacts(t *testing.T) {
	frames := frameRun(10)
	src := newFakeSource(frames)
	eng := &stubEngine{texts: []string{"hello", "world", "end", " the full story "}}
	root := t.TempDir()

	rec, err := session.New(session.Config{
		OpenSource:    func() (capture.Source, error) { return src, nil },
		Engine:        eng,
		ChunkDuration: time.Millisecond,
		JoinTimeout:   50 * time.Millisecond,
		OutputRoot:    root,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.awaitDrained(t)
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	art, err := rec.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if art == nil {
		t.Fatal("Close returned nil Artifacts")
	}
	if dir := filepath.Base(art.Dir); !sessionDirPattern.MatchString(dir) {
		t.Errorf("session dir = %q, want transcriptions_<YYYYMMDD_HHMMSS>", dir)
	}

	// The WAV round-trips to the exact capture bytes.
	raw, err := os.ReadFile(art.Audio)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	format, data, err := wav.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode audio: %v", err)
	}
	if format != pcm.L16Mono16K {
		t.Errorf("audio format = %v, want %v", format, pcm.L16Mono16K)
	}
	if !bytes.Equal(data, frameBytes(frames)) {
		t.Errorf("audio payload differs from captured frames: %d bytes, want %d", len(data), len(frameBytes(frames)))
	}

	// One incremental line per chunk, in order.
	inc, err := os.ReadFile(art.Incremental)
	if err != nil {
		t.Fatalf("read incremental: %v", err)
	}
	if got, want := string(inc), "hello\nworld\nend\n"; got != want {
		t.Errorf("incremental = %q, want %q", got, want)
	}

	// The final pass is one whole-session call, trimmed on disk.
	full, err := os.ReadFile(art.Full)
	if err != nil {
		t.Fatalf("read full: %v", err)
	}
	if got, want := string(full), "the full story"; got != want {
		t.Errorf("full = %q, want %q", got, want)
	}
	if art.FullText != "the full story" {
		t.Errorf("FullText = %q, want %q", art.FullText, "the full story")
	}
	if n := eng.callCount(); n != 4 {
		t.Fatalf("engine calls = %d, want 3 chunks + 1 full pass", n)
	}
	if !bytes.Equal(eng.calls[3], frameBytes(frames)) {
		t.Errorf("full pass did not receive the whole session audio")
	}
}

func TestCloseStopsRecordingFirst(t *testing.T) {
	src := newFakeSource(frameRun(4))
	src.loop = true
	eng := &stubEngine{}
	rec := newTestRecorder(t, src, eng)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	art, err := rec.Close()
	if err != nil {
		t.Fatalf("Close while recording: %v", err)
	}
	if rec.Recording() {
		t.Fatal("still recording after Close")
	}
	if src.closeCalls != 1 {
		t.Errorf("source closed %d times, want 1", src.closeCalls)
	}
	if art.Audio == "" {
		t.Error("no audio artifact for a non-empty session")
	}
}

func TestCloseZeroFrames(t *testing.T) {
	src := newFakeSource(nil)
	eng := &stubEngine{}
	rec := newTestRecorder(t, src, eng)

	art, err := rec.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if art.Audio != "" {
		t.Errorf("Audio = %q, want empty for a zero-frame session", art.Audio)
	}
	if _, err := os.Stat(filepath.Join(art.Dir, session.AudioFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("WAV file written for a zero-frame session")
	}
	for _, path := range []string{art.Incremental, art.Full} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", filepath.Base(path), err)
		}
		if len(data) != 0 {
			t.Errorf("%s = %q, want empty", filepath.Base(path), data)
		}
	}
	if n := eng.callCount(); n != 0 {
		t.Errorf("engine called %d times for a zero-frame session", n)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	src := newFakeSource(nil)
	rec := newTestRecorder(t, src, &stubEngine{})

	if _, err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := rec.Close(); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("second Close = %v, want ErrClosed", err)
	}
	if err := rec.Start(); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("Start after Close = %v, want ErrClosed", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop after Close = %v, want nil", err)
	}
}

func TestCloseKeepsBlankChunkLines(t *testing.T) {
	// Silence in the middle chunk must keep its line, or chunk
	// indexes and lines drift apart.
	src := newFakeSource(frameRun(12))
	eng := &stubEngine{texts: []string{"hello", "", "end"}}
	rec := newTestRecorder(t, src, eng)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.awaitDrained(t)
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	art, err := rec.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	inc, err := os.ReadFile(art.Incremental)
	if err != nil {
		t.Fatalf("read incremental: %v", err)
	}
	if got, want := string(inc), "hello\n\nend\n"; got != want {
		t.Errorf("incremental = %q, want %q", got, want)
	}
	if got := len(rec.Chunks()); got != 3 {
		t.Errorf("chunks = %d, want 3", got)
	}
}

// gatedEngine blocks every Transcribe until the gate opens, then
// answers like stubEngine. entered closes on the first call.
type gatedEngine struct {
	stubEngine
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (e *gatedEngine) Transcribe(ctx context.Context, audio []byte, opts transcribe.Options) ([]transcribe.Segment, error) {
	e.once.Do(func() { close(e.entered) })
	<-e.gate
	return e.stubEngine.Transcribe(ctx, audio, opts)
}

func TestCloseWaitsOutSlowChunkTranscription(t *testing.T) {
	// The join timeout can expire while the last chunk is still inside
	// the engine. Close must keep waiting for the capture goroutine
	// before it reads the chunk log, or the chunk's audio lands in the
	// WAV with no matching line in the incremental transcript.
	src := newFakeSource(frameRun(4))
	eng := &gatedEngine{gate: make(chan struct{}), entered: make(chan struct{})}
	eng.texts = []string{"tail", "tail in full"}

	rec, err := session.New(session.Config{
		OpenSource:    func() (capture.Source, error) { return src, nil },
		Engine:        eng,
		ChunkDuration: time.Millisecond,
		JoinTimeout:   10 * time.Millisecond,
		OutputRoot:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-eng.entered:
	case <-time.After(time.Second):
		t.Fatal("chunk never reached the engine")
	}

	type closeResult struct {
		art *session.Artifacts
		err error
	}
	done := make(chan closeResult, 1)
	go func() {
		art, err := rec.Close()
		done <- closeResult{art, err}
	}()

	// Both bounded joins expire while the engine holds the chunk.
	// Close must still be blocked, not reading the logs.
	select {
	case <-done:
		t.Fatal("Close returned while the chunk transcription was in flight")
	case <-time.After(100 * time.Millisecond):
	}
	close(eng.gate)

	var res closeResult
	select {
	case res = <-done:
	case <-time.After(time.Second):
		t.Fatal("Close never returned after the engine came back")
	}
	if !errors.Is(res.err, session.ErrStopTimeout) {
		t.Fatalf("Close = %v, want wrapped ErrStopTimeout", res.err)
	}
	if res.art == nil {
		t.Fatal("Close returned nil Artifacts")
	}
	inc, err := os.ReadFile(res.art.Incremental)
	if err != nil {
		t.Fatalf("read incremental: %v", err)
	}
	if got, want := string(inc), "tail\n"; got != want {
		t.Errorf("incremental = %q, want %q", got, want)
	}
	if res.art.FullText != "tail in full" {
		t.Errorf("FullText = %q, want %q", res.art.FullText, "tail in full")
	}
}

func TestCloseFullPassFailure(t *testing.T) {
	src := newFakeSource(frameRun(4))
	eng := &stubEngine{
		texts: []string{"only chunk"},
		errs:  map[int]error{1: errors.New("model gone")},
	}
	rec := newTestRecorder(t, src, eng)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.awaitDrained(t)
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	art, err := rec.Close()
	if err == nil {
		t.Fatal("Close should surface the final transcription failure")
	}
	if art == nil {
		t.Fatal("Artifacts should survive a final-pass failure")
	}

	// The independent artifacts were still written.
	if _, statErr := os.Stat(art.Audio); statErr != nil {
		t.Errorf("audio artifact missing: %v", statErr)
	}
	inc, readErr := os.ReadFile(art.Incremental)
	if readErr != nil {
		t.Fatalf("read incremental: %v", readErr)
	}
	if got, want := string(inc), "only chunk\n"; got != want {
		t.Errorf("incremental = %q, want %q", got, want)
	}
	full, readErr := os.ReadFile(art.Full)
	if readErr != nil {
		t.Fatalf("read full: %v", readErr)
	}
	if len(full) != 0 {
		t.Errorf("full = %q, want empty after failed final pass", full)
	}
}

// Package session drives live transcription sessions. A Recorder
// owns one capture goroutine that fills fixed-duration chunks from an
// audio source and hands each chunk to a transcription engine on the
// same goroutine — capture and transcription are deliberately
// serialized, so transcribing chunk i delays capturing chunk i+1.
// The full session audio accumulates alongside and is re-transcribed
// in one pass when the session closes, trading one extra inference
// for a final transcript with cross-chunk context.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabaimran/vox-locus/pkg/audio/capture"
	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/transcribe"
)

const (
	// DefaultChunkDuration is how much audio a chunk spans.
	DefaultChunkDuration = 5 * time.Second
	// DefaultJoinTimeout bounds how long Stop waits for the capture
	// goroutine before forcing the device closed.
	DefaultJoinTimeout = time.Second
)

var (
	// ErrAlreadyRecording is returned by Start while a capture
	// goroutine is running.
	ErrAlreadyRecording = errors.New("session: already recording")
	// ErrClosed is returned once Close has run.
	ErrClosed = errors.New("session: closed")
	// ErrStopTimeout is returned when the capture goroutine does not
	// exit within the join timeout.
	ErrStopTimeout = errors.New("session: capture loop did not stop in time")
)

// Capture states. The capture goroutine polls the state at every
// frame boundary, so a stop request interrupts mid-chunk within one
// frame's worth of latency.
const (
	stateIdle int32 = iota
	stateRecording
	stateStopping
)

// Config assembles a Recorder.
type Config struct {
	// OpenSource opens the audio source. Called by Start; the source
	// is closed by Stop.
	OpenSource func() (capture.Source, error)
	// Engine transcribes chunks and the final full pass. The Recorder
	// does not close it.
	Engine transcribe.Engine
	// ChunkDuration is how much audio accumulates before a chunk is
	// transcribed. Zero means DefaultChunkDuration.
	ChunkDuration time.Duration
	// JoinTimeout bounds Stop's wait for the capture goroutine. Zero
	// means DefaultJoinTimeout.
	JoinTimeout time.Duration
	// OutputRoot is where Close creates the session directory. Empty
	// means the working directory.
	OutputRoot string
	// Language and BeamSize pass through to every Transcribe call.
	Language string
	BeamSize int
	// OnChunk, when set, is called from the capture goroutine after
	// every completed chunk, including silent and failed ones (their
	// Text is empty). It must not call back into the Recorder.
	OnChunk func(ChunkEvent)
}

// ChunkEvent reports one completed chunk.
type ChunkEvent struct {
	Index    int                  `json:"index"`
	Frames   int                  `json:"frames"`
	Partial  bool                 `json:"partial,omitempty"`
	Elapsed  jsontime.Duration    `json:"elapsed"`
	Text     string               `json:"text"`
	Segments []transcribe.Segment `json:"segments,omitempty"`
}

// Recorder is the single owning object of a session: device handle,
// frame log, chunk transcriptions. Start/Stop/Close may be called
// from any goroutine; the frame and chunk logs are appended only by
// the capture goroutine and must be read only after Stop has joined
// it.
type Recorder struct {
	cfg Config

	mu     sync.Mutex // serializes Start, Stop and Close
	closed bool
	src    capture.Source
	done   chan struct{}

	state atomic.Int32

	// Written by the capture goroutine, read after join.
	started time.Time
	format  pcm.Format
	audio   bytes.Buffer
	chunks  []ChunkEvent
	frames  int64
	loopErr error
}

// New validates cfg and builds an idle Recorder.
func New(cfg Config) (*Recorder, error) {
	if cfg.OpenSource == nil {
		return nil, errors.New("session: config needs an OpenSource")
	}
	if cfg.Engine == nil {
		return nil, errors.New("session: config needs an Engine")
	}
	if cfg.ChunkDuration < 0 {
		return nil, fmt.Errorf("session: negative chunk duration %v", cfg.ChunkDuration)
	}
	if cfg.ChunkDuration == 0 {
		cfg.ChunkDuration = DefaultChunkDuration
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = "."
	}
	return &Recorder{cfg: cfg}, nil
}

// Start opens the audio source and spawns the capture goroutine.
// Only an idle Recorder starts; a second Start while recording
// returns ErrAlreadyRecording. A failure to open the source leaves
// the Recorder idle with no goroutine running.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.state.Load() != stateIdle {
		return ErrAlreadyRecording
	}

	src, err := r.cfg.OpenSource()
	if err != nil {
		return fmt.Errorf("session: open source: %w", err)
	}
	target := src.Format().FramesInDuration(r.cfg.ChunkDuration, src.FrameSize())
	if target < 1 {
		src.Close()
		return fmt.Errorf("session: chunk duration %v is shorter than one %d-sample frame",
			r.cfg.ChunkDuration, src.FrameSize())
	}

	r.src = src
	r.format = src.Format()
	if r.started.IsZero() {
		r.started = time.Now()
	}
	r.done = make(chan struct{})
	r.state.Store(stateRecording)
	go r.captureLoop(src, target)

	slog.Info("session: recording started",
		"format", src.Format(), "frameSize", src.FrameSize(),
		"chunk", r.cfg.ChunkDuration, "framesPerChunk", target)
	return nil
}

// Stop signals the capture goroutine, joins it with a bounded
// timeout, and closes the audio source. Calling Stop before Start or
// twice in a row is a no-op: the source is closed exactly once per
// Start. When the join times out the source is closed anyway to
// unblock a wedged read, and one more bounded wait is given before
// ErrStopTimeout is returned.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if r.state.Load() != stateRecording {
		return nil
	}
	r.state.Store(stateStopping)

	var joinErr error
	select {
	case <-r.done:
	case <-time.After(r.cfg.JoinTimeout):
		joinErr = ErrStopTimeout
	}

	closeErr := r.src.Close()

	if joinErr != nil {
		// Closing the device fails the read the loop was blocked on;
		// the loop treats that as a release signal and exits.
		select {
		case <-r.done:
			joinErr = nil
		case <-time.After(r.cfg.JoinTimeout):
			slog.Error("session: capture loop still running after device close")
		}
	}

	var loopErr error
	if joinErr == nil {
		loopErr, r.loopErr = r.loopErr, nil
	}
	r.state.Store(stateIdle)

	slog.Info("session: recording stopped",
		"frames", r.frames, "chunks", len(r.chunks), "audio", r.format.Duration(int64(r.audio.Len())))
	return errors.Join(joinErr, closeErr, loopErr)
}

// captureLoop fills chunks frame by frame, re-checking the state at
// every frame boundary, and completes each chunk — full, or partial
// when stopped mid-chunk — before exiting.
func (r *Recorder) captureLoop(src capture.Source, target int) {
	defer close(r.done)

	frame := make([]int16, src.FrameSize())
	buf := newChunkBuffer(src.FrameSize(), target)

	for r.state.Load() == stateRecording {
		for !buf.full() && r.state.Load() == stateRecording {
			n, err := src.Read(frame)
			if err != nil {
				if r.state.Load() == stateRecording {
					slog.Error("session: frame read failed", "error", err)
					r.loopErr = fmt.Errorf("session: frame read: %w", err)
				} else {
					// The controlling thread released the device while
					// the read was in flight. Expected during stop.
					slog.Debug("session: device released during read", "error", err)
				}
				r.completeChunk(buf)
				return
			}
			buf.add(frame[:n])
		}
		r.completeChunk(buf)
	}
}

// completeChunk appends the buffered frames to the session log and
// transcribes them when the chunk is non-empty. A transcription
// failure records an empty text so chunk alignment survives, and the
// session keeps going.
func (r *Recorder) completeChunk(buf *chunkBuffer) {
	data, frames := buf.drain()
	if frames == 0 {
		return
	}
	r.audio.Write(data)
	r.frames += int64(frames)

	ev := ChunkEvent{
		Index:   len(r.chunks),
		Frames:  frames,
		Partial: frames < buf.target,
		Elapsed: jsontime.Duration(time.Since(r.started)),
	}
	segments, err := r.cfg.Engine.Transcribe(context.Background(), data, r.transcribeOpts())
	if err != nil {
		slog.Error("session: chunk transcription failed", "chunk", ev.Index, "error", err)
	} else {
		ev.Segments = segments
		ev.Text = transcribe.Join(segments)
	}
	r.chunks = append(r.chunks, ev)

	slog.Debug("session: chunk completed",
		"chunk", ev.Index, "frames", ev.Frames, "partial", ev.Partial, "chars", len(ev.Text))
	if r.cfg.OnChunk != nil {
		r.cfg.OnChunk(ev)
	}
}

func (r *Recorder) transcribeOpts() transcribe.Options {
	return transcribe.Options{
		Format:   r.format,
		Language: r.cfg.Language,
		BeamSize: r.cfg.BeamSize,
	}
}

// Recording reports whether the capture goroutine is running.
func (r *Recorder) Recording() bool {
	return r.state.Load() == stateRecording
}

// StartedAt returns when the first Start happened, zero before that.
func (r *Recorder) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Format returns the capture format of the session.
func (r *Recorder) Format() pcm.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

// TotalFrames returns the number of frames captured so far. Valid
// only while not recording.
func (r *Recorder) TotalFrames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Duration returns the captured audio duration. Valid only while not
// recording.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format.Duration(int64(r.audio.Len()))
}

// Audio returns the accumulated session audio as raw PCM bytes. Valid
// only while not recording; the slice aliases internal state and must
// not be mutated.
func (r *Recorder) Audio() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audio.Bytes()
}

// Chunks returns the completed chunks in order. Valid only while not
// recording.
func (r *Recorder) Chunks() []ChunkEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChunkEvent, len(r.chunks))
	copy(out, r.chunks)
	return out
}

// chunkBuffer accumulates raw frame bytes until a chunk's worth of
// frames has been collected. Owned by the capture goroutine.
type chunkBuffer struct {
	frameSize int // samples per frame
	target    int // frames per full chunk
	data      []byte
	count     int
}

func newChunkBuffer(frameSize, target int) *chunkBuffer {
	return &chunkBuffer{
		frameSize: frameSize,
		target:    target,
		data:      make([]byte, 0, target*frameSize*2),
	}
}

func (b *chunkBuffer) add(frame []int16) {
	b.data = pcm.Int16ToBytes(b.data, frame)
	b.count++
}

func (b *chunkBuffer) full() bool { return b.count >= b.target }

// drain returns the accumulated bytes and frame count and resets the
// chunk. The returned slice is valid until the next add.
func (b *chunkBuffer) drain() ([]byte, int) {
	data, count := b.data, b.count
	b.data = b.data[:0]
	b.count = 0
	return data, count
}

// Package transcribe converts PCM audio into text. An Engine takes a
// buffer of raw audio and returns recognized speech as ordered
// segments; engines are addressed by id ("whisper/base",
// "openai/whisper-1", "gemini/gemini-2.0-flash") and constructed
// through a Mux so backends stay pluggable.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
)

// DefaultBeamSize is the decode beam width used when none is set.
const DefaultBeamSize = 5

var (
	// ErrEngineNotFound is returned by Open when no opener matches the
	// engine id.
	ErrEngineNotFound = errors.New("transcribe: engine not found")
	// ErrModelNotFound is returned when a local model file is missing.
	ErrModelNotFound = errors.New("transcribe: model not found")
	// ErrClosed is returned when using an engine after Close.
	ErrClosed = errors.New("transcribe: engine closed")
)

// ModelSize enumerates the Whisper model family.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelBase   ModelSize = "base"
	ModelSmall  ModelSize = "small"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"
)

// ModelSizes lists the valid sizes smallest-first.
func ModelSizes() []ModelSize {
	return []ModelSize{ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge}
}

// ParseModelSize validates s as a model size.
func ParseModelSize(s string) (ModelSize, error) {
	switch m := ModelSize(s); m {
	case ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge:
		return m, nil
	}
	return "", fmt.Errorf("transcribe: invalid model size %q (want tiny, base, small, medium or large)", s)
}

func (m ModelSize) String() string { return string(m) }

// Device selects where local inference runs. Hosted backends ignore
// it; the whisper backend treats gpu as a hint since GPU support is a
// build-time property of the bindings.
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

// ParseDevice validates s as a device selector.
func ParseDevice(s string) (Device, error) {
	switch d := Device(s); d {
	case DeviceCPU, DeviceGPU:
		return d, nil
	}
	return "", fmt.Errorf("transcribe: invalid device %q (want cpu or gpu)", s)
}

func (d Device) String() string { return string(d) }

// Segment is one recognized span of speech, timed relative to the
// start of the transcribed buffer.
type Segment struct {
	Start jsontime.Duration `json:"start"`
	End   jsontime.Duration `json:"end"`
	Text  string            `json:"text"`
}

// Join flattens segments into a single line: texts are trimmed,
// empties dropped, and the rest joined by single spaces. All-silent
// input yields "".
func Join(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Options shape a single Transcribe call. Zero values fall back to
// the engine's configuration.
type Options struct {
	// Format of the audio bytes. Zero means pcm.L16Mono16K.
	Format pcm.Format
	// Language hints the spoken language ("en", "de", ...). Empty
	// lets the engine detect it.
	Language string
	// BeamSize overrides the decode beam width for this call.
	BeamSize int
}

func (o Options) withDefaults() Options {
	if o.Format == 0 {
		o.Format = pcm.L16Mono16K
	}
	return o
}

// Engine turns audio into segments. Implementations are safe for use
// from one goroutine at a time.
type Engine interface {
	// Transcribe recognizes speech in audio, a buffer of raw PCM bytes
	// in opts.Format. Segments come back in temporal order; silent
	// audio yields an empty slice and no error.
	Transcribe(ctx context.Context, audio []byte, opts Options) ([]Segment, error)
	// Close releases the model or connection. Safe to call more than
	// once.
	Close() error
}

// Config carries construction parameters for Open. Backends read the
// fields they understand and ignore the rest.
type Config struct {
	// Models is the directory local model files live in. Empty means
	// the working directory.
	Models string
	// Device selects cpu or gpu for local inference. Empty means cpu.
	Device Device
	// Language is the default language hint for all calls.
	Language string
	// BeamSize is the default decode beam width. Zero means
	// DefaultBeamSize.
	BeamSize int
	// Threads caps decode threads for local backends. Zero lets the
	// backend decide.
	Threads int
	// APIKey authenticates hosted backends.
	APIKey string
	// BaseURL overrides the hosted backend endpoint.
	BaseURL string
}

func (c Config) beamSize() int {
	if c.BeamSize > 0 {
		return c.BeamSize
	}
	return DefaultBeamSize
}

func (c Config) device() (Device, error) {
	if c.Device == "" {
		return DeviceCPU, nil
	}
	return ParseDevice(string(c.Device))
}

// SplitID splits an engine id into backend and model: "whisper/base"
// yields ("whisper", "base"). An id without a slash is all backend.
func SplitID(id string) (backend, model string) {
	if i := strings.IndexByte(id, '/'); i >= 0 {
		return id[:i], id[i+1:]
	}
	return id, ""
}

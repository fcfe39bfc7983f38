// Package capture acquires live PCM audio behind a single Source
// interface. Sources deliver fixed-size frames of 16-bit samples and
// block until a full frame is available: a microphone backed by
// PortAudio, or an RTP listener fed by a network peer.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
)

var (
	// ErrNoDevice is returned when no usable input device exists or
	// the requested one cannot be opened.
	ErrNoDevice = errors.New("capture: no input device")
	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("capture: source closed")
)

// DefaultFrameSize is the number of samples delivered per Read.
const DefaultFrameSize = 1024

// Source is a blocking producer of fixed-size PCM frames.
type Source interface {
	// Format reports the PCM format frames are delivered in.
	Format() pcm.Format
	// FrameSize reports the number of samples per frame.
	FrameSize() int
	// Read blocks until a full frame is available and copies it into
	// buf. It returns the number of samples copied. Host-side overflow
	// is absorbed, not surfaced.
	Read(buf []int16) (int, error)
	// Close releases the device. Safe to call more than once; reads
	// after Close return ErrClosed.
	Close() error
}

// Config selects the device and frame geometry for Open.
type Config struct {
	// Format of the captured audio. Zero means pcm.L16Mono16K.
	Format pcm.Format
	// FrameSize is the number of samples per Read. Zero means
	// DefaultFrameSize.
	FrameSize int
	// Device selects an input by case-insensitive name substring.
	// Empty selects the system default input.
	Device string
}

func (c Config) withDefaults() Config {
	if c.Format == 0 {
		c.Format = pcm.L16Mono16K
	}
	if c.FrameSize <= 0 {
		c.FrameSize = DefaultFrameSize
	}
	return c
}

// MicSource captures from a PortAudio input device.
type MicSource struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16 // bound to the stream, one frame
	format pcm.Format
	frame  int
	name   string
	closed bool
}

// Open starts capturing from the input device named by cfg. The
// stream is running when Open returns.
func Open(cfg Config) (*MicSource, error) {
	cfg = cfg.withDefaults()
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize: %w", err)
	}
	buf := make([]int16, cfg.FrameSize)
	stream, name, err := openInput(cfg, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: start stream: %w", err)
	}
	slog.Debug("capture: mic open", "device", name, "format", cfg.Format, "frameSize", cfg.FrameSize)
	return &MicSource{
		stream: stream,
		buf:    buf,
		format: cfg.Format,
		frame:  cfg.FrameSize,
		name:   name,
	}, nil
}

func openInput(cfg Config, buf []int16) (*portaudio.Stream, string, error) {
	if cfg.Device == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		stream, err := portaudio.OpenDefaultStream(
			cfg.Format.Channels(), 0,
			float64(cfg.Format.SampleRate()), cfg.FrameSize, buf)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		return stream, dev.Name, nil
	}

	dev, err := findInput(cfg.Device)
	if err != nil {
		return nil, "", err
	}
	p := portaudio.LowLatencyParameters(dev, nil)
	p.Input.Channels = cfg.Format.Channels()
	p.SampleRate = float64(cfg.Format.SampleRate())
	p.FramesPerBuffer = cfg.FrameSize
	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return stream, dev.Name, nil
}

func findInput(name string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: list devices: %w", err)
	}
	want := strings.ToLower(name)
	for _, dev := range devs {
		if dev.MaxInputChannels > 0 && strings.Contains(strings.ToLower(dev.Name), want) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("%w: no input matches %q", ErrNoDevice, name)
}

// Format returns the PCM format.
func (s *MicSource) Format() pcm.Format { return s.format }

// FrameSize returns the number of samples per frame.
func (s *MicSource) FrameSize() int { return s.frame }

// Name returns the device name reported by the host.
func (s *MicSource) Name() string { return s.name }

// Read blocks until the device has produced one full frame and copies
// it into buf. Input overflow means the host dropped samples between
// reads; the frame itself is intact, so it is logged and absorbed.
func (s *MicSource) Read(buf []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return 0, fmt.Errorf("capture: read: %w", err)
		}
		slog.Debug("capture: input overflow", "device", s.name)
	}
	return copy(buf, s.buf), nil
}

// Close stops the stream and releases the device. The second and
// later calls are no-ops.
func (s *MicSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	if err != nil {
		return fmt.Errorf("capture: close: %w", err)
	}
	slog.Debug("capture: mic closed", "device", s.name)
	return nil
}

// Device describes an input-capable audio device.
type Device struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sample_rate"`
	Default    bool    `json:"default,omitempty"`
}

// Devices lists input-capable devices known to the host.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []Device
	for i, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Index:      i,
			Name:       info.Name,
			Channels:   info.MaxInputChannels,
			SampleRate: info.DefaultSampleRate,
			Default:    def != nil && info.Name == def.Name,
		})
	}
	return out, nil
}

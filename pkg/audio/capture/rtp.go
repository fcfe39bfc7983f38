package capture

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
)

// RTPConfig selects the listen address and frame geometry for
// ListenRTP.
type RTPConfig struct {
	// Addr is the UDP address to listen on, e.g. ":5004".
	Addr string
	// Format of the incoming audio. Zero means pcm.L16Mono16K.
	// Payloads are raw L16 in network byte order (RFC 3551).
	Format pcm.Format
	// FrameSize is the number of samples per Read. Zero means
	// DefaultFrameSize.
	FrameSize int
	// Queue is the number of assembled frames buffered between the
	// network and Read. Zero means 64. When full, new frames are
	// dropped.
	Queue int
}

// RTPSource assembles fixed-size frames from an RTP stream carrying
// uncompressed L16 audio. It locks onto the SSRC of the first packet
// and ignores others.
type RTPSource struct {
	conn   net.PacketConn
	format pcm.Format
	frame  int

	frames  chan []int16
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64

	ssrc   uint32
	seq    uint16
	locked bool
}

// ListenRTP opens a UDP listener and starts assembling frames. The
// returned source reads frames in arrival order; gaps in the sequence
// are logged, not concealed.
func ListenRTP(cfg RTPConfig) (*RTPSource, error) {
	if cfg.Format == 0 {
		cfg.Format = pcm.L16Mono16K
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = DefaultFrameSize
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 64
	}
	conn, err := net.ListenPacket("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("capture: listen rtp: %w", err)
	}
	s := &RTPSource{
		conn:   conn,
		format: cfg.Format,
		frame:  cfg.FrameSize,
		frames: make(chan []int16, cfg.Queue),
		done:   make(chan struct{}),
	}
	go s.receiveLoop()
	slog.Debug("capture: rtp listening", "addr", conn.LocalAddr(), "format", cfg.Format, "frameSize", cfg.FrameSize)
	return s, nil
}

// Addr returns the bound listen address.
func (s *RTPSource) Addr() net.Addr { return s.conn.LocalAddr() }

// Format returns the PCM format.
func (s *RTPSource) Format() pcm.Format { return s.format }

// FrameSize returns the number of samples per frame.
func (s *RTPSource) FrameSize() int { return s.frame }

// Dropped returns the number of frames discarded because Read was not
// keeping up.
func (s *RTPSource) Dropped() uint64 { return s.dropped.Load() }

func (s *RTPSource) receiveLoop() {
	defer close(s.frames)

	buf := make([]byte, 2048)
	pending := make([]int16, 0, s.frame*2)
	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.done:
			default:
				slog.Debug("capture: rtp read failed", "error", err)
			}
			return
		}
		p := &rtp.Packet{}
		if err := p.Unmarshal(buf[:n]); err != nil {
			slog.Debug("capture: bad rtp packet", "error", err)
			continue
		}
		if !s.locked {
			s.locked = true
			s.ssrc = p.SSRC
			s.seq = p.SequenceNumber
			slog.Debug("capture: rtp locked", "ssrc", p.SSRC)
		} else {
			if p.SSRC != s.ssrc {
				continue
			}
			if want := s.seq + 1; p.SequenceNumber != want {
				slog.Debug("capture: rtp sequence gap", "want", want, "got", p.SequenceNumber)
			}
			s.seq = p.SequenceNumber
		}

		pending = appendL16(pending, p.Payload)
		for len(pending) >= s.frame {
			frame := make([]int16, s.frame)
			copy(frame, pending[:s.frame])
			pending = pending[:copy(pending, pending[s.frame:])]
			select {
			case s.frames <- frame:
			default:
				s.dropped.Add(1)
			}
		}
	}
}

// appendL16 decodes big-endian 16-bit samples from payload onto dst.
// A trailing odd byte is ignored.
func appendL16(dst []int16, payload []byte) []int16 {
	for len(payload) >= 2 {
		dst = append(dst, int16(binary.BigEndian.Uint16(payload)))
		payload = payload[2:]
	}
	return dst
}

// Read blocks until a full frame has been assembled and copies it
// into buf. It returns ErrClosed once the source is closed and the
// queue is drained.
func (s *RTPSource) Read(buf []int16) (int, error) {
	frame, ok := <-s.frames
	if !ok {
		return 0, ErrClosed
	}
	return copy(buf, frame), nil
}

// Close stops the listener. Frames already assembled remain readable
// until the queue drains. Safe to call more than once.
func (s *RTPSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
		if dropped := s.dropped.Load(); dropped > 0 {
			slog.Debug("capture: rtp closed", "dropped", dropped)
		}
	})
	if err != nil {
		return fmt.Errorf("capture: close rtp: %w", err)
	}
	return nil
}

package capture

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
)

func l16Payload(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.BigEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func sendRTP(t *testing.T, conn net.Conn, seq uint16, ssrc uint32, samples []int16) {
	t.Helper()
	p := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: seq,
			Timestamp:      uint32(seq) * 1024,
			SSRC:           ssrc,
		},
		Payload: l16Payload(samples),
	}
	b, err := p.Marshal()
	if err != nil {
		t.Fatalf("marshal rtp: %v", err)
	}
	if _, err := conn.Write(b); err != nil {
		t.Fatalf("send rtp: %v", err)
	}
}

func readFrame(t *testing.T, s *RTPSource) []int16 {
	t.Helper()
	type result struct {
		buf []int16
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]int16, s.FrameSize())
		n, err := s.Read(buf)
		ch <- result{buf[:n], err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("Read: %v", r.err)
		}
		return r.buf
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return a frame")
		return nil
	}
}

func TestRTPSourceAssemblesFrames(t *testing.T) {
	s, err := ListenRTP(RTPConfig{Addr: "127.0.0.1:0", FrameSize: 8})
	if err != nil {
		t.Fatalf("ListenRTP: %v", err)
	}
	defer s.Close()

	conn, err := net.Dial("udp", s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Two half-frame packets assemble into one frame.
	sendRTP(t, conn, 1, 0xabc, []int16{1, 2, 3, 4})
	sendRTP(t, conn, 2, 0xabc, []int16{5, 6, 7, -8})

	got := readFrame(t, s)
	want := []int16{1, 2, 3, 4, 5, 6, 7, -8}
	if len(got) != len(want) {
		t.Fatalf("frame length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRTPSourceIgnoresForeignSSRC(t *testing.T) {
	s, err := ListenRTP(RTPConfig{Addr: "127.0.0.1:0", FrameSize: 4})
	if err != nil {
		t.Fatalf("ListenRTP: %v", err)
	}
	defer s.Close()

	conn, err := net.Dial("udp", s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sendRTP(t, conn, 1, 0xabc, []int16{1, 2})
	sendRTP(t, conn, 1, 0xdef, []int16{9, 9}) // foreign SSRC, dropped
	sendRTP(t, conn, 2, 0xabc, []int16{3, 4})

	got := readFrame(t, s)
	want := []int16{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRTPSourceCloseUnblocksRead(t *testing.T) {
	s, err := ListenRTP(RTPConfig{Addr: "127.0.0.1:0", FrameSize: 4})
	if err != nil {
		t.Fatalf("ListenRTP: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		buf := make([]int16, s.FrameSize())
		_, err := s.Read(buf)
		errCh <- err
	}()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Read after close = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not unblock on close")
	}

	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestAppendL16(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    []int16
	}{
		{"pair", []byte{0x00, 0x01, 0xff, 0xff}, []int16{1, -1}},
		{"odd_tail_ignored", []byte{0x7f, 0xff, 0x01}, []int16{32767}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendL16(nil, tt.payload)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Format != pcm.L16Mono16K {
		t.Errorf("Format = %v, want %v", cfg.Format, pcm.L16Mono16K)
	}
	if cfg.FrameSize != DefaultFrameSize {
		t.Errorf("FrameSize = %d, want %d", cfg.FrameSize, DefaultFrameSize)
	}
}

// Package wav encodes and decodes canonical RIFF/WAVE files carrying
// raw PCM audio. Only the 44-byte header form is supported: 16-bit
// little-endian mono PCM at a rate pcm knows about.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sabaimran/vox-locus/pkg/audio/pcm"
)

var (
	// ErrMalformed is returned when the input is not a RIFF/WAVE file
	// or the data chunk is truncated.
	ErrMalformed = errors.New("wav: malformed file")
	// ErrUnsupported is returned for encodings other than 16-bit mono
	// PCM at a supported sample rate.
	ErrUnsupported = errors.New("wav: unsupported encoding")
)

// header is the canonical 44-byte RIFF/WAVE header. Field order and
// widths mirror the on-disk layout so the whole struct round-trips
// through binary.Write/Read.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // raw data bytes
}

const headerSize = 44

// Encode writes c as a WAVE file to w: the canonical header sized for
// c.Len(), then the chunk streamed through its own WriteTo. A
// zero-length chunk is valid and yields a header-only file.
func Encode(w io.Writer, c pcm.Chunk) error {
	f := c.Format()
	size := c.Len()
	if size%int64(f.Depth()/8) != 0 {
		return fmt.Errorf("wav: pcm data not sample-aligned (%d bytes)", size)
	}
	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(headerSize - 8 + int(size)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(f.Channels()),
		SampleRate:    uint32(f.SampleRate()),
		ByteRate:      uint32(f.BytesRate()),
		BlockAlign:    uint16(f.Channels() * f.Depth() / 8),
		BitsPerSample: uint16(f.Depth()),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(size),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	if size == 0 {
		return nil
	}
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("wav: write data: %w", err)
	}
	return nil
}

// EncodeBytes encodes raw PCM bytes in format f into a fresh buffer.
func EncodeBytes(f pcm.Format, data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(data)))
	if err := Encode(buf, f.DataChunk(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a WAVE file from r and returns its format and raw PCM
// data. It accepts only what Encode produces: a canonical header with
// 16-bit mono PCM at a supported rate. Trailing bytes after the data
// chunk are ignored.
func Decode(r io.Reader) (pcm.Format, []byte, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return 0, nil, fmt.Errorf("%w: short header: %v", ErrMalformed, err)
	}
	switch {
	case string(h.ChunkID[:]) != "RIFF":
		return 0, nil, fmt.Errorf("%w: missing RIFF magic", ErrMalformed)
	case string(h.Format[:]) != "WAVE":
		return 0, nil, fmt.Errorf("%w: missing WAVE tag", ErrMalformed)
	case string(h.Subchunk1ID[:]) != "fmt ":
		return 0, nil, fmt.Errorf("%w: missing fmt chunk", ErrMalformed)
	case string(h.Subchunk2ID[:]) != "data":
		return 0, nil, fmt.Errorf("%w: missing data chunk", ErrMalformed)
	}
	switch {
	case h.Subchunk1Size != 16 || h.AudioFormat != 1:
		return 0, nil, fmt.Errorf("%w: audio format %d", ErrUnsupported, h.AudioFormat)
	case h.BitsPerSample != 16:
		return 0, nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupported, h.BitsPerSample)
	case h.NumChannels != 1:
		return 0, nil, fmt.Errorf("%w: %d channels", ErrUnsupported, h.NumChannels)
	}
	f, ok := pcm.FormatForRate(int(h.SampleRate))
	if !ok {
		return 0, nil, fmt.Errorf("%w: sample rate %d", ErrUnsupported, h.SampleRate)
	}
	if h.Subchunk2Size%2 != 0 {
		return 0, nil, fmt.Errorf("%w: odd data size %d", ErrMalformed, h.Subchunk2Size)
	}
	data := make([]byte, h.Subchunk2Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, fmt.Errorf("%w: truncated data chunk: %v", ErrMalformed, err)
	}
	return f, data, nil
}

// Package pcm provides types and utilities for working with PCM (Pulse Code Modulation) audio data.
//
// The package defines audio formats for common configurations (16-bit mono at various sample rates)
// and the sample/byte/frame arithmetic the capture and transcription pipeline is built on.
//
// Key types:
//   - Format: Represents audio format (sample rate, channels, bit depth)
//   - Chunk: Interface for audio data chunks
//   - DataChunk: Concrete implementation of Chunk for raw audio data
//
// Example usage:
//
//	// The capture format: 16kHz mono
//	format := pcm.L16Mono16K
//
//	// Whole 1024-sample frames in a 5s chunk (78)
//	frames := format.FramesInDuration(5*time.Second, 1024)
//
//	// Bytes needed for 20ms of audio
//	bytes := format.BytesInDuration(20 * time.Millisecond)
package pcm

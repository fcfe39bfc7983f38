// Package audio groups the audio-handling sub-packages:
//
//   - pcm: raw PCM format handling (rates, frames, durations)
//   - wav: canonical-header WAV encoding and decoding
//   - capture: live audio sources (PortAudio microphone, RTP listener)
package audio

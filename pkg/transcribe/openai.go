package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sabaimran/vox-locus/pkg/audio/wav"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
)

func init() {
	mustRegister("openai/#", OpenerFunc(openOpenAI))
}

// openaiRetries is how many times a failed request is retried before
// the error is surfaced. Only rate limits and server errors retry.
const openaiRetries = 2

// openaiEngine sends audio to the OpenAI transcription endpoint. The
// API returns plain text without timings, so results come back as a
// single segment spanning the buffer.
type openaiEngine struct {
	mu     sync.Mutex
	client *openai.Client
	model  openai.AudioModel
	cfg    Config
	closed bool
}

func openOpenAI(ctx context.Context, id string, cfg Config) (Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("transcribe: openai backend needs an api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	_, name := SplitID(id)
	model := openai.AudioModelWhisper1
	if name != "" {
		model = openai.AudioModel(name)
	}
	if cfg.Device == DeviceGPU {
		slog.Debug("transcribe: device selector has no effect on hosted backends")
	}
	return &openaiEngine{client: &client, model: model, cfg: cfg}, nil
}

// wavFile names an in-memory upload so the endpoint sees a .wav file.
type wavFile struct{ *bytes.Reader }

func (wavFile) Name() string { return "audio.wav" }

func (e *openaiEngine) Transcribe(ctx context.Context, audio []byte, opts Options) ([]Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	opts = opts.withDefaults()

	encoded, err := wav.EncodeBytes(opts.Format, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe: encode upload: %w", err)
	}
	params := openai.AudioTranscriptionNewParams{
		File:  wavFile{bytes.NewReader(encoded)},
		Model: e.model,
	}
	if lang := firstOf(opts.Language, e.cfg.Language); lang != "" {
		params.Language = openai.String(lang)
	}

	bo := gax.Backoff{
		Initial:    500 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2,
	}
	var resp *openai.Transcription
	for attempt := 0; ; attempt++ {
		resp, err = e.client.Audio.Transcriptions.New(ctx, params)
		if err == nil || attempt >= openaiRetries || !retryableOpenAI(err) {
			break
		}
		slog.Debug("transcribe: openai retry", "attempt", attempt+1, "error", err)
		params.File = wavFile{bytes.NewReader(encoded)}
		if serr := gax.Sleep(ctx, bo.Pause()); serr != nil {
			return nil, serr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("transcribe: openai transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, nil
	}
	return []Segment{{
		Start: 0,
		End:   jsontime.Duration(opts.Format.Duration(int64(len(audio)))),
		Text:  text,
	}}, nil
}

func retryableOpenAI(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}

func (e *openaiEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

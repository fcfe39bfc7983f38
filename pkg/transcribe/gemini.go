package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/sabaimran/vox-locus/pkg/audio/wav"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
)

func init() {
	mustRegister("gemini/#", OpenerFunc(openGemini))
}

// geminiPrompt asks for a verbatim transcript and nothing else; the
// model output is used as-is.
const geminiPrompt = "Transcribe this audio verbatim. Reply with the transcript only, no commentary. Reply with nothing if there is no speech."

// geminiEngine sends audio inline to the Gemini API. Like the openai
// backend it yields one untimed segment per call.
type geminiEngine struct {
	mu     sync.Mutex
	client *genai.Client
	model  string
	cfg    Config
	closed bool
}

func openGemini(ctx context.Context, id string, cfg Config) (Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("transcribe: gemini backend needs an api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("transcribe: gemini client: %w", err)
	}
	_, model := SplitID(id)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if cfg.Device == DeviceGPU {
		slog.Debug("transcribe: device selector has no effect on hosted backends")
	}
	return &geminiEngine{client: client, model: model, cfg: cfg}, nil
}

func (e *geminiEngine) Transcribe(ctx context.Context, audio []byte, opts Options) ([]Segment, error) {
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
	prompt := geminiPrompt
	if lang := firstOf(opts.Language, e.cfg.Language); lang != "" {
		prompt += " The speech is in " + lang + "."
	}
	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: encoded}},
	}
	resp, err := e.client.Models.GenerateContent(ctx, e.model, []*genai.Content{
		{Parts: parts, Role: "user"},
	}, nil)
	if err != nil {
		if ae, ok := err.(*apierror.APIError); ok {
			err = ae.Unwrap()
		}
		return nil, fmt.Errorf("transcribe: gemini generate: %w", err)
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, nil
	}
	return []Segment{{
		Start: 0,
		End:   jsontime.Duration(opts.Format.Duration(int64(len(audio)))),
		Text:  text,
	}}, nil
}

func (e *geminiEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

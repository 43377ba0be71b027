package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend calls a Google Gemini model directly through the genai SDK.
type GeminiBackend struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// NewGeminiBackend creates a backend for one Gemini model. Extra client options
// are appended after the API key.
func NewGeminiBackend(apiKey, model string, opts ...option.ClientOption) *GeminiBackend {
	return &GeminiBackend{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

// Name returns the model descriptor, prefixed so it is distinguishable from OpenRouter ids.
func (b *GeminiBackend) Name() string {
	return geminiPrefix + b.model
}

// Complete sends the prompt and image in a single GenerateContent call.
func (b *GeminiBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if b.apiKey == "" {
		return "", newError(KindUpstreamTransport, "Gemini API error: GEMINI_API_KEY is empty", nil)
	}

	opts := append([]option.ClientOption{option.WithAPIKey(b.apiKey)}, b.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", newError(KindUpstreamTransport, fmt.Sprintf("Gemini API error: %v", err), err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(b.model)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	debugLog("Gemini request: model=%s, prompt_len=%d, image_bytes=%d", b.model, len(req.Prompt), len(req.Image.Data))

	resp, err := m.GenerateContent(ctx,
		genai.Text(req.Prompt),
		&genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data},
	)
	return geminiResult(b.model, resp, err)
}

// geminiResult maps a GenerateContent outcome to answer text or a typed error.
// Safety blocks and empty candidate lists are protocol errors; anything else
// from the client is a transport error.
func geminiResult(model string, resp *genai.GenerateContentResponse, err error) (string, error) {
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", newError(KindUpstreamProtocol, fmt.Sprintf("Gemini API error: %v", err), err)
		}
		return "", newError(KindUpstreamTransport, fmt.Sprintf("Gemini API error: %v", err), err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", newError(KindUpstreamProtocol, "No candidates in Gemini API response", nil)
	}

	txt := geminiText(resp)
	debugLog("Gemini response: model=%s content=%s", model, preview(txt, 300))
	return txt, nil
}

// geminiText concatenates the text parts of the first candidate that has content.
func geminiText(resp *genai.GenerateContentResponse) string {
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

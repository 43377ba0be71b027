package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxUpstreamBody caps how much of an upstream response is read.
const maxUpstreamBody = 4 << 20

// OpenRouterBackend sends one chat completion request per attempt to an
// OpenAI-compatible /chat/completions endpoint.
type OpenRouterBackend struct {
	apiKey     string
	baseURL    string
	model      string
	referer    string
	title      string
	httpClient *http.Client
}

// OpenRouterOptions configures an OpenRouterBackend.
type OpenRouterOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
	// HTTPClient defaults to a client without a timeout; attempts are bounded by context.
	HTTPClient *http.Client
}

// chatRequest is the request body for the chat completions API
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the subset of the chat completions response we read.
// Choices is a pointer so a missing field can be told apart from an empty one in logs.
type chatResponse struct {
	Choices *[]struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error json.RawMessage `json:"error,omitempty"`
}

// NewOpenRouterBackend creates a backend for a single model.
func NewOpenRouterBackend(opts OpenRouterOptions) *OpenRouterBackend {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OpenRouterBackend{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		referer:    opts.Referer,
		title:      opts.Title,
		httpClient: client,
	}
}

// Name returns the OpenRouter model id.
func (b *OpenRouterBackend) Name() string {
	return b.model
}

// Complete sends the prompt and image to the model and returns the first choice's content.
func (b *OpenRouterBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := chatRequest{
		Model: b.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: req.Image.DataURI()}},
			},
		}},
		MaxTokens: req.MaxTokens,
	}

	reqJSON, err := json.Marshal(body)
	if err != nil {
		return "", newError(KindInternal, fmt.Sprintf("Failed to build OpenRouter request: %v", err), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(reqJSON))
	if err != nil {
		return "", newError(KindInternal, fmt.Sprintf("Failed to build OpenRouter request: %v", err), err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if b.referer != "" {
		httpReq.Header.Set("HTTP-Referer", b.referer)
	}
	if b.title != "" {
		httpReq.Header.Set("X-Title", b.title)
	}

	debugLog("OpenRouter request: model=%s, prompt_len=%d, image_bytes=%d", b.model, len(req.Prompt), len(req.Image.Data))

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", newError(KindUpstreamTransport, fmt.Sprintf("OpenRouter API error: request to %s timed out", b.model), err)
		}
		return "", newError(KindUpstreamTransport, fmt.Sprintf("OpenRouter API error: %v", err), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", newError(KindUpstreamTransport, fmt.Sprintf("OpenRouter API error: failed to read response: %v", err), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		debugLog("OpenRouter API error: model=%s status=%d body=%s", b.model, resp.StatusCode, preview(string(raw), 500))
		msg := fmt.Sprintf("OpenRouter API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		var errBody chatResponse
		if json.Unmarshal(raw, &errBody) == nil && len(errBody.Error) > 0 {
			msg += ": " + errorDetail(errBody.Error)
		}
		return "", newError(KindUpstreamTransport, msg, nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		debugLog("OpenRouter response parse error: %v, body: %s", err, preview(string(raw), 500))
		return "", newError(KindUpstreamProtocol, fmt.Sprintf("Failed to parse OpenRouter API response: %v", err), err)
	}

	if len(parsed.Error) > 0 && string(parsed.Error) != "null" {
		return "", newError(KindUpstreamProtocol, "OpenRouter API error: "+errorDetail(parsed.Error), nil)
	}

	if parsed.Choices == nil || len(*parsed.Choices) == 0 {
		return "", newError(KindUpstreamProtocol, "No 'choices' in OpenRouter API response", nil)
	}

	choice := (*parsed.Choices)[0]
	debugLog("OpenRouter response: model=%s finish_reason=%s content=%s",
		b.model, choice.FinishReason, preview(choice.Message.Content, 300))

	return choice.Message.Content, nil
}

// errorDetail renders an upstream error value. Objects with a message field
// show just the message; anything else is shown as raw JSON.
func errorDetail(raw json.RawMessage) string {
	var obj struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		if obj.Code != nil {
			return fmt.Sprintf("%v (code %v)", obj.Message, obj.Code)
		}
		return obj.Message
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

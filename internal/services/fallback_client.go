package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codyseavey/calculator/backend/internal/config"
	"github.com/codyseavey/calculator/backend/internal/metrics"
	"github.com/codyseavey/calculator/backend/internal/models"
)

const (
	geminiPrefix     = "gemini:"
	openRouterPrefix = "openrouter:"
)

// CompletionRequest is one prompt plus image sent to a single model.
type CompletionRequest struct {
	Prompt    string
	Image     PreparedImage
	MaxTokens int
}

// Backend is a single vision model that can answer a CompletionRequest.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// FallbackOptions controls image preparation and time limits.
type FallbackOptions struct {
	MaxTokens       int
	MaxDimension    int
	Quality         int
	AttemptTimeout  time.Duration
	RequestDeadline time.Duration
}

// FallbackClient tries each backend in order and returns the first usable answer.
type FallbackClient struct {
	backends []Backend
	opts     FallbackOptions
}

// NewFallbackClient creates a client over an ordered, non-empty backend list.
func NewFallbackClient(backends []Backend, opts FallbackOptions) (*FallbackClient, error) {
	if len(backends) == 0 {
		return nil, errors.New("at least one model backend is required")
	}
	return &FallbackClient{backends: backends, opts: opts}, nil
}

// NewFallbackClientFromConfig builds backends from cfg.FallbackModels.
func NewFallbackClientFromConfig(cfg *config.Config) (*FallbackClient, error) {
	backends := make([]Backend, 0, len(cfg.FallbackModels))
	for _, desc := range cfg.FallbackModels {
		b, err := BackendFromDescriptor(desc, cfg)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return NewFallbackClient(backends, FallbackOptions{
		MaxTokens:       cfg.MaxOutputTokens,
		MaxDimension:    cfg.MaxImageDimension,
		Quality:         cfg.ImageQuality,
		AttemptTimeout:  cfg.AttemptTimeout,
		RequestDeadline: cfg.RequestDeadline,
	})
}

// BackendFromDescriptor maps a model descriptor to a backend. "gemini:<model>"
// selects Gemini, "openrouter:<model>" selects OpenRouter explicitly, and any
// other value is an OpenRouter model id (which may itself contain a colon).
func BackendFromDescriptor(desc string, cfg *config.Config) (Backend, error) {
	desc = strings.TrimSpace(desc)
	lower := strings.ToLower(desc)

	switch {
	case strings.HasPrefix(lower, geminiPrefix):
		model := strings.TrimSpace(desc[len(geminiPrefix):])
		if model == "" {
			return nil, fmt.Errorf("model descriptor %q has no model name", desc)
		}
		return NewGeminiBackend(cfg.GeminiAPIKey, model), nil
	case strings.HasPrefix(lower, openRouterPrefix):
		desc = strings.TrimSpace(desc[len(openRouterPrefix):])
	}

	if desc == "" {
		return nil, errors.New("empty model descriptor")
	}
	return NewOpenRouterBackend(OpenRouterOptions{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   desc,
		Referer: cfg.AppReferer,
		Title:   cfg.AppTitle,
	}), nil
}

// Models returns the backend names in the order they are tried.
func (c *FallbackClient) Models() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Complete prepares the image once and asks each backend in turn. A failure on
// any backend but the last is logged and the next one is tried immediately;
// the last backend's error is returned as is.
func (c *FallbackClient) Complete(ctx context.Context, img *models.DecodedImage, prompt string) (string, error) {
	prepared, err := PrepareImage(img, c.opts.MaxDimension, c.opts.Quality)
	if err != nil {
		return "", err
	}
	debugLog("Prepared image: %dx%d %s, %d bytes", prepared.Width, prepared.Height, prepared.MIMEType, len(prepared.Data))

	if c.opts.RequestDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestDeadline)
		defer cancel()
	}

	req := CompletionRequest{Prompt: prompt, Image: prepared, MaxTokens: c.opts.MaxTokens}

	var lastErr error
	for i, b := range c.backends {
		if err := ctx.Err(); err != nil {
			infoLog("Giving up before model %s: %v", b.Name(), err)
			return "", newError(KindUpstreamTransport, fmt.Sprintf("Model request cancelled: %v", err), err)
		}

		text, err := c.attempt(ctx, b, req)
		if err == nil {
			if i > 0 {
				infoLog("Model %s succeeded after %d fallback(s)", b.Name(), i)
			}
			return text, nil
		}

		lastErr = err
		if i < len(c.backends)-1 {
			metrics.UpstreamFallbacksTotal.WithLabelValues(b.Name()).Inc()
			infoLog("WARNING: model %s failed, falling back to %s: %v", b.Name(), c.backends[i+1].Name(), err)
		} else {
			infoLog("Model %s failed, no more fallbacks: %v", b.Name(), err)
		}
	}
	return "", lastErr
}

func (c *FallbackClient) attempt(ctx context.Context, b Backend, req CompletionRequest) (string, error) {
	if c.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := b.Complete(ctx, req)
	metrics.UpstreamLatency.WithLabelValues(b.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(b.Name(), string(KindOf(err))).Inc()
		return "", err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(b.Name(), "ok").Inc()
	debugLog("Model %s answered in %v", b.Name(), time.Since(start))
	return text, nil
}

package services

import (
	"context"
	"time"

	"github.com/codyseavey/calculator/backend/internal/models"
)

// Completer returns the raw model answer for an image and prompt.
type Completer interface {
	Complete(ctx context.Context, img *models.DecodedImage, prompt string) (string, error)
}

// Calculator runs the prompt, model and normalization steps for one image.
type Calculator struct {
	client Completer
}

// NewCalculator creates a calculator over a model client.
func NewCalculator(client Completer) *Calculator {
	return &Calculator{client: client}
}

// Analyze recognizes and evaluates the handwritten math in img, substituting
// vars for any variables the image references.
func (c *Calculator) Analyze(ctx context.Context, img *models.DecodedImage, vars map[string]any) ([]models.ExpressionResult, error) {
	start := time.Now()

	prompt, err := BuildPrompt(vars)
	if err != nil {
		return nil, err
	}
	debugLog("Analyzing %d pixel image with %d variable(s): %s", img.Pixels(), len(vars), compactJSON(vars))

	raw, err := c.client.Complete(ctx, img, prompt)
	if err != nil {
		return nil, err
	}

	results, err := NormalizeResponse(raw)
	if err != nil {
		return nil, err
	}

	infoLog("Analysis produced %d result(s) in %v", len(results), time.Since(start).Round(time.Millisecond))
	return results, nil
}

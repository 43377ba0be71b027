package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/codyseavey/calculator/backend/internal/models"
)

type fakeCompleter struct {
	text   string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, img *models.DecodedImage, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func TestCalculatorAnalyze(t *testing.T) {
	completer := &fakeCompleter{text: "```json\n[{\"expr\": \"x + y\", \"result\": 9}]\n```"}
	calc := NewCalculator(completer)

	results, err := calc.Analyze(context.Background(), decodedImage(t, encodePNG(t, 20, 20)), map[string]any{"x": 4, "y": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Expr != "x + y" || results[0].Result != json.Number("9") {
		t.Errorf("unexpected results %+v", results)
	}
	if !strings.Contains(completer.prompt, `{"x":4,"y":5}`) {
		t.Errorf("variables missing from prompt: %s", completer.prompt)
	}
}

func TestCalculatorAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
		kind      ErrorKind
	}{
		{
			name:      "upstream failure is passed through",
			completer: &fakeCompleter{err: newError(KindUpstreamProtocol, "No 'choices' in OpenRouter API response", nil)},
			kind:      KindUpstreamProtocol,
		},
		{
			name:      "malformed answer",
			completer: &fakeCompleter{text: "I think it's 4"},
			kind:      KindMalformedResponse,
		},
		{
			name:      "empty answer",
			completer: &fakeCompleter{text: "   "},
			kind:      KindMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(tt.completer).Analyze(context.Background(), decodedImage(t, encodePNG(t, 20, 20)), nil)
			if !IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, KindOf(err), err)
			}
		})
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind   ErrorKind
		status int
	}{
		{KindInvalidInputShape, 400},
		{KindInvalidImage, 400},
		{KindUnsupportedFormat, 400},
		{KindImageTooLarge, 400},
		{KindUpstreamTransport, 400},
		{KindUpstreamProtocol, 400},
		{KindMalformedResponse, 400},
		{KindAnalysisFailed, 400},
		{KindInternal, 500},
	}
	for _, tt := range tests {
		if got := StatusForKind(tt.kind); got != tt.status {
			t.Errorf("StatusForKind(%s) = %d, want %d", tt.kind, got, tt.status)
		}
	}
}

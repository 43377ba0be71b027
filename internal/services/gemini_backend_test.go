package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestGeminiBackendRequiresKey(t *testing.T) {
	b := NewGeminiBackend("  ", " gemini-2.0-flash ")
	if b.Name() != "gemini:gemini-2.0-flash" {
		t.Errorf("unexpected name %q", b.Name())
	}

	_, err := b.Complete(context.Background(), testCompletionRequest())
	if !IsKind(err, KindUpstreamTransport) {
		t.Errorf("expected transport error without a key, got %v", err)
	}
}

func TestGeminiText(t *testing.T) {
	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		expected string
	}{
		{
			name:     "no candidates",
			resp:     &genai.GenerateContentResponse{},
			expected: "",
		},
		{
			name: "skips candidates without content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: nil},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text(`[{"expr":`), genai.Text(`"1","result":1}]`)}}},
			}},
			expected: `[{"expr":"1","result":1}]`,
		},
		{
			name: "ignores non-text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("[]")}}},
			}},
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geminiText(tt.resp); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGeminiResult(t *testing.T) {
	blocked := &genai.BlockedError{
		Candidate:      &genai.Candidate{FinishReason: genai.FinishReasonSafety},
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	}
	answer := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text(`[{"expr":"2+2","result":4}]`)}}},
	}}

	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		err      error
		kind     ErrorKind
		expected string
	}{
		{name: "blocked by safety filter", err: blocked, kind: KindUpstreamProtocol},
		{name: "wrapped block", err: fmt.Errorf("generate: %w", blocked), kind: KindUpstreamProtocol},
		{name: "client failure", err: errors.New("rpc error: code = Unavailable"), kind: KindUpstreamTransport},
		{name: "nil response", kind: KindUpstreamProtocol},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, kind: KindUpstreamProtocol},
		{name: "text answer", resp: answer, expected: `[{"expr":"2+2","result":4}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geminiResult("gemini-2.0-flash", tt.resp, tt.err)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.expected {
					t.Errorf("expected %q, got %q", tt.expected, got)
				}
				return
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, KindOf(err), err)
			}
		})
	}
}

package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/codyseavey/calculator/backend/internal/models"
)

// NormalizeResponse turns raw model text into expression results. A single
// surrounding markdown code fence is stripped; everything else must already
// be a JSON array of {expr, result, assign?} objects.
func NormalizeResponse(raw string) ([]models.ExpressionResult, error) {
	content := stripCodeFence(raw)
	if content == "" {
		infoLog("Empty response content from model")
		return nil, newError(KindMalformedResponse, "Empty response content from model", nil)
	}

	results, err := parseResults(content)
	if err != nil {
		infoLog("Failed to parse model response: %v", err)
		debugLog("Unparsable model response: %s", preview(content, 500))
		return nil, newError(KindMalformedResponse, fmt.Sprintf("Failed to parse model response: %v", err), err)
	}
	return results, nil
}

// stripCodeFence removes a markdown fence only when the text both opens and
// closes with one; a lone opening or closing fence is left for the parser to reject.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else {
		s = s[len("```"):]
	}
	return strings.TrimSpace(s)
}

func parseResults(content string) ([]models.ExpressionResult, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	items, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %s", jsonKind(top))
	}

	results := make([]models.ExpressionResult, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d: expected an object, got %s", i, jsonKind(item))
		}

		expr, ok := obj["expr"].(string)
		if !ok {
			return nil, fmt.Errorf("item %d: \"expr\" must be a string", i)
		}

		result, present := obj["result"]
		if !present {
			return nil, fmt.Errorf("item %d: missing \"result\"", i)
		}
		switch result.(type) {
		case json.Number, string, bool:
		default:
			return nil, fmt.Errorf("item %d: \"result\" must be a number, string or boolean, got %s", i, jsonKind(result))
		}

		var assign bool
		if a, present := obj["assign"]; present {
			if assign, ok = a.(bool); !ok {
				return nil, fmt.Errorf("item %d: \"assign\" must be a boolean, got %s", i, jsonKind(a))
			}
		}

		results = append(results, models.ExpressionResult{Expr: expr, Result: result, Assign: assign})
	}
	return results, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// compactJSON is used for logging variable bindings on one line.
func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(buf.String())
}

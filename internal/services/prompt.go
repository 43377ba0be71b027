package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const calculatorPrompt = `You are given an image containing handwritten mathematical content. Analyze it and return a JSON string containing a list of dictionaries.
The image falls into one of these cases:
1. Simple expressions such as 2 + 2 or 3 * 4 - 5 / 2: return [{"expr": "2 + 2", "result": 4}].
2. Equations such as x^2 + 2x + 1 = 0: solve for each unknown and return one dictionary per variable, e.g. [{"expr": "x", "result": -1, "assign": true}].
3. Variable assignments such as x = 4, y = 5: return [{"expr": "x", "result": 4, "assign": true}, {"expr": "y", "result": 5, "assign": true}].
4. Graphical or geometry problems (e.g. a right triangle with two labelled sides, trigonometry, collisions): infer the problem from the drawing and return [{"expr": "a^2 + b^2 = c^2", "result": 5}].
5. Abstract concepts drawn as a picture (e.g. a heart, a historical reference): return [{"expr": "A heart symbol", "result": "love"}].
Evaluate strictly by operator precedence (PEMDAS): parentheses first, then exponents, then multiplication and division left to right, then addition and subtraction left to right.
If the expression uses variables, use the values from this dictionary: %s.
Escape special characters in strings (write \n as \\n).
Return only the JSON string, without markdown, backticks, or any additional text.`

// BuildPrompt renders the fixed instruction with the caller's variable bindings
// embedded as a JSON object.
func BuildPrompt(vars map[string]any) (string, error) {
	if vars == nil {
		vars = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(vars); err != nil {
		return "", newError(KindInternal, fmt.Sprintf("Failed to serialize variables: %v", err), err)
	}

	return fmt.Sprintf(calculatorPrompt, strings.TrimSpace(buf.String())), nil
}

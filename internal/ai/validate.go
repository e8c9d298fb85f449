package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks raw model output against the mode's contract.
//
// Structured modes require a JSON object whose PayloadKey maps to an array.
// Conversation mode requires only a non-empty string. Violations return a
// *ContractError; the pipeline charges those against the malformed-output
// retry budget, which is independent of the network retry budget.
func Validate(raw string, mode Mode) (*CompletionResult, error) {
	if !mode.Structured() {
		text := strings.TrimSpace(raw)
		if text == "" {
			return nil, &ContractError{Kind: EmptyResponse}
		}
		return &CompletionResult{Mode: mode, Text: text}, nil
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ContractError{Kind: EmptyResponse}
	}

	// Models occasionally wrap JSON in a markdown fence despite instructions.
	trimmed = stripCodeFence(trimmed)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, &ContractError{Kind: ParseError, Detail: err.Error()}
	}

	key := mode.PayloadKey()
	payload, ok := obj[key]
	if !ok {
		return nil, &ContractError{Kind: ShapeError, Detail: fmt.Sprintf("missing top-level key %q", key)}
	}

	var items []any
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, &ContractError{Kind: ShapeError, Detail: fmt.Sprintf("key %q is not an array", key)}
	}

	return &CompletionResult{Mode: mode, Items: items}, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

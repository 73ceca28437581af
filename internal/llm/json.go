package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AskJSON asks the model for one value per schema key. Malformed replies are
// corrected up to three times; after that, or when the model is unreachable,
// every key gets its schema default.
func (r *Refiner) AskJSON(ctx context.Context, text string, schema map[string]any) map[string]any {
	keys := schemaKeys(schema)
	fields := strings.Join(keys, ", ")
	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(jsonPrompt, fields)},
		{Role: "user", Content: text},
	}

	for correction := 0; correction <= jsonCorrections; correction++ {
		reply, err := r.call(ctx, messages, jsonMaxTokens)
		if err != nil {
			r.logger.Warn("structured extraction failed, using defaults", "error", err)
			r.fallback("entities")
			return defaults(schema)
		}
		parsed, err := parseObject(reply)
		if err == nil {
			return project(parsed, schema)
		}
		r.logger.Warn("malformed structured reply", "correction", correction, "error", err)
		messages = append(messages,
			Message{Role: "assistant", Content: reply},
			Message{Role: "user", Content: fmt.Sprintf(jsonCorrection, fields)},
		)
	}
	r.fallback("entities")
	return defaults(schema)
}

func parseObject(reply string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(extractJSON(reply)), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("reply is not an object")
	}
	return out, nil
}

// project keeps the schema keys of parsed, filling gaps with defaults.
func project(parsed, schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, def := range schema {
		if v, ok := parsed[k]; ok {
			out[k] = v
		} else {
			out[k] = def
		}
	}
	return out
}

func defaults(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	return out
}

func schemaKeys(schema map[string]any) []string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extractJSON returns the first balanced JSON object in text, ignoring
// markdown fences and prose around it.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}

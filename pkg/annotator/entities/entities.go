package entities

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxChars is how much of a document is sent for entity extraction.
const DefaultMaxChars = 2000

// Entities are the academic named entities found in a project.
type Entities struct {
	Course         *string  `json:"course"`
	Institute      *string  `json:"institute"`
	Department     *string  `json:"department"`
	StudyForm      *string  `json:"study_form"`
	StudyDirection *string  `json:"study_direction"`
	Students       []string `json:"students"`
	Teachers       []string `json:"teachers"`
}

// Empty returns entities with every field absent.
func Empty() Entities {
	return Entities{Students: []string{}, Teachers: []string{}}
}

// Schema lists the requested fields with their default values.
func Schema() map[string]any {
	return map[string]any{
		"course":          nil,
		"institute":       nil,
		"department":      nil,
		"study_form":      nil,
		"study_direction": nil,
		"students":        []any{},
		"teachers":        []any{},
	}
}

// JSONAsker answers a structured question about text with one value per
// schema field. Fields it cannot find come back at their schema default.
type JSONAsker interface {
	AskJSON(ctx context.Context, text string, schema map[string]any) map[string]any
}

// Extractor pulls named entities out of raw document text.
type Extractor struct {
	asker    JSONAsker
	maxChars int
}

// NewExtractor creates an extractor. A nil asker makes every extraction empty.
func NewExtractor(asker JSONAsker, maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{asker: asker, maxChars: maxChars}
}

// Extract sends the first maxChars characters of raw to the asker.
func (e *Extractor) Extract(ctx context.Context, raw string) Entities {
	if e.asker == nil || strings.TrimSpace(raw) == "" {
		return Empty()
	}
	res := e.asker.AskJSON(ctx, truncate(raw, e.maxChars), Schema())
	return FromMap(res)
}

// FromMap converts a structured answer into Entities, tolerating loosely
// typed values such as a numeric course or a single student name.
func FromMap(m map[string]any) Entities {
	ent := Empty()
	ent.Course = optString(m["course"])
	ent.Institute = optString(m["institute"])
	ent.Department = optString(m["department"])
	ent.StudyForm = optString(m["study_form"])
	ent.StudyDirection = optString(m["study_direction"])
	ent.Students = stringList(m["students"])
	ent.Teachers = stringList(m["teachers"])
	return ent
}

func optString(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case float64:
		s = strings.TrimSuffix(fmt.Sprintf("%g", x), ".0")
	default:
		s = fmt.Sprint(x)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func stringList(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s := optString(item); s != nil {
				out = append(out, *s)
			}
		}
	case []string:
		for _, item := range x {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	default:
		if s := optString(x); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func truncate(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

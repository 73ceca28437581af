package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() map[string]any {
	return map[string]any{"course": nil, "students": []any{}}
}

func TestAskJSONParsesFencedReply(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Вот ответ:\n```json\n{\"course\": \"3\", \"extra\": 1}\n```"}}
	var delays []time.Duration
	var fallbacks []string
	r := newTestRefiner(llm, &delays, &fallbacks)

	got := r.AskJSON(context.Background(), "текст", testSchema())

	assert.Equal(t, map[string]any{"course": "3", "students": []any{}}, got)
	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0][0].Content, "course, students")
}

func TestAskJSONSelfCorrects(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"не JSON", `{"students": ["Иванов"]}`}}
	var delays []time.Duration
	var fallbacks []string
	r := newTestRefiner(llm, &delays, &fallbacks)

	got := r.AskJSON(context.Background(), "текст", testSchema())

	assert.Equal(t, map[string]any{"course": nil, "students": []any{"Иванов"}}, got)
	require.Len(t, llm.calls, 2)
	second := llm.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, "assistant", second[2].Role)
	assert.Equal(t, "не JSON", second[2].Content)
}

func TestAskJSONDefaultsAfterThreeCorrections(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"nope", "nope", "nope", "nope", `{"course": "1"}`}}
	var delays []time.Duration
	var fallbacks []string
	r := newTestRefiner(llm, &delays, &fallbacks)

	got := r.AskJSON(context.Background(), "текст", testSchema())

	assert.Equal(t, testSchema(), got)
	assert.Len(t, llm.calls, 4)
	assert.Equal(t, []string{"entities"}, fallbacks)
}

func TestAskJSONUnreachable(t *testing.T) {
	boom := errors.New("down")
	llm := &scriptedLLM{errs: []error{boom, boom, boom}}
	var delays []time.Duration
	var fallbacks []string
	r := newTestRefiner(llm, &delays, &fallbacks)

	got := r.AskJSON(context.Background(), "текст", testSchema())
	assert.Equal(t, testSchema(), got)
	assert.Len(t, llm.calls, 3)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"prefix {\"a\":{\"b\":\"}\"}} suffix", `{"a":{"b":"}"}}`},
		{"```json\n{\"a\":\"\\\"\"}\n```", `{"a":"\""}`},
		{"no json here", "no json here"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in))
	}
}

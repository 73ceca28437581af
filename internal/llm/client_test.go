package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestChatSendsRequest(t *testing.T) {
	var got chatRequest
	client := &Client{
		BaseURL: "https://api.test/v1/chat/completions",
		APIKey:  "secret",
		Model:   "gpt-test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
				body, _ := io.ReadAll(req.Body)
				require.NoError(t, json.Unmarshal(body, &got))
				return jsonResponse(200, `{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)
			}),
		},
	}

	out, err := client.Chat(context.Background(), "system", "user prompt", 120)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 120, got.MaxTokens)
	assert.Zero(t, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user prompt", got.Messages[1].Content)
}

func TestChatErrorPayload(t *testing.T) {
	client := &Client{
		BaseURL: "https://api.test/v1/chat/completions",
		Model:   "gpt-test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				return jsonResponse(200, `{"error":{"message":"bad"}}`)
			}),
		},
	}
	_, err := client.Chat(context.Background(), "s", "u", 0)
	assert.Error(t, err)
}

func TestChatRequiresConfig(t *testing.T) {
	_, err := (&Client{}).Chat(context.Background(), "s", "u", 0)
	assert.Error(t, err)
}

func TestChatEmptyChoices(t *testing.T) {
	client := &Client{
		BaseURL: "https://api.test",
		Model:   "m",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				return jsonResponse(200, `{"choices":[]}`)
			}),
		},
	}
	_, err := client.Chat(context.Background(), "s", "u", 0)
	assert.Error(t, err)
}

func TestNewClientOpensBreaker(t *testing.T) {
	calls := 0
	client := NewClient(ClientConfig{
		BaseURL:     "https://api.test",
		Model:       "m",
		MaxFailures: 2,
	})
	client.HTTPClient = &http.Client{
		Transport: roundTrip(func(req *http.Request) *http.Response {
			calls++
			return jsonResponse(500, `{"error":{"message":"down"}}`)
		}),
	}

	for i := 0; i < 2; i++ {
		_, err := client.Chat(context.Background(), "s", "u", 0)
		require.Error(t, err)
	}
	_, err := client.Chat(context.Background(), "s", "u", 0)
	assert.True(t, errors.Is(err, ErrCircuitOpen), "expected open circuit, got %v", err)
	assert.Equal(t, 2, calls)
}

func TestNewClientRateLimitHonoursContext(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://api.test", Model: "m", RequestsPerSecond: 0.001})
	client.HTTPClient = &http.Client{
		Transport: roundTrip(func(req *http.Request) *http.Response {
			return jsonResponse(200, `{"choices":[{"message":{"content":"ok"}}]}`)
		}),
	}

	_, err := client.Chat(context.Background(), "s", "u", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Chat(ctx, "s", "u", 0)
	assert.Error(t, err)
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"summary": "ok"}`,
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"summary\": \"ok\"}\n```",
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n[{\"id\": 1}]\n```",
			expected: `[{"id": 1}]`,
		},
		{
			name:     "prose around object",
			input:    `Here is the report: {"summary": "ok"} Let me know if you need more.`,
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "prose around array",
			input:    `Sure! [1, 2, 3] as requested.`,
			expected: `[1, 2, 3]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractJSON(tc.input)
			assert.Equal(t, tc.expected, got)
			assert.True(t, json.Valid([]byte(got)))
		})
	}
}

func TestChatParsesCompletion(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "hello"}}]}`))
	}))
	defer srv.Close()

	client := NewClient("sk-test", srv.URL, "test-model")
	reply, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestChatErrorsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("sk-test", srv.URL, "test-model")
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestChatErrorsOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewClient("sk-test", srv.URL, "test-model")
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

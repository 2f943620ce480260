package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"content-optimizer-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr string
	}{
		{name: "ok", status: http.StatusOK, body: `{"choices":[{"message":{"content":"done"}}]}`, want: "done"},
		{name: "api error field", status: http.StatusOK, body: `{"error":{"message":"overloaded"}}`, wantErr: "huggingface api returned error: overloaded"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "empty choices from huggingface api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := NewHuggingFaceProvider("hf-key", srv.URL, "mistral").Generate(context.Background(), "fix", llm.WithJSON())
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, "mistral", got.Model)
			assert.Equal(t, 2048, got.MaxTokens)
			require.NotNil(t, got.ResponseFormat)
			assert.Equal(t, "json_object", got.ResponseFormat.Type)
		})
	}
}

func TestChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("", srv.URL, "m").Generate(context.Background(), "hi")
	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

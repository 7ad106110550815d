package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_analyzer/internal/feature/analysis/usecase"
)

// newTestServer は固定のステータスとボディを返すChat Completions APIのフェイクです。
func newTestServer(t *testing.T, status int, body string, gotReq *goopenai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if gotReq != nil {
			_ = json.NewDecoder(r.Body).Decode(gotReq)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", HTTPClient: srv.Client()})
}

func TestClient_Complete_MissingKey(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})
	assert.Equal(t, DefaultModel, c.Model())

	_, err := c.Complete(context.Background(), "s", "u", usecase.CompletionOptions{})

	assert.True(t, errors.Is(err, usecase.ErrConfiguration))
}

func TestClient_Complete_Success(t *testing.T) {
	t.Parallel()

	var gotReq goopenai.ChatCompletionRequest
	srv := newTestServer(t, http.StatusOK,
		`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"strengths\":[\"a\"]}"},"finish_reason":"stop"}]}`,
		&gotReq)

	got, err := newTestClient(srv).Complete(context.Background(), "system text", "user text",
		usecase.CompletionOptions{MaxTokens: 4000, Temperature: 0.6})

	require.NoError(t, err)
	assert.Equal(t, `{"strengths":["a"]}`, got)
	assert.Equal(t, DefaultModel, gotReq.Model)
	assert.Equal(t, 4000, gotReq.MaxTokens)
	assert.InDelta(t, 0.6, gotReq.Temperature, 0.0001)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, "system text", gotReq.Messages[0].Content)
	assert.Equal(t, "user text", gotReq.Messages[1].Content)
}

func TestClient_Complete_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"id":"1","object":"chat.completion","choices":[]}`,
			want:   usecase.ErrUpstreamProtocol,
		},
		{
			name:   "empty content",
			status: http.StatusOK,
			body:   `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"length"}]}`,
			want:   usecase.ErrUpstreamProtocol,
		},
		{
			name:   "invalid key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want:   usecase.ErrConfiguration,
		},
		{
			name:   "insufficient quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			want:   usecase.ErrQuotaExceeded,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached for requests","type":"requests","code":"rate_limit_exceeded"}}`,
			want:   usecase.ErrRateLimited,
		},
		{
			name:   "unknown model",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"The model does not exist","type":"invalid_request_error","code":"model_not_found"}}`,
			want:   usecase.ErrConfiguration,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"The server had an error","type":"server_error","code":null}}`,
			want:   usecase.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, tt.status, tt.body, nil)

			_, err := newTestClient(srv).Complete(context.Background(), "s", "u", usecase.CompletionOptions{})

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			var me *usecase.ModelError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, ProviderName, me.Provider)
		})
	}
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"company_analyzer/internal/feature/analysis/usecase"
)

func TestClient_Complete_MissingKey(t *testing.T) {
	t.Parallel()

	c, err := NewClient(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())

	_, err = c.Complete(context.Background(), "system", "user", usecase.CompletionOptions{})

	assert.True(t, errors.Is(err, usecase.ErrConfiguration))
	var me *usecase.ModelError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, ProviderName, me.Provider)
}

func TestClient_Complete_Success(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"strengths\":[]}"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{
		APIKey:     "test-key",
		Model:      "gemini-test",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	})
	require.NoError(t, err)

	got, err := c.Complete(context.Background(), "be an expert", "analyze Acme", usecase.CompletionOptions{Temperature: 0.5})

	require.NoError(t, err)
	assert.Equal(t, `{"strengths":[]}`, got)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-test:generateContent"), "unexpected path %s", gotPath)
	assert.Contains(t, fmt.Sprint(gotBody["systemInstruction"]), "be an expert")
	assert.Contains(t, fmt.Sprint(gotBody["contents"]), "analyze Acme")
}

func TestClient_Complete_NoCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u", usecase.CompletionOptions{})

	assert.True(t, errors.Is(err, usecase.ErrUpstreamProtocol))
}

func TestClient_Complete_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "bad", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u", usecase.CompletionOptions{})

	assert.True(t, errors.Is(err, usecase.ErrConfiguration))
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unauthenticated",
			err:  genai.APIError{Code: 401, Status: "UNAUTHENTICATED", Message: "Request had invalid authentication credentials."},
			want: usecase.ErrConfiguration,
		},
		{
			name: "permission denied",
			err:  genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "Permission denied"},
			want: usecase.ErrConfiguration,
		},
		{
			name: "rate limited",
			err:  genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Resource has been exhausted (e.g. check quota)."},
			want: usecase.ErrRateLimited,
		},
		{
			name: "billing text without details",
			err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED",
				Message: "You exceeded your current quota, please check your plan and billing details."},
			want: usecase.ErrQuotaExceeded,
		},
		{
			name: "per-minute limit with billing text",
			err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED",
				Message: "You exceeded your current quota, please check your plan and billing details. " +
					"* Quota exceeded for metric: generativelanguage.googleapis.com/generate_content_free_tier_requests, limit: 10 " +
					"Please retry in 32.5s.",
				Details: []map[string]any{
					{
						"@type": "type.googleapis.com/google.rpc.QuotaFailure",
						"violations": []any{
							map[string]any{
								"quotaMetric": "generativelanguage.googleapis.com/generate_content_free_tier_requests",
								"quotaId":     "GenerateRequestsPerMinutePerProjectPerModel-FreeTier",
							},
						},
					},
					{"@type": "type.googleapis.com/google.rpc.Help", "links": []any{map[string]any{"url": "https://ai.google.dev/gemini-api/docs/rate-limits"}}},
					{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "32s"},
				}},
			want: usecase.ErrRateLimited,
		},
		{
			name: "per-day limit",
			err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED",
				Message: "You exceeded your current quota, please check your plan and billing details.",
				Details: []map[string]any{
					{
						"@type": "type.googleapis.com/google.rpc.QuotaFailure",
						"violations": []any{
							map[string]any{"quotaId": "GenerateRequestsPerDayPerProjectPerModel-FreeTier"},
						},
					},
					{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "3600s"},
				}},
			want: usecase.ErrQuotaExceeded,
		},
		{
			name: "retry info only",
			err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Resource exhausted.",
				Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "5s"}}},
			want: usecase.ErrRateLimited,
		},
		{
			name: "unknown model",
			err:  genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "models/foo is not found"},
			want: usecase.ErrConfiguration,
		},
		{
			name: "server error",
			err:  genai.APIError{Code: 500, Status: "INTERNAL", Message: "An internal error has occurred."},
			want: usecase.ErrUpstream,
		},
		{
			name: "wrapped pointer error",
			err:  fmt.Errorf("request: %w", &genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}),
			want: usecase.ErrRateLimited,
		},
		{
			name: "transport error",
			err:  errors.New("dial tcp: connection refused"),
			want: usecase.ErrUpstream,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: usecase.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyError(tt.err)
			assert.True(t, errors.Is(got, tt.want), "got %v", got)
			var me *usecase.ModelError
			require.True(t, errors.As(got, &me))
			assert.Equal(t, tt.err, me.Err, "provider error should stay reachable")
		})
	}
}

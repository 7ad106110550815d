// Package gemini はGoogle Gemini APIを使用したモデルクライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"company_analyzer/internal/feature/analysis/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
	// ProviderName はエラーやログに付与するプロバイダ名です。
	ProviderName = "gemini"
)

// Config はGeminiクライアントの設定です。
type Config struct {
	APIKey string
	Model  string
	// BaseURL はAPIエンドポイントを差し替える場合に指定します（テスト・プロキシ用）。
	BaseURL    string
	HTTPClient *http.Client
}

// Client はGoogle Gemini APIを使用してテキストを生成します。
type Client struct {
	client *genai.Client
	model  string
}

// ClientがModelClientを実装していることをコンパイル時に検証します。
var _ usecase.ModelClient = (*Client)(nil)

// NewClient はGemini APIキーを使用してClientの新しいインスタンスを生成します。
// APIキーが未設定でもエラーにはせず、Complete の呼び出し時に ErrConfiguration を返します。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.APIKey == "" {
		slog.Warn("gemini API key is not set; generation requests will fail until it is configured")
		return &Client{model: model}, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Model は使用するモデル名を返します。
func (c *Client) Model() string {
	return c.model
}

// Complete はシステムプロンプトとユーザープロンプトを1回だけ送信し、生成されたテキストを返します。
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts usecase.CompletionOptions) (string, error) {
	if c.client == nil {
		return "", &usecase.ModelError{
			Kind:     usecase.ErrConfiguration,
			Provider: ProviderName,
			Message:  "GEMINI_API_KEY is not set",
		}
	}
	opts = opts.WithDefaults()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens:   int32(opts.MaxTokens),
	})
	if err != nil {
		return "", classifyError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &usecase.ModelError{
			Kind:     usecase.ErrUpstreamProtocol,
			Provider: ProviderName,
			Message:  "response has no candidates",
		}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &usecase.ModelError{
			Kind:     usecase.ErrUpstreamProtocol,
			Provider: ProviderName,
			Message:  fmt.Sprintf("response has no text (finish reason %q)", resp.Candidates[0].FinishReason),
		}
	}
	return text, nil
}

// billingMarkers は詳細情報のない429応答で課金・プラン上限を示すメッセージの断片です。
var billingMarkers = []string{"billing", "check your plan"}

const (
	retryInfoType    = "type.googleapis.com/google.rpc.RetryInfo"
	quotaFailureType = "type.googleapis.com/google.rpc.QuotaFailure"
)

// classifyExhausted はRESOURCE_EXHAUSTEDを一時的な流量制限とクォータ枯渇に振り分けます。
// Geminiは分単位の制限にも課金に関する文言を付けるため、メッセージより詳細情報を優先します。
func classifyExhausted(apiErr genai.APIError) error {
	var perMinute, perDay, retry bool
	for _, d := range apiErr.Details {
		switch d["@type"] {
		case retryInfoType:
			retry = true
		case quotaFailureType:
			violations, _ := d["violations"].([]any)
			for _, v := range violations {
				vm, _ := v.(map[string]any)
				id, _ := vm["quotaId"].(string)
				switch {
				case strings.Contains(id, "PerMinute"):
					perMinute = true
				case strings.Contains(id, "PerDay"):
					perDay = true
				}
			}
		}
	}

	switch {
	case perMinute:
		return usecase.ErrRateLimited
	case perDay:
		return usecase.ErrQuotaExceeded
	case retry:
		return usecase.ErrRateLimited
	case len(apiErr.Details) == 0:
		msg := strings.ToLower(apiErr.Message)
		for _, marker := range billingMarkers {
			if strings.Contains(msg, marker) {
				return usecase.ErrQuotaExceeded
			}
		}
	}
	return usecase.ErrRateLimited
}

// classifyError はGemini APIのエラーをエラー種別に対応付けます。
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &usecase.ModelError{Kind: usecase.ErrUpstream, Provider: ProviderName, Message: err.Error(), Err: err}
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		return &usecase.ModelError{Kind: usecase.ErrUpstream, Provider: ProviderName, Message: err.Error(), Err: err}
	}

	kind := usecase.ErrUpstream
	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED", apiErr.Status == "PERMISSION_DENIED",
		strings.Contains(msg, "api key not valid"):
		kind = usecase.ErrConfiguration
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Status == "RESOURCE_EXHAUSTED":
		kind = classifyExhausted(apiErr)
	case apiErr.Code == http.StatusNotFound:
		// 存在しないモデル名はデプロイ設定の誤り
		kind = usecase.ErrConfiguration
	}
	return &usecase.ModelError{Kind: kind, Provider: ProviderName, Message: apiErr.Message, Err: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

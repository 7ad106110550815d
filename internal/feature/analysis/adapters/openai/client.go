// Package openai はOpenAI Chat Completions APIを使用したモデルクライアントを提供します。
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"company_analyzer/internal/feature/analysis/usecase"
)

const (
	// DefaultModel はOpenAIのデフォルトモデルです。
	DefaultModel = goopenai.GPT4o
	// ProviderName はエラーやログに付与するプロバイダ名です。
	ProviderName = "openai"
)

// Config はOpenAIクライアントの設定です。
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client はOpenAI Chat Completions APIを使用してテキストを生成します。
type Client struct {
	client *goopenai.Client
	model  string
}

var _ usecase.ModelClient = (*Client)(nil)

// NewClient はClientの新しいインスタンスを生成します。
// APIキーが未設定でも生成は成功し、Complete の呼び出し時に ErrConfiguration を返します。
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.APIKey == "" {
		slog.Warn("openai API key is not set; generation requests will fail until it is configured")
		return &Client{model: model}
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{client: goopenai.NewClientWithConfig(oc), model: model}
}

// Model は使用するモデル名を返します。
func (c *Client) Model() string {
	return c.model
}

// Complete はシステムメッセージとユーザーメッセージを1回だけ送信し、最初の選択肢の本文を返します。
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts usecase.CompletionOptions) (string, error) {
	if c.client == nil {
		return "", &usecase.ModelError{
			Kind:     usecase.ErrConfiguration,
			Provider: ProviderName,
			Message:  "OPENAI_API_KEY is not set",
		}
	}
	opts = opts.WithDefaults()

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &usecase.ModelError{
			Kind:     usecase.ErrUpstreamProtocol,
			Provider: ProviderName,
			Message:  "response has no choices",
		}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &usecase.ModelError{
			Kind:     usecase.ErrUpstreamProtocol,
			Provider: ProviderName,
			Message:  fmt.Sprintf("first choice has no content (finish reason %q)", resp.Choices[0].FinishReason),
		}
	}
	return content, nil
}

// classifyError はOpenAI APIのエラーをエラー種別に対応付けます。
func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprint(apiErr.Code)
		kind := usecase.ErrUpstream
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized, code == "invalid_api_key":
			kind = usecase.ErrConfiguration
		case code == "insufficient_quota":
			kind = usecase.ErrQuotaExceeded
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			kind = usecase.ErrRateLimited
		case code == "model_not_found", apiErr.HTTPStatusCode == http.StatusNotFound:
			kind = usecase.ErrConfiguration
		}
		return &usecase.ModelError{Kind: kind, Provider: ProviderName, Message: apiErr.Message, Err: err}
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		kind := usecase.ErrUpstream
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			kind = usecase.ErrConfiguration
		case http.StatusTooManyRequests:
			kind = usecase.ErrRateLimited
		}
		return &usecase.ModelError{Kind: kind, Provider: ProviderName, Message: reqErr.Error(), Err: err}
	}

	return &usecase.ModelError{Kind: usecase.ErrUpstream, Provider: ProviderName, Message: err.Error(), Err: err}
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiConfig Gemini 后端配置
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini Google Gemini generateContent 后端
type Gemini struct {
	config GeminiConfig
	client *resty.Client
}

// NewGemini 创建 Gemini 后端实例
func NewGemini(config GeminiConfig) *Gemini {
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 90 * time.Second
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout)

	return &Gemini{
		config: config,
		client: client,
	}
}

// Name 实现 Provider 接口
func (g *Gemini) Name() string {
	return "gemini"
}

// Model 实现 Provider 接口
func (g *Gemini) Model() string {
	return g.config.Model
}

// 请求与响应结构，对应 generateContent 的 JSON 协议
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Generate 实现 Provider 接口
//
// 非 2xx 状态码返回错误（可重试）；200 但响应体缺失文本字段按空文本
// 和零用量处理，不视为错误。
func (g *Gemini) Generate(ctx context.Context, prompt, systemPrompt string, opts Options) (*Result, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.config.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.config.Model))
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini api: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("gemini api returned non-2xx status: %d, body: %s",
			resp.StatusCode(), resp.String())
	}

	var body geminiResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini response: %w", err)
	}

	// 缺失文本字段时返回空文本，由调用方自行校验
	text := ""
	if len(body.Candidates) > 0 && len(body.Candidates[0].Content.Parts) > 0 {
		text = body.Candidates[0].Content.Parts[0].Text
	}

	return &Result{
		Text: text,
		TokensUsed: TokenUsage{
			Input:  body.UsageMetadata.PromptTokenCount,
			Output: body.UsageMetadata.CandidatesTokenCount,
		},
		Provider: g.Name(),
		Model:    g.config.Model,
	}, nil
}

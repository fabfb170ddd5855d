// Package provider 对多家文本生成后端的统一抽象
//
// Registry 持有已注册的 Provider，并保证进程内同一时间只有一个激活实例。
// 所有生成调用统一走 Registry.Generate，由它负责重试、退避与用量记账。
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Options 单次生成调用的参数
type Options struct {
	Temperature float64 // 采样温度
	MaxTokens   int     // 输出 token 上限
	Language    string  // 期望的输出语言，空值由提示词决定
}

// TokenUsage 一次调用的 token 用量
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Total 输入输出 token 总量
func (u TokenUsage) Total() int {
	return u.Input + u.Output
}

// Result 生成结果，成功时所有字段均已填充
type Result struct {
	Text       string     `json:"text"`
	TokensUsed TokenUsage `json:"tokens_used"`
	Provider   string     `json:"provider"`
	Model      string     `json:"model"`
}

// Provider 文本生成后端需要实现的接口
type Provider interface {
	// Name 后端名称，注册时使用
	Name() string
	// Model 当前使用的模型名称
	Model() string
	// Generate 执行一次生成调用
	// 返回错误视为可重试的失败；响应体缺失文本字段不算错误，
	// 此时返回空文本和零用量，由调用方自行校验
	Generate(ctx context.Context, prompt, systemPrompt string, opts Options) (*Result, error)
}

// ErrNotConfigured 没有激活的生成后端，属于部署配置错误
var ErrNotConfigured = errors.New("provider: no active provider configured")

// GenerationError 重试耗尽后的最终失败
type GenerationError struct {
	Provider string
	Attempts int
	Err      error
}

// Error 实现 error 接口
func (e *GenerationError) Error() string {
	return fmt.Sprintf("provider %s: generation failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

// Unwrap 返回底层错误
func (e *GenerationError) Unwrap() error {
	return e.Err
}

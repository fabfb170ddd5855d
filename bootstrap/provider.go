package bootstrap

import (
	"fmt"
	"time"

	"oracle/pkg/config"
	"oracle/pkg/logger"
	"oracle/pkg/provider"
)

// SetupProvider 初始化文本生成后端注册表
//
// 注册表装配完成后通过 provider.SetDefault 暴露给控制器与队列工作器。
// API Key 缺失时仍返回空注册表，调用方会收到 ErrNotConfigured。
func SetupProvider() *provider.Registry {
	registry := provider.NewRegistry()
	provider.SetDefault(registry)

	apiKey := config.GetString("gemini.api_key")
	if apiKey == "" {
		logger.WarnString("Provider", "Setup", "GEMINI_API_KEY 未设置，生成能力不可用")
		return registry
	}

	gemini := provider.NewGemini(provider.GeminiConfig{
		BaseURL: config.GetString("gemini.base_url"),
		APIKey:  apiKey,
		Model:   config.GetString("gemini.model"),
		Timeout: time.Duration(config.GetInt("gemini.timeout")) * time.Second,
	})
	registry.Register(gemini.Name(), gemini)

	logger.InfoString("Provider", "Setup", fmt.Sprintf(
		"生成后端注册成功 后端:%s 模型:%s", gemini.Name(), gemini.Model()))
	return registry
}

// GenerationOptions 从配置装配生成参数
func GenerationOptions() provider.Options {
	return provider.Options{
		Temperature: config.GetFloat64("gemini.temperature"),
		MaxTokens:   config.GetInt("gemini.max_tokens"),
	}
}

package config

import (
	"oracle/pkg/config"
)

func init() {
	config.Add("gemini", func() map[string]interface{} {
		return map[string]interface{}{
			"base_url": config.Env("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			"api_key":  config.Env("GEMINI_API_KEY", ""),
			"model":    config.Env("GEMINI_MODEL", "gemini-1.5-flash"),
			"timeout":  config.Env("GEMINI_TIMEOUT", 90),

			// 生成参数
			"temperature": config.Env("GEMINI_TEMPERATURE", 0.8),
			"max_tokens":  config.Env("GEMINI_MAX_TOKENS", 2048),
		}
	})
}

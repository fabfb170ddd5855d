package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oracle/pkg/logger"
	"oracle/pkg/retry"
)

// 重试策略：总共最多 3 次尝试，间隔 1s、2s
const (
	maxAttempts = 3
	backoffBase = time.Second
)

// Registry 生成后端注册表
//
// 在启动时构建并注入到需要生成能力的组件中，启动完成后只读。
// 同名重复注册时后注册者生效。
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string

	// 退避策略，测试时可替换
	backoff retry.BackoffFunc
}

// std 进程级默认注册表，启动时由 bootstrap 装配
var std *Registry

// SetDefault 设置进程级默认注册表
func SetDefault(r *Registry) {
	std = r
}

// Default 获取进程级默认注册表，未装配时返回 nil
func Default() *Registry {
	return std
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		backoff:   retry.Exponential(backoffBase),
	}
}

// Register 注册一个后端，首个注册的后端自动设为激活
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = p
	if r.active == "" {
		r.active = name
	}
}

// SetActive 切换激活的后端
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider: %s not registered", name)
	}
	r.active = name
	return nil
}

// Active 获取当前激活的后端
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == "" {
		return nil, ErrNotConfigured
	}
	p, ok := r.providers[r.active]
	if !ok {
		return nil, ErrNotConfigured
	}
	return p, nil
}

// Generate 调用激活后端生成文本，带重试与用量记账
//
// 非最终失败会被吞掉并重试；重试耗尽后包装为 *GenerationError 返回。
// 成功时记录聚合 token 用量日志用于成本核算，该日志不影响返回值。
func (r *Registry) Generate(ctx context.Context, prompt, systemPrompt string, opts Options) (*Result, error) {
	p, err := r.Active()
	if err != nil {
		return nil, err
	}

	var result *Result
	err = retry.Do(ctx, maxAttempts, r.backoff, func() error {
		res, callErr := p.Generate(ctx, prompt, systemPrompt, opts)
		if callErr != nil {
			logger.WarnString("Provider", "Retry", fmt.Sprintf(
				"生成调用失败，准备重试 后端:%s 错误:%v", p.Name(), callErr))
			return callErr
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, &GenerationError{Provider: p.Name(), Attempts: maxAttempts, Err: err}
	}

	// 用量记账，仅作遥测
	logger.InfoString("Provider", "Usage", fmt.Sprintf(
		"后端:%s 模型:%s 输入:%d 输出:%d 合计:%d",
		result.Provider, result.Model,
		result.TokensUsed.Input, result.TokensUsed.Output, result.TokensUsed.Total()))

	return result, nil
}

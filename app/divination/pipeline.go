package divination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"oracle/app/models/reading"
	"oracle/app/models/user"
	"oracle/pkg/logger"
	"oracle/pkg/provider"
)

// Request 一次占卜请求
type Request struct {
	UserID   string // 必填
	SystemID string // 必填，占卜系统标识
	Question string // 可选的自由文本
	Language string // 解读语言，空值默认 zh
	Spread   string // 牌阵 ID，塔罗必填
	Style    string // 首次生成的解读风格，空值默认 traditional
	Tier     string // 创建时的层级
}

// Enrichment LoadContext 阶段取回的增补上下文，缺失不影响流程
type Enrichment struct {
	RecentSummary string
	Profile       *user.User
}

// Run 一次流水线运行的全部状态
//
// created 标志与 id 存在性检查共同构成行创建守卫：
// 同一逻辑解读的两次并发"首次解读"不会插入两行。
type Run struct {
	Request Request
	Context Enrichment
	Reading *reading.Reading

	mu      sync.Mutex
	created bool
}

// System 占卜系统需要实现的五个阶段钩子
//
// 编排顺序由 Execute 固定：Validate → LoadContext → Draw → Interpret → Persist，
// 具体系统只决定每个阶段做什么，不能跳过或重排阶段。
type System interface {
	// ID 系统标识，如 tarot、runes
	ID() string
	// Validate 校验必填输入，失败对本次运行致命
	Validate(req *Request) error
	// LoadContext 加载增补上下文，失败不致命
	LoadContext(ctx context.Context, run *Run) error
	// Draw 抽取元素并初始化 Reading，输出写入一次后不可变
	Draw(run *Run) error
	// Interpret 构建提示词并调用生成后端，把结果写入请求的风格键
	Interpret(ctx context.Context, run *Run) error
	// Persist 首次持久化，行只插入一次
	Persist(ctx context.Context, run *Run) error
}

// Execute 流水线编排器
//
// 阶段严格按序执行；Validate / Draw / Interpret / Persist 的失败作为
// 带阶段信息的 *PipelineError 返回，LoadContext 的失败降级为日志。
// 失败的运行没有部分可恢复状态，重试必须从头开始。
func Execute(ctx context.Context, sys System, req Request) (*reading.Reading, error) {
	// 调用方的取消不向下传递：用户中途离开（HTTP 请求上下文被取消）
	// 不中止已在途的生成调用，迟到的结果仍要尽力完成首次落盘。
	// 生成调用的时长由后端客户端自身的超时约束。
	ctx = context.WithoutCancel(ctx)

	run := &Run{Request: req}

	// 1. 校验，此前不产生任何副作用
	if err := sys.Validate(&run.Request); err != nil {
		return nil, &PipelineError{Stage: StageValidate, Err: err}
	}

	// 2. 增补上下文，失败时降级为"无上下文"继续
	if err := sys.LoadContext(ctx, run); err != nil {
		logger.WarnString("Pipeline", "LoadContext", fmt.Sprintf(
			"增补上下文加载失败，降级继续 系统:%s 用户:%s 错误:%v",
			sys.ID(), run.Request.UserID, err))
	}

	// 3. 抽取
	if err := sys.Draw(run); err != nil {
		return nil, &PipelineError{Stage: StageDraw, Err: err}
	}
	// 没有抽取结果的解读没有意义，不允许进入 Interpret
	if run.Reading == nil || len(run.Reading.Elements) == 0 {
		return nil, &PipelineError{Stage: StageDraw, Err: errors.New("draw produced no elements")}
	}

	// 4. 解读
	if err := sys.Interpret(ctx, run); err != nil {
		return nil, &PipelineError{Stage: StageInterpret, Err: err}
	}

	// 5. 首次持久化，失败对本次运行致命
	if err := sys.Persist(ctx, run); err != nil {
		return nil, &PipelineError{Stage: StagePersist, Err: err}
	}

	return run.Reading, nil
}

// BaseSystem 各占卜系统共享的钩子默认实现与依赖
type BaseSystem struct {
	Store     ReadingStore
	Providers *provider.Registry
	GenOpts   provider.Options
}

// LoadContext 默认不加载任何上下文
func (b *BaseSystem) LoadContext(ctx context.Context, run *Run) error {
	return nil
}

// Persist 默认的首次持久化：带创建守卫的单次插入
func (b *BaseSystem) Persist(ctx context.Context, run *Run) error {
	run.mu.Lock()
	defer run.mu.Unlock()

	// 已创建过或已有 id 时跳过，防止并发的"首次解读"插入两行
	if run.created || run.Reading.ID != 0 {
		return nil
	}

	if err := b.Store.Create(ctx, run.Reading); err != nil {
		return err
	}
	run.created = true
	return nil
}

// interpret 共享的解读实现：构建提示词、调用生成后端、写入风格键
func (b *BaseSystem) interpret(ctx context.Context, run *Run, systemPrompt string) error {
	style := run.Request.Style

	prompt := BuildReadingPrompt(run.Reading, run.Context)
	result, err := b.Providers.Generate(ctx, prompt, systemPrompt, b.genOptions(run.Request.Language))
	if err != nil {
		return err
	}

	// 空响应体不是传输错误，但空解读对调用方无意义
	if result.Text == "" {
		return errors.New("generation returned empty interpretation")
	}

	run.Reading.Interpretations.MergeStyle(style, reading.StyleEntry{
		Content: result.Text,
		Model:   result.Model,
		TokensUsed: &reading.TokenCount{
			Input:  result.TokensUsed.Input,
			Output: result.TokensUsed.Output,
		},
		CreatedAt: now(),
	})
	return nil
}

// genOptions 按请求语言派生生成参数
func (b *BaseSystem) genOptions(language string) provider.Options {
	opts := b.GenOpts
	opts.Language = language
	return opts
}

// now 可在测试中替换的时间源
var now = time.Now

package divination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oracle/app/models/reading"
	"oracle/pkg/debounce"
	"oracle/pkg/logger"
	"oracle/pkg/provider"
)

// reflectionDebounce 反思自动保存的静默期
const reflectionDebounce = 2 * time.Second

// Coordinator 对已存在解读行的并发增量更新协调器
//
// 三类彼此独立的异步操作——补生成风格、追加对话轮、保存反思——
// 都按"取回 interpretations → 只改自己的子键 → 写回该列"执行。
// 列上没有版本令牌，两个操作交叠时后写者的取回可能早于先写者的完成，
// 但由于每个写入方只触碰自己拥有的子键，竞态的损害被限定为
// "同一子键后写者胜出"，不会破坏整个文档。
//
// 行的 id 不存在时三类操作都静默跳过：没有可更新的对象。
type Coordinator struct {
	store     ReadingStore
	providers *provider.Registry
	genOpts   provider.Options
}

// NewCoordinator 创建协调器
func NewCoordinator(store ReadingStore, providers *provider.Registry, genOpts provider.Options) *Coordinator {
	return &Coordinator{
		store:     store,
		providers: providers,
		genOpts:   genOpts,
	}
}

// GenerateStyle 为已有解读补生成一种风格（用户切换风格页签时触发）
//
// 生成失败对本次调用致命并向上返回；生成成功后的增量写入失败
// 只记日志不报错——内容已经产出，丢失的只是这次落盘。
// 风格已存在时直接返回既有内容，不重复生成。
func (c *Coordinator) GenerateStyle(ctx context.Context, readingID uint64, style string) (*reading.StyleEntry, error) {
	if readingID == 0 {
		return nil, nil
	}
	if !reading.ValidStyle(style) {
		return nil, &ValidationError{Field: "style"}
	}

	rd, err := c.store.GetByID(ctx, readingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading %d: %w", readingID, err)
	}

	if entry, ok := rd.Interpretations.Styles[style]; ok {
		return &entry, nil
	}

	prompt := BuildReadingPrompt(rd, Enrichment{})
	opts := c.genOpts
	opts.Language = rd.Language

	result, err := c.providers.Generate(ctx, prompt, SystemPromptForStyle(style), opts)
	if err != nil {
		return nil, err
	}
	if result.Text == "" {
		return nil, errors.New("generation returned empty interpretation")
	}

	entry := reading.StyleEntry{
		Content: result.Text,
		Model:   result.Model,
		TokensUsed: &reading.TokenCount{
			Input:  result.TokensUsed.Input,
			Output: result.TokensUsed.Output,
		},
		CreatedAt: now(),
	}

	// 取回-改自己的子键-写回
	c.merge(ctx, readingID, "GenerateStyle", func(i *reading.Interpretations) {
		i.MergeStyle(style, entry)
	})

	return &entry, nil
}

// AppendFollowUp 追加一轮追问对话（用户提问 + 生成的回答）
//
// 对话数组只追加，不截断、不重排既有轮次。
func (c *Coordinator) AppendFollowUp(ctx context.Context, readingID uint64, question string) (string, error) {
	if readingID == 0 {
		return "", nil
	}
	if question == "" {
		return "", &ValidationError{Field: "question"}
	}

	// 提问者中途离开不中止在途的生成，迟到的回答仍要尽力落盘
	ctx = context.WithoutCancel(ctx)

	rd, err := c.store.GetByID(ctx, readingID)
	if err != nil {
		return "", fmt.Errorf("failed to load reading %d: %w", readingID, err)
	}

	opts := c.genOpts
	opts.Language = rd.Language

	result, err := c.providers.Generate(ctx, BuildFollowUpPrompt(rd, question),
		SystemPromptForStyle(reading.StyleTraditional), opts)
	if err != nil {
		return "", err
	}

	asked := now()
	c.merge(ctx, readingID, "AppendFollowUp", func(i *reading.Interpretations) {
		i.AppendTurns(
			reading.Turn{Role: "user", Content: question, CreatedAt: asked},
			reading.Turn{Role: "assistant", Content: result.Text, CreatedAt: now()},
		)
	})

	return result.Text, nil
}

// SaveReflection 保存用户反思
//
// 权威位置是 readings.reflection 列；_metadata.reflection 只作为
// 已废弃的兼容镜像同步写入，读取方不得依赖它。
// 自动保存属于尽力而为的操作，失败只记日志，不打断用户流程。
func (c *Coordinator) SaveReflection(ctx context.Context, readingID uint64, text string) {
	if readingID == 0 {
		return
	}

	// 自动保存由请求触发但不随请求取消
	ctx = context.WithoutCancel(ctx)

	if err := c.store.UpdateReflection(ctx, readingID, text, now()); err != nil {
		logger.ErrorString("Coordinator", "SaveReflection", fmt.Sprintf(
			"反思保存失败，已忽略 解读:%d 错误:%v", readingID, err))
		return
	}

	// 同步已废弃的镜像
	c.merge(ctx, readingID, "SaveReflection", func(i *reading.Interpretations) {
		i.SetReflectionMirror(text)
	})
}

// merge 取回 interpretations 文档、应用变更、写回单列
//
// 失败记日志后吞掉：增量更新是对已有效解读的尽力而为的丰富，
// 不允许它以错误形式浮出到用户可见的流程里。
func (c *Coordinator) merge(ctx context.Context, readingID uint64, op string, mutate func(*reading.Interpretations)) {
	rd, err := c.store.GetByID(ctx, readingID)
	if err != nil {
		logger.ErrorString("Coordinator", op, fmt.Sprintf(
			"取回文档失败，放弃本次增量更新 解读:%d 错误:%v", readingID, err))
		return
	}

	mutate(&rd.Interpretations)

	if err := c.store.UpdateInterpretations(ctx, readingID, rd.Interpretations); err != nil {
		logger.ErrorString("Coordinator", op, fmt.Sprintf(
			"增量写入失败，已忽略 解读:%d 错误:%v", readingID, err))
	}
}

// ReflectionSaver 某个解读的反思自动保存器
//
// 每次编辑都会取消并重启防抖计时，一个静默期内只有最后一次
// 编辑的内容会发起保存，避免每次键入都产生一次网络调用。
type ReflectionSaver struct {
	coordinator *Coordinator
	readingID   uint64
	debouncer   *debounce.Debouncer
}

// NewReflectionSaver 创建反思自动保存器
func (c *Coordinator) NewReflectionSaver(readingID uint64) *ReflectionSaver {
	return &ReflectionSaver{
		coordinator: c,
		readingID:   readingID,
		debouncer:   debounce.New(reflectionDebounce),
	}
}

// Edit 记录一次编辑，静默期结束后保存最后的文本
func (s *ReflectionSaver) Edit(text string) {
	s.debouncer.Trigger(func() {
		s.coordinator.SaveReflection(context.Background(), s.readingID, text)
	})
}

// Close 放弃尚未触发的保存
func (s *ReflectionSaver) Close() {
	s.debouncer.Stop()
}

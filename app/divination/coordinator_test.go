package divination

import (
	"context"
	"testing"
	"time"

	"oracle/app/models/reading"
	"oracle/pkg/debounce"
	"oracle/pkg/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedReading 先通过流水线产出一条带 traditional 解读的行
func seedReading(t *testing.T, store *memoryStore) uint64 {
	t.Helper()

	sys := NewTarot(store, nil, newTestRegistry(&stubProvider{text: "初始解读"}), provider.Options{})
	rd, err := Execute(context.Background(), sys, Request{
		UserID:   "user-1",
		SystemID: SystemTarot,
		Question: "今天适合做决定吗？",
		Spread:   "three_card",
	})
	require.NoError(t, err)
	return rd.ID
}

func TestGenerateStyleAddsOnlyItsOwnKey(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "荣格视角的解读"}), provider.Options{})

	entry, err := c.GenerateStyle(context.Background(), id, reading.StyleJungian)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "荣格视角的解读", entry.Content)

	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)

	// 新风格已落盘，原有风格未被触碰
	assert.True(t, rd.Interpretations.HasStyle(reading.StyleJungian))
	assert.Equal(t, "初始解读", rd.Interpretations.Styles[reading.StyleTraditional].Content)
	assert.Equal(t, "three_card", rd.Interpretations.Meta.Spread)
}

func TestGenerateStyleIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	stub := &stubProvider{text: "不应再次生成"}
	c := NewCoordinator(store, newTestRegistry(stub), provider.Options{})

	entry, err := c.GenerateStyle(context.Background(), id, reading.StyleTraditional)
	require.NoError(t, err)
	require.NotNil(t, entry)

	// 风格已存在：返回既有内容，不触发生成
	assert.Equal(t, "初始解读", entry.Content)
	assert.Zero(t, stub.calls)
}

func TestGenerateStyleRejectsUnknownStyle(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "x"}), provider.Options{})

	_, err := c.GenerateStyle(context.Background(), id, "freestyle")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "style", valErr.Field)
}

func TestGenerateStyleSwallowsPersistFailure(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)
	store.failUpdates = true

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "内容已产出"}), provider.Options{})

	// 落盘失败不报错，内容照常返回
	entry, err := c.GenerateStyle(context.Background(), id, reading.StyleEsoteric)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "内容已产出", entry.Content)

	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, rd.Interpretations.HasStyle(reading.StyleEsoteric))
}

func TestConcurrentOwnersBothSurviveEitherOrder(t *testing.T) {
	// 两个写入方各自只触碰自己的子键，
	// 无论哪个先写回，另一方的改动都应保留
	orders := []struct {
		name  string
		first func(c *Coordinator, id uint64)
	}{
		{"style then reflection", func(c *Coordinator, id uint64) {
			_, err := c.GenerateStyle(context.Background(), id, reading.StyleEsoteric)
			require.NoError(t, err)
			c.SaveReflection(context.Background(), id, "这次解读很触动我")
		}},
		{"reflection then style", func(c *Coordinator, id uint64) {
			c.SaveReflection(context.Background(), id, "这次解读很触动我")
			_, err := c.GenerateStyle(context.Background(), id, reading.StyleEsoteric)
			require.NoError(t, err)
		}},
	}

	for _, tc := range orders {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryStore()
			id := seedReading(t, store)

			c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "神秘学解读"}), provider.Options{})
			tc.first(c, id)

			rd, err := store.GetByID(context.Background(), id)
			require.NoError(t, err)

			assert.True(t, rd.Interpretations.HasStyle(reading.StyleEsoteric))
			assert.Equal(t, "这次解读很触动我", rd.Reflection)
			require.NotNil(t, rd.ReflectionAddedAt)
			// 废弃镜像同步写入
			require.NotNil(t, rd.Interpretations.Meta)
			assert.Equal(t, "这次解读很触动我", rd.Interpretations.Meta.Reflection)
		})
	}
}

func TestAppendFollowUpIsAppendOnly(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "针对追问的回答"}), provider.Options{})

	reply, err := c.AppendFollowUp(context.Background(), id, "这张牌具体指什么？")
	require.NoError(t, err)
	assert.Equal(t, "针对追问的回答", reply)

	_, err = c.AppendFollowUp(context.Background(), id, "那我该怎么做？")
	require.NoError(t, err)

	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)

	conv := rd.Interpretations.Meta.Conversation
	require.Len(t, conv, 4)

	// 既有轮次原样保留，新轮次只追加在尾部
	assert.Equal(t, "user", conv[0].Role)
	assert.Equal(t, "这张牌具体指什么？", conv[0].Content)
	assert.Equal(t, "assistant", conv[1].Role)
	assert.Equal(t, "user", conv[2].Role)
	assert.Equal(t, "那我该怎么做？", conv[2].Content)
	assert.Equal(t, "assistant", conv[3].Role)

	assert.Equal(t, 2, rd.Interpretations.Meta.FollowUpCount)
}

func TestAppendFollowUpIgnoresCallerCancellation(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "迟到的回答"}), provider.Options{})

	// 提问后立刻离开：请求上下文已被取消
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := c.AppendFollowUp(ctx, id, "这张牌具体指什么？")
	require.NoError(t, err)
	assert.Equal(t, "迟到的回答", reply)

	// 迟到的回答仍然落盘
	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, rd.Interpretations.Meta.Conversation, 2)
	assert.Equal(t, "迟到的回答", rd.Interpretations.Meta.Conversation[1].Content)
}

func TestSaveReflectionIgnoresCallerCancellation(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "x"}), provider.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.SaveReflection(ctx, id, "离开前的最后一笔")

	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "离开前的最后一笔", rd.Reflection)
}

func TestAppendFollowUpRequiresQuestion(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "x"}), provider.Options{})

	_, err := c.AppendFollowUp(context.Background(), id, "")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "question", valErr.Field)
}

func TestCoordinatorNoOpWithoutReadingID(t *testing.T) {
	store := newMemoryStore()
	stub := &stubProvider{text: "不应被调用"}
	c := NewCoordinator(store, newTestRegistry(stub), provider.Options{})

	// id 为零：没有可更新的对象，三类操作都静默跳过
	entry, err := c.GenerateStyle(context.Background(), 0, reading.StyleJungian)
	require.NoError(t, err)
	assert.Nil(t, entry)

	reply, err := c.AppendFollowUp(context.Background(), 0, "有人在吗？")
	require.NoError(t, err)
	assert.Empty(t, reply)

	c.SaveReflection(context.Background(), 0, "随手记一笔")

	assert.Zero(t, stub.calls)
	assert.Zero(t, store.rowCount())
}

func TestSaveReflectionColumnIsAuthoritative(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "x"}), provider.Options{})
	c.SaveReflection(context.Background(), id, "第一版反思")
	c.SaveReflection(context.Background(), id, "修订后的反思")

	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "修订后的反思", rd.Reflection)
	assert.Equal(t, "修订后的反思", rd.Interpretations.Meta.Reflection)
	assert.True(t, rd.HasReflection())
}

func TestReflectionSaverDebouncesEdits(t *testing.T) {
	store := newMemoryStore()
	id := seedReading(t, store)

	c := NewCoordinator(store, newTestRegistry(&stubProvider{text: "x"}), provider.Options{})
	saver := &ReflectionSaver{
		coordinator: c,
		readingID:   id,
		debouncer:   debounce.New(30 * time.Millisecond),
	}
	defer saver.Close()

	// 连续键入，静默期内只有最后一次内容落盘
	saver.Edit("第")
	saver.Edit("第一")
	saver.Edit("第一印象很准")

	time.Sleep(100 * time.Millisecond)

	rd, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "第一印象很准", rd.Reflection)
}

package divination

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"oracle/app/models/reading"
	"oracle/app/models/user"
	"oracle/pkg/logger"
	"oracle/pkg/provider"
)

func TestMain(m *testing.M) {
	logger.InitLogger(os.TempDir()+"/oracle-divination-test.log", 1, 1, 1, false, "single", "error")
	os.Exit(m.Run())
}

// memoryStore ReadingStore 的内存实现，模拟仓库的行级语义
type memoryStore struct {
	mu          sync.Mutex
	nextID      uint64
	rows        map[uint64]*reading.Reading
	createCalls int

	failRecent  bool
	failUpdates bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[uint64]*reading.Reading)}
}

func cloneReading(rd *reading.Reading) *reading.Reading {
	data, _ := json.Marshal(rd)
	var c reading.Reading
	_ = json.Unmarshal(data, &c)
	// Interpretation 列被 json:"-" 屏蔽，手工带过去
	c.Interpretation = rd.Interpretation
	return &c
}

func (s *memoryStore) Create(ctx context.Context, rd *reading.Reading) error {
	// 模拟 gorm WithContext：上下文已取消时拒绝执行
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if err := rd.Validate(); err != nil {
		return err
	}

	s.nextID++
	rd.ID = s.nextID
	rd.CreatedAt = time.Now()
	s.rows[rd.ID] = cloneReading(rd)
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id uint64) (*reading.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.rows[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	c := cloneReading(rd)
	c.NormalizeLegacy()
	return c, nil
}

func (s *memoryStore) QueryRecent(ctx context.Context, userID string, limit int) ([]reading.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failRecent {
		return nil, errors.New("history unavailable")
	}

	var out []reading.Reading
	for _, rd := range s.rows {
		if rd.UserID == userID && len(out) < limit {
			out = append(out, *cloneReading(rd))
		}
	}
	return out, nil
}

func (s *memoryStore) UpdateInterpretations(ctx context.Context, id uint64, interps reading.Interpretations) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpdates {
		return errors.New("update failed")
	}
	rd, ok := s.rows[id]
	if !ok {
		return errors.New("record not found")
	}

	data, _ := json.Marshal(interps)
	var c reading.Interpretations
	_ = json.Unmarshal(data, &c)
	rd.Interpretations = c
	return nil
}

func (s *memoryStore) UpdateReflection(ctx context.Context, id uint64, text string, addedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpdates {
		return errors.New("update failed")
	}
	rd, ok := s.rows[id]
	if !ok {
		return errors.New("record not found")
	}
	rd.Reflection = text
	rd.ReflectionAddedAt = &addedAt
	return nil
}

func (s *memoryStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// memoryProfiles ProfileStore 的内存实现
type memoryProfiles struct {
	users map[string]*user.User
}

func (p *memoryProfiles) GetByID(ctx context.Context, id string) (*user.User, error) {
	if u, ok := p.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

// stubProvider 固定返回文本的生成后端，text 为空时模拟空响应体
type stubProvider struct {
	text  string
	calls int
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func (p *stubProvider) Generate(ctx context.Context, prompt, systemPrompt string, opts provider.Options) (*provider.Result, error) {
	// 模拟真实 HTTP 客户端：上下文已取消时中止调用
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.calls++
	if p.text == "" {
		return &provider.Result{Provider: "stub", Model: "stub-model"}, nil
	}
	return &provider.Result{
		Text:       p.text,
		TokensUsed: provider.TokenUsage{Input: 50, Output: 200},
		Provider:   "stub",
		Model:      "stub-model",
	}, nil
}

func newTestRegistry(p provider.Provider) *provider.Registry {
	r := provider.NewRegistry()
	r.Register(p.Name(), p)
	return r
}

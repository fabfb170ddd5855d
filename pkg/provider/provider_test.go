package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"oracle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger(os.TempDir()+"/oracle-provider-test.log", 1, 1, 1, false, "single", "error")
	os.Exit(m.Run())
}

// fakeProvider 可编程的假后端
type fakeProvider struct {
	name     string
	failures int // 先失败的次数
	calls    int
	result   *Result
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Generate(ctx context.Context, prompt, systemPrompt string, opts Options) (*Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("backend unavailable")
	}
	return f.result, nil
}

func newTestRegistry(p Provider) (*Registry, *int) {
	r := NewRegistry()
	sleeps := 0
	r.backoff = func(attempt int) time.Duration {
		sleeps++
		return 0
	}
	if p != nil {
		r.Register(p.Name(), p)
	}
	return r, &sleeps
}

func TestGenerateNoActiveProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Generate(context.Background(), "prompt", "", Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateSucceedsAfterTwoFailures(t *testing.T) {
	fake := &fakeProvider{
		name:     "fake",
		failures: 2,
		result:   &Result{Text: "answer", TokensUsed: TokenUsage{Input: 10, Output: 20}, Provider: "fake", Model: "fake-model"},
	}
	r, sleeps := newTestRegistry(fake)

	result, err := r.Generate(context.Background(), "prompt", "system", Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Text)
	assert.Equal(t, 30, result.TokensUsed.Total())
	assert.Equal(t, 3, fake.calls)
	// 两次失败之间各等待一次
	assert.Equal(t, 2, *sleeps)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	fake := &fakeProvider{name: "fake", failures: 10}
	r, sleeps := newTestRegistry(fake)

	_, err := r.Generate(context.Background(), "prompt", "", Options{})
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "fake", genErr.Provider)
	assert.Equal(t, 3, genErr.Attempts)
	// 恰好 3 次尝试、2 次等待
	assert.Equal(t, 3, fake.calls)
	assert.Equal(t, 2, *sleeps)
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	first := &fakeProvider{name: "gemini", result: &Result{Text: "first"}}
	second := &fakeProvider{name: "gemini", result: &Result{Text: "second"}}

	r, _ := newTestRegistry(first)
	r.Register("gemini", second)

	result, err := r.Generate(context.Background(), "prompt", "", Options{})
	require.NoError(t, err)
	assert.Equal(t, "second", result.Text)
}

func TestSetActiveUnknownProvider(t *testing.T) {
	r, _ := newTestRegistry(&fakeProvider{name: "fake", result: &Result{}})
	assert.Error(t, r.SetActive("missing"))
	assert.NoError(t, r.SetActive("fake"))
}

func TestGeminiParsesUsageMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "三张牌的解读……"}]}}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 450}
		}`))
	}))
	defer server.Close()

	g := NewGemini(GeminiConfig{BaseURL: server.URL, APIKey: "test-key", Model: "gemini-pro"})
	result, err := g.Generate(context.Background(), "prompt", "system", Options{Temperature: 0.8, MaxTokens: 1024})
	require.NoError(t, err)

	assert.Equal(t, "三张牌的解读……", result.Text)
	assert.Equal(t, 120, result.TokensUsed.Input)
	assert.Equal(t, 450, result.TokensUsed.Output)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, "gemini-pro", result.Model)
}

func TestGeminiEmptyBodyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	g := NewGemini(GeminiConfig{BaseURL: server.URL, APIKey: "test-key", Model: "gemini-pro"})
	result, err := g.Generate(context.Background(), "prompt", "", Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Text)
	assert.Zero(t, result.TokensUsed.Total())
}

func TestGeminiNon2xxIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := NewGemini(GeminiConfig{BaseURL: server.URL, APIKey: "test-key", Model: "gemini-pro"})
	_, err := g.Generate(context.Background(), "prompt", "", Options{})
	assert.Error(t, err)
}

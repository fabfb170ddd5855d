package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerSharesQueueServiceMetrics(t *testing.T) {
	qs := &QueueService{metrics: NewQueueMetrics()}
	w := NewWorker(qs, nil, WorkerConfig{})

	// 推送侧与工作器侧必须是同一个收集器，
	// 否则 StartWaitTime 记下的起点永远取不到
	require.Same(t, qs.metrics, w.metrics)

	qs.metrics.StartWaitTime("task-1")
	_, ok := w.metrics.waitTimeStart.Load(TaskID("task-1"))
	assert.True(t, ok)
}

func TestEndWaitTimeUpdatesAverage(t *testing.T) {
	m := NewQueueMetrics()

	m.StartWaitTime("task-1")
	time.Sleep(5 * time.Millisecond)
	m.EndWaitTime("task-1")

	assert.Greater(t, m.avgWaitTime.Load(), int64(0))

	// 起点只能消费一次
	_, ok := m.waitTimeStart.Load(TaskID("task-1"))
	assert.False(t, ok)
}

func TestLatencyStatsConcurrentRecord(t *testing.T) {
	s := &LatencyStats{}

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.record(time.Duration(i) * time.Millisecond)
		}(i)
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, int64(100), s.count)
	assert.Equal(t, 1*time.Millisecond, s.min)
	assert.Equal(t, 100*time.Millisecond, s.max)
	assert.Equal(t, 5050*time.Millisecond, s.total)
}

package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"oracle/app/models/reading"
	"oracle/pkg/logger"
)

// contextKey 自定义上下文键类型
type contextKey string

// 预定义上下文键
const (
	taskIDKey contextKey = "task_id"
)

// StyleGenerator 执行风格补生成的组件，由解读协调器实现
type StyleGenerator interface {
	GenerateStyle(ctx context.Context, readingID uint64, style string) (*reading.StyleEntry, error)
}

// Worker 队列工作器
type Worker struct {
	queueService *QueueService
	generator    StyleGenerator
	stopChan     chan struct{}
	workerCount  int           // 工作器数量
	metrics      *QueueMetrics // 性能指标
	wg           sync.WaitGroup
	config       WorkerConfig
}

// WorkerConfig 工作器配置
type WorkerConfig struct {
	WorkerCount     int           // 并发工作器数量
	MaxRetries      int           // 最大重试次数
	RetryInterval   time.Duration // 重试间隔
	ShutdownTimeout time.Duration // 关闭超时时间
	BatchSize       int           // 批处理大小
	MaxQueueSize    int           // 最大队列长度
}

// NewWorker 创建新的工作器组
func NewWorker(qs *QueueService, gen StyleGenerator, config WorkerConfig) *Worker {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 10 // 默认工作器数量
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10 // 默认批处理大小
	}
	if config.MaxQueueSize <= 0 {
		config.MaxQueueSize = 10000 // 默认最大队列长度
	}

	return &Worker{
		queueService: qs,
		generator:    gen,
		stopChan:     make(chan struct{}),
		workerCount:  config.WorkerCount,
		// 与队列服务共用同一个收集器，推送侧记录的等待起点
		// 才能被工作器侧的 EndWaitTime 取到
		metrics: qs.metrics,
		config:  config,
	}
}

// Start 启动工作器组
func (w *Worker) Start() {
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.startWorker(i)
	}
}

// startWorker 启动单个工作器
func (w *Worker) startWorker(id int) {
	defer w.wg.Done()

	logger.InfoString("Worker", "Start", fmt.Sprintf("Worker %d started", id))

	errorChan := make(chan error, 100)

	for {
		select {
		case <-w.stopChan:
			logger.InfoString("Worker", "Stop", fmt.Sprintf("Worker %d stopping", id))
			return

		case err := <-errorChan:
			logger.ErrorString("Worker", "Error", fmt.Sprintf("Worker %d error: %v", id, err))
			time.Sleep(time.Second) // 错误恢复延迟

		default:
			if err := w.processNextTask(); err != nil {
				select {
				case errorChan <- err:
				default:
					logger.ErrorString("Worker", "ErrorBuffer", "Error buffer full")
				}
			}
		}
	}
}

// processNextTask 取出并处理下一个任务
func (w *Worker) processNextTask() error {
	start := time.Now()
	defer func() {
		w.metrics.RecordProcessingTime(time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	taskChan := make(chan *StyleTask, w.config.BatchSize)
	errChan := make(chan error, 1)

	// 异步获取任务
	go func() {
		task, err := w.queueService.PopTask(ctx)
		if err != nil {
			if err != redis.Nil {
				errChan <- fmt.Errorf("pop task error: %w", err)
			}
			close(taskChan)
			return
		}
		taskChan <- task
		close(taskChan)
	}()

	select {
	case err := <-errChan:
		return err
	case task, ok := <-taskChan:
		if !ok {
			time.Sleep(100 * time.Millisecond) // 避免空队列时的忙等
			return nil
		}
		return w.handleTask(ctx, task)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleTask 处理单个任务
func (w *Worker) handleTask(ctx context.Context, task *StyleTask) error {
	w.metrics.EndWaitTime(TaskID(task.ID))

	taskCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	// 更新状态为处理中
	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskRunning, ""); err != nil {
		return fmt.Errorf("update task status error: %w", err)
	}

	result, err := w.processTask(taskCtx, task)
	if err != nil {
		w.metrics.RecordError(OpProcess)
		if updateErr := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskFailed, err.Error()); updateErr != nil {
			logger.ErrorString("Worker", "UpdateStatus", updateErr.Error())
		}
		return fmt.Errorf("process task error: %w", err)
	}

	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskCompleted, result); err != nil {
		return fmt.Errorf("update task result error: %w", err)
	}

	w.metrics.RecordSuccess(OpProcess)
	return nil
}

// processTask 调用协调器补生成风格，落盘由协调器自己负责
func (w *Worker) processTask(ctx context.Context, task *StyleTask) (string, error) {
	// 添加追踪信息 - 使用自定义类型的键
	ctx = context.WithValue(ctx, taskIDKey, task.ID)

	entry, err := w.generator.GenerateStyle(ctx, task.ReadingID, task.Style)
	if err != nil {
		return "", fmt.Errorf("style generation error: %w", err)
	}
	if entry == nil {
		return "", fmt.Errorf("reading %d not found", task.ReadingID)
	}

	return entry.Content, nil
}

// Stop 优雅关闭工作器组
func (w *Worker) Stop() {
	close(w.stopChan)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	timeout := time.After(30 * time.Second)

	select {
	case <-done:
		logger.InfoString("Worker", "Stop", "All workers stopped gracefully")
	case <-timeout:
		logger.WarnString("Worker", "Stop", "Worker shutdown timed out")
	}
}

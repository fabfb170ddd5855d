package bootstrap

import (
	"time"

	"oracle/app/divination"
	"oracle/app/repositories"
	"oracle/pkg/config"
	"oracle/pkg/logger"
	"oracle/pkg/provider"
	"oracle/pkg/queue"
	"oracle/pkg/redis"
)

// SetupQueue 启动风格补生成的队列工作器组
//
// 依赖 Redis 与生成后端注册表，必须在 SetupRedis 与 SetupProvider 之后调用。
func SetupQueue() {
	if redis.Manager == nil {
		logger.ErrorString("Queue", "Setup", "Redis manager not initialized")
		return
	}

	registry := provider.Default()
	if registry == nil {
		logger.ErrorString("Queue", "Setup", "Provider registry not initialized")
		return
	}

	queueService := queue.NewQueueService()

	// 工作器通过协调器补生成风格，落盘语义由协调器保证
	coordinator := divination.NewCoordinator(
		repositories.NewReadingRepository(),
		registry,
		GenerationOptions(),
	)

	worker := queue.NewWorker(queueService, coordinator, queue.WorkerConfig{
		WorkerCount:     config.GetInt("queue.worker_count", 10),
		MaxRetries:      config.GetInt("queue.retry_times", 3),
		RetryInterval:   time.Duration(config.GetInt("queue.retry_delay", 1)) * time.Second,
		ShutdownTimeout: 30 * time.Second,
		BatchSize:       10,
		MaxQueueSize:    10000,
	})

	go worker.Start()

	logger.InfoString("Queue", "Setup", "队列服务启动成功")
}

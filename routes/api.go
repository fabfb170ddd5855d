package routes

import (
	"oracle/app/http/controllers/api/v1/divination"
	"oracle/app/http/middlewares"

	"github.com/gin-gonic/gin"
)

// 路由限流配置
const (
	// 全局限流：每小时每IP 30000 请求
	GlobalRateLimit = "30000-H"
	// 创建解读限流：每小时每IP 100 请求
	CreateReadingLimit = "100-H"
	// 查询类限流：每分钟每IP 300 请求
	QueryResultLimit = "300-M"
	// 生成类增量操作限流：每分钟每IP 30 请求
	MutationLimit = "30-M"
)

// RegisterAPIRoutes 注册所有 API 路由
func RegisterAPIRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.Recovery(),
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	// 占卜解读相关路由
	divinationRoutes := v1.Group("/divination")
	{
		rc := divination.NewReadingController()

		// 创建解读（同步生成首份解读）
		// POST /v1/divination/readings
		divinationRoutes.POST("/readings",
			middlewares.LimitIP(CreateReadingLimit),
			rc.Store,
		)

		// 获取单条解读
		// GET /v1/divination/readings/:id
		divinationRoutes.GET("/readings/:id",
			middlewares.LimitIP(QueryResultLimit),
			rc.Show,
		)

		// 入队补生成另一种解读风格
		// POST /v1/divination/readings/:id/styles
		divinationRoutes.POST("/readings/:id/styles",
			middlewares.LimitIP(MutationLimit),
			rc.EnqueueStyle,
		)

		// 追问对话
		// POST /v1/divination/readings/:id/conversation
		divinationRoutes.POST("/readings/:id/conversation",
			middlewares.LimitIP(MutationLimit),
			rc.FollowUp,
		)

		// 保存反思
		// PUT /v1/divination/readings/:id/reflection
		divinationRoutes.PUT("/readings/:id/reflection",
			middlewares.LimitIP(MutationLimit),
			rc.SaveReflection,
		)

		// 风格补生成任务状态
		// GET /v1/divination/tasks/:task_id
		divinationRoutes.GET("/tasks/:task_id",
			middlewares.LimitIP(QueryResultLimit),
			rc.GetTaskStatus,
		)

		// 用户历史
		v1.GET("/users/:user_id/readings", rc.GetHistory)

		// 健康检查
		v1.GET("/health", rc.HealthCheck)
	}
}

package divination

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"oracle/app/divination"
	"oracle/app/repositories"
	"oracle/app/requests"
	"oracle/pkg/config"
	"oracle/pkg/provider"
	"oracle/pkg/queue"
	"oracle/pkg/response"
)

// ReadingController 占卜解读控制器
//
// 首次解读同步执行并返回完整内容；其余风格走队列异步补生成，
// 追问与反思由协调器做增量合并。
type ReadingController struct {
	systems      map[string]divination.System
	coordinator  *divination.Coordinator
	queueService *queue.QueueService
	readings     *repositories.ReadingRepository
}

// NewReadingController 创建控制器实例
func NewReadingController() *ReadingController {
	store := repositories.NewReadingRepository()
	profiles := repositories.NewUserRepository()
	registry := provider.Default()

	genOpts := provider.Options{
		Temperature: config.GetFloat64("gemini.temperature"),
		MaxTokens:   config.GetInt("gemini.max_tokens"),
	}

	return &ReadingController{
		systems: map[string]divination.System{
			divination.SystemTarot: divination.NewTarot(store, profiles, registry, genOpts),
			divination.SystemRunes: divination.NewRunes(store, registry, genOpts),
		},
		coordinator:  divination.NewCoordinator(store, registry, genOpts),
		queueService: queue.NewQueueService(),
		readings:     store,
	}
}

// Store 创建解读：抽取元素并同步生成首份解读
func (rc *ReadingController) Store(c *gin.Context) {
	request, err := requests.ValidateDivinationReading(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	sys, ok := rc.systems[request.SystemID]
	if !ok {
		response.Abort400(c, "不支持的占卜系统")
		return
	}

	rd, err := divination.Execute(c.Request.Context(), sys, divination.Request{
		UserID:   request.UserID,
		SystemID: request.SystemID,
		Question: request.Question,
		Language: request.Language,
		Spread:   request.Spread,
		Style:    request.Style,
		Tier:     request.Tier,
	})
	if err != nil {
		rc.abortPipelineError(c, err)
		return
	}

	response.Created(c, rd, "解读创建成功")
}

// Show 获取单条解读
func (rc *ReadingController) Show(c *gin.Context) {
	id, ok := rc.readingID(c)
	if !ok {
		return
	}

	rd, err := rc.readings.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Abort404(c, "解读不存在")
		return
	}

	response.Data(c, rd)
}

// GetHistory 获取用户历史记录
func (rc *ReadingController) GetHistory(c *gin.Context) {
	page := c.DefaultQuery("page", "1")
	pageSize := c.DefaultQuery("page_size", "10")

	pageNum, _ := strconv.Atoi(page)
	size, _ := strconv.Atoi(pageSize)

	if pageNum < 1 {
		pageNum = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	userID := c.Param("user_id")
	if userID == "" {
		response.Abort400(c, "用户ID不能为空")
		return
	}

	readings, total, err := rc.readings.GetByUserID(c.Request.Context(), userID, pageNum, size)
	if err != nil {
		response.Abort500(c, "获取历史记录失败")
		return
	}

	response.Data(c, gin.H{
		"data": readings,
		"meta": gin.H{
			"total":     total,
			"page":      pageNum,
			"page_size": size,
		},
	})
}

// EnqueueStyle 为已有解读入队补生成一种风格
//
// 风格已存在时不入队，直接返回既有内容。
func (rc *ReadingController) EnqueueStyle(c *gin.Context) {
	id, ok := rc.readingID(c)
	if !ok {
		return
	}

	request, err := requests.ValidateStyleGeneration(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	rd, err := rc.readings.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Abort404(c, "解读不存在")
		return
	}

	if entry, exists := rd.Interpretations.Styles[request.Style]; exists {
		response.Data(c, gin.H{
			"reading_id": id,
			"style":      request.Style,
			"entry":      entry,
		})
		return
	}

	task := &queue.StyleTask{
		ID:        uuid.New().String(),
		ReadingID: id,
		UserID:    rd.UserID,
		Style:     request.Style,
		Status:    queue.TaskPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := rc.queueService.PushTask(c.Request.Context(), task); err != nil {
		response.Abort500(c, "任务入队失败")
		return
	}

	response.Data(c, gin.H{
		"task_id": task.ID,
		"message": "任务已成功加入队列",
	})
}

// FollowUp 追加一轮追问对话，同步返回回答
func (rc *ReadingController) FollowUp(c *gin.Context) {
	id, ok := rc.readingID(c)
	if !ok {
		return
	}

	request, err := requests.ValidateFollowUp(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	reply, err := rc.coordinator.AppendFollowUp(c.Request.Context(), id, request.Question)
	if err != nil {
		var valErr *divination.ValidationError
		if errors.As(err, &valErr) {
			response.Abort400(c, "追问内容不能为空")
			return
		}
		response.ServerError(c, err, "追问处理失败")
		return
	}

	response.Data(c, gin.H{
		"reading_id": id,
		"answer":     reply,
	})
}

// SaveReflection 保存用户反思，尽力而为
func (rc *ReadingController) SaveReflection(c *gin.Context) {
	id, ok := rc.readingID(c)
	if !ok {
		return
	}

	request, err := requests.ValidateReflection(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	rc.coordinator.SaveReflection(c.Request.Context(), id, request.Reflection)

	response.Data(c, gin.H{
		"reading_id": id,
		"message":    "反思已保存",
	})
}

// GetTaskStatus 获取风格补生成任务的状态与结果
func (rc *ReadingController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		response.Abort400(c, "缺少任务 ID")
		return
	}

	progress, err := rc.queueService.GetTaskProgress(c.Request.Context(), taskID)
	if err != nil {
		response.Abort500(c, "获取任务进度失败")
		return
	}
	if progress.Status == "" {
		response.Abort404(c, "任务不存在")
		return
	}

	response.Data(c, progress)
}

// HealthCheck 健康检查端点
func (rc *ReadingController) HealthCheck(c *gin.Context) {
	if err := rc.queueService.Ping(c.Request.Context()); err != nil {
		response.Abort500(c, "Queue service unavailable")
		return
	}

	if _, err := provider.Default().Active(); err != nil {
		response.Abort500(c, "Generation backend unavailable")
		return
	}

	response.Data(c, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// readingID 解析路径中的解读 ID
func (rc *ReadingController) readingID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Abort400(c, "无效的解读 ID")
		return 0, false
	}
	return id, true
}

// abortPipelineError 把流水线错误映射为 HTTP 响应
func (rc *ReadingController) abortPipelineError(c *gin.Context, err error) {
	var valErr *divination.ValidationError
	if errors.As(err, &valErr) {
		response.ValidationError(c, map[string][]string{
			valErr.Field: {valErr.Error()},
		})
		return
	}
	response.ServerError(c, err, "解读生成失败")
}

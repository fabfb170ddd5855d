package divination

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oracle/app/models/user"
	"oracle/pkg/logger"
)

// enrichmentTimeout 增补类读取的客户端超时
//
// 超时或失败时降级为"无上下文"，绝不让增补拖垮整个占卜流程。
const enrichmentTimeout = 2 * time.Second

// Enricher 增补上下文读取器：历史解读摘要与用户出生资料
type Enricher struct {
	readings ReadingStore
	profiles ProfileStore
}

// NewEnricher 创建增补读取器
func NewEnricher(readings ReadingStore, profiles ProfileStore) *Enricher {
	return &Enricher{
		readings: readings,
		profiles: profiles,
	}
}

// RecentSummary 取回用户最近几次解读的文本摘要，失败时返回空串
func (e *Enricher) RecentSummary(ctx context.Context, userID string, limit int) string {
	ctx, cancel := context.WithTimeout(ctx, enrichmentTimeout)
	defer cancel()

	readings, err := e.readings.QueryRecent(ctx, userID, limit)
	if err != nil {
		logger.WarnString("Enrichment", "RecentSummary", fmt.Sprintf(
			"历史记录读取失败，降级为无上下文 用户:%s 错误:%v", userID, err))
		return ""
	}

	var sb strings.Builder
	for _, rd := range readings {
		codes := make([]string, 0, len(rd.Elements))
		for _, el := range rd.Elements {
			codes = append(codes, el.Title)
		}

		line := fmt.Sprintf("- %s %s", rd.CreatedAt.Format("2006-01-02"), strings.Join(codes, " / "))
		if rd.Question != "" {
			line += fmt.Sprintf("，问题：%s", rd.Question)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// Profile 取回用户资料，失败时返回 nil
func (e *Enricher) Profile(ctx context.Context, userID string) *user.User {
	if e.profiles == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, enrichmentTimeout)
	defer cancel()

	u, err := e.profiles.GetByID(ctx, userID)
	if err != nil {
		logger.WarnString("Enrichment", "Profile", fmt.Sprintf(
			"用户资料读取失败，降级为无上下文 用户:%s 错误:%v", userID, err))
		return nil
	}
	return u
}

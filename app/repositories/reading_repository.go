package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"oracle/app/models/reading"
	"oracle/pkg/database"
)

// ReadingRepository 占卜解读记录仓库
//
// 提供行级的插入与按列修补；增量更新只写 interpretations 单列，
// 不整行覆盖，把并发合并的影响面压缩到单个 JSON 列。
type ReadingRepository struct {
	db *gorm.DB
}

// NewReadingRepository 创建仓库实例
func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{
		db: database.DB,
	}
}

// Create 插入解读记录，成功后 reading.ID 被填充
func (r *ReadingRepository) Create(ctx context.Context, rd *reading.Reading) error {
	return r.db.WithContext(ctx).Create(rd).Error
}

// GetByID 按主键获取解读记录
func (r *ReadingRepository) GetByID(ctx context.Context, id uint64) (*reading.Reading, error) {
	var rd reading.Reading
	if err := r.db.WithContext(ctx).First(&rd, id).Error; err != nil {
		return nil, err
	}
	return &rd, nil
}

// GetByUserID 获取用户的历史记录（分页）
func (r *ReadingRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int) ([]reading.Reading, int64, error) {
	var readings []reading.Reading
	var total int64

	query := r.db.WithContext(ctx).Model(&reading.Reading{}).Where("user_id = ?", userID)

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&readings).Error

	return readings, total, err
}

// QueryRecent 获取用户最近的解读，供 LoadContext 阶段做连续性增补
func (r *ReadingRepository) QueryRecent(ctx context.Context, userID string, limit int) ([]reading.Reading, error) {
	var readings []reading.Reading
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&readings).Error
	return readings, err
}

// UpdateInterpretations 只修补 interpretations 列
//
// 调用方负责先取回文档、只改动自己拥有的子键再传入完整文档。
// 取回与写入之间没有版本令牌，并发时同一子键后写者胜出。
func (r *ReadingRepository) UpdateInterpretations(ctx context.Context, id uint64, interps reading.Interpretations) error {
	return r.db.WithContext(ctx).
		Model(&reading.Reading{}).
		Where("id = ?", id).
		Update("interpretations", interps).Error
}

// UpdateReflection 修补反思列及其时间戳
func (r *ReadingRepository) UpdateReflection(ctx context.Context, id uint64, text string, addedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&reading.Reading{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reflection":          text,
			"reflection_added_at": addedAt,
		}).Error
}

// 占卜解读记录
package reading

import (
	"time"

	"oracle/app/models"

	"gorm.io/gorm"
)

// Reading 占卜解读记录模型
//
// interpretations 列是随时间演进的 JSON 文档：按风格键存放多份解读，
// 保留键 _metadata 存放追问对话、反思镜像等簿记信息。
// 行在第一份解读生成成功后才插入，此后只通过增量合并更新。
type Reading struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   string `gorm:"type:varchar(36);index" json:"user_id"`   // 用户ID，普通索引
	SystemID string `gorm:"type:varchar(20);index" json:"system_id"` // 占卜系统（tarot / runes）
	Question string `gorm:"type:text" json:"question"`               // 问题，可为空
	Language string `gorm:"type:varchar(10)" json:"language"`        // 解读语言

	Elements        Elements        `gorm:"type:json" json:"elements"`        // 抽取的元素，写入一次后不可变
	Interpretations Interpretations `gorm:"type:json" json:"interpretations"` // 多风格解读文档
	Interpretation  string          `gorm:"type:text" json:"-"`               // 旧版单字符串解读，仅作兼容读取

	Reflection        string     `gorm:"type:text" json:"reflection"` // 用户反思，权威存储位置
	ReflectionAddedAt *time.Time `json:"reflection_added_at"`

	models.CommonTimestampsField // 包含 created_at 和 updated_at
}

// TableName 指定表名
func (Reading) TableName() string {
	return "readings"
}

// BeforeSave GORM 钩子
func (r *Reading) BeforeSave(tx *gorm.DB) error {
	return r.Validate()
}

// AfterFind GORM 钩子，读取时完成旧版数据的兼容转换
func (r *Reading) AfterFind(tx *gorm.DB) error {
	r.NormalizeLegacy()
	return nil
}

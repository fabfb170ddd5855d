// Package user 存放用户 Model 相关逻辑
package user

import (
	"time"

	"oracle/app/models"
)

// User 用户模型
//
// 出生信息仅作为解读时的增补上下文（LoadContext 阶段读取），
// 缺失时不影响占卜流程。
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Email     string `gorm:"unique;type:varchar(255)"`
	Nickname  string `gorm:"type:varchar(50)"`
	AvatarURL string `gorm:"type:text"`
	Tier      string `gorm:"type:varchar(20);default:free;index"` // 当前层级（free / premium）

	// 出生上下文，用于占星风味的解读增补
	BirthDate     *time.Time `gorm:"type:date"`
	BirthTime     string     `gorm:"type:varchar(8)"`   // HH:MM，可为空
	BirthLocation string     `gorm:"type:varchar(100)"` // 出生地描述

	models.CommonTimestampsField
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// HasBirthContext 检查出生上下文是否完整到可用于解读增补
func (u *User) HasBirthContext() bool {
	return u.BirthDate != nil
}

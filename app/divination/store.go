package divination

import (
	"context"
	"time"

	"oracle/app/models/reading"
	"oracle/app/models/user"
)

// ReadingStore 持久化协作方，按行插入与按列修补
//
// app/repositories.ReadingRepository 是生产实现，测试注入内存实现。
// 不要求跨行事务，只要求按 id 的等值过滤与单列更新。
type ReadingStore interface {
	Create(ctx context.Context, rd *reading.Reading) error
	GetByID(ctx context.Context, id uint64) (*reading.Reading, error)
	QueryRecent(ctx context.Context, userID string, limit int) ([]reading.Reading, error)
	UpdateInterpretations(ctx context.Context, id uint64, interps reading.Interpretations) error
	UpdateReflection(ctx context.Context, id uint64, text string, addedAt time.Time) error
}

// ProfileStore 用户资料协作方，只读
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

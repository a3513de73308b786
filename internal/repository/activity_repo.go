package repository

import (
	"context"

	"MemeArena/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityRepository 用户行为日志仓储（只追加）
type ActivityRepository interface {
	LogActivity(ctx context.Context, activity *model.UserActivity) error
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) LogActivity(ctx context.Context, activity *model.UserActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

package repository

import (
	"context"

	"MemeArena/internal/model"

	"gorm.io/gorm"
)

// LeaderboardRow get_leaderboard 存储过程返回的一行，字段原样透出
type LeaderboardRow struct {
	UserID                 string  `gorm:"column:user_id" json:"user_id"`
	Username               string  `gorm:"column:username" json:"username"`
	DisplayName            *string `gorm:"column:display_name" json:"display_name"`
	AvatarURL              *string `gorm:"column:avatar_url" json:"avatar_url"`
	Score                  int64   `gorm:"column:score" json:"score"`
	TotalVotesReceived     int64   `gorm:"column:total_votes_received" json:"total_votes_received"`
	TotalBattlesWon        int64   `gorm:"column:total_battles_won" json:"total_battles_won"`
	TotalMemesCreated      int64   `gorm:"column:total_memes_created" json:"total_memes_created"`
	TotalReactionsReceived int64   `gorm:"column:total_reactions_received" json:"total_reactions_received"`
	Rank                   int64   `gorm:"column:rank" json:"rank"`
}

// LeaderboardRepository 排行榜仓储，聚合逻辑在数据库存储过程中
type LeaderboardRepository interface {
	// GetLeaderboard 调用 get_leaderboard(limit_count)
	GetLeaderboard(ctx context.Context, limit int) ([]*LeaderboardRow, error)
	// GetEntryByUserID 查询用户的排行榜记录（带 profile）
	GetEntryByUserID(ctx context.Context, userID string) (*model.LeaderboardEntry, error)
	// CountHigherScores 统计分数严格高于 score 的记录数
	CountHigherScores(ctx context.Context, score int64) (int64, error)
	// RecomputeScore 调用 update_leaderboard_score(user_uuid)
	RecomputeScore(ctx context.Context, userID string) error
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository 创建排行榜仓储
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) GetLeaderboard(ctx context.Context, limit int) ([]*LeaderboardRow, error) {
	rows := make([]*LeaderboardRow, 0)
	if err := r.db.WithContext(ctx).
		Raw("SELECT * FROM get_leaderboard(?)", limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *leaderboardRepository) GetEntryByUserID(ctx context.Context, userID string) (*model.LeaderboardEntry, error) {
	var e model.LeaderboardEntry
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *leaderboardRepository) CountHigherScores(ctx context.Context, score int64) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.LeaderboardEntry{}).
		Where("score > ?", score).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *leaderboardRepository) RecomputeScore(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Exec("SELECT update_leaderboard_score(?)", userID).Error
}

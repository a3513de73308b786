package repository

import (
	"context"

	"MemeArena/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository 投票仓储
type VoteRepository interface {
	// CreateVote 依赖 uk_vote_battle_voter 原子插入；返回 false 表示该用户已在此对战投过票
	CreateVote(ctx context.Context, vote *model.Vote) (bool, error)
	ListVotesByBattle(ctx context.Context, battleID string) ([]*model.Vote, error)
	// CountVotesByMemeIDs 每个 Meme 跨对战累计获得的票数
	CountVotesByMemeIDs(ctx context.Context, memeIDs []string) (map[string]int64, error)
	// ListRecentVotesByVoter 用户最近的投票（带对战 id/title）
	ListRecentVotesByVoter(ctx context.Context, voterID string, limit int) ([]*model.Vote, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository 创建投票仓储
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) CreateVote(ctx context.Context, vote *model.Vote) (bool, error) {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *voteRepository) ListVotesByBattle(ctx context.Context, battleID string) ([]*model.Vote, error) {
	var votes []*model.Vote
	if err := r.db.WithContext(ctx).
		Where("battle_id = ?", battleID).
		Order("created_at ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepository) CountVotesByMemeIDs(ctx context.Context, memeIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(memeIDs))
	if len(memeIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		MemeID string
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Select("meme_id, COUNT(*) AS total").
		Where("meme_id IN ?", memeIDs).
		Group("meme_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.MemeID] = row.Total
	}
	return counts, nil
}

func (r *voteRepository) ListRecentVotesByVoter(ctx context.Context, voterID string, limit int) ([]*model.Vote, error) {
	var votes []*model.Vote
	if err := r.db.WithContext(ctx).
		Preload("Battle", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Where("voter_id = ?", voterID).
		Order("created_at DESC").
		Limit(limit).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

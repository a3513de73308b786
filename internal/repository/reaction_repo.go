package repository

import (
	"context"

	"MemeArena/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository 表情反应仓储
type ReactionRepository interface {
	// ToggleReaction 在同一事务内删除已有反应或插入新反应。
	// added=true 时返回新插入（或并发下已存在）的记录
	ToggleReaction(ctx context.Context, memeID, userID string, kind model.ReactionType) (reaction *model.Reaction, added bool, err error)
	ListReactionsByMeme(ctx context.Context, memeID string) ([]*model.Reaction, error)
	ListReactionsByMemeIDs(ctx context.Context, memeIDs []string) ([]*model.Reaction, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository 创建反应仓储
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) ToggleReaction(ctx context.Context, memeID, userID string, kind model.ReactionType) (*model.Reaction, bool, error) {
	var (
		reaction *model.Reaction
		added    bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("meme_id = ? AND user_id = ? AND reaction_type = ?", memeID, userID, kind).
			Delete(&model.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		rec := &model.Reaction{
			ID:           uuid.NewString(),
			MemeID:       memeID,
			UserID:       userID,
			ReactionType: kind,
		}
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 并发请求已插入同一反应，返回已存在的记录
			var existing model.Reaction
			if err := tx.Where("meme_id = ? AND user_id = ? AND reaction_type = ?", memeID, userID, kind).
				First(&existing).Error; err != nil {
				return err
			}
			rec = &existing
		}
		reaction = rec
		added = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return reaction, added, nil
}

func (r *reactionRepository) ListReactionsByMeme(ctx context.Context, memeID string) ([]*model.Reaction, error) {
	var reactions []*model.Reaction
	if err := r.db.WithContext(ctx).
		Where("meme_id = ?", memeID).
		Find(&reactions).Error; err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *reactionRepository) ListReactionsByMemeIDs(ctx context.Context, memeIDs []string) ([]*model.Reaction, error) {
	if len(memeIDs) == 0 {
		return nil, nil
	}
	var reactions []*model.Reaction
	if err := r.db.WithContext(ctx).
		Where("meme_id IN ?", memeIDs).
		Find(&reactions).Error; err != nil {
		return nil, err
	}
	return reactions, nil
}

package repository

import (
	"context"
	"time"

	"MemeArena/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BattleFilter 对战列表筛选条件
type BattleFilter struct {
	Status string // 可选：active / completed / cancelled
}

// BattleRepository 对战仓储接口
type BattleRepository interface {
	// GetBattleByID 只查对战本身
	GetBattleByID(ctx context.Context, id string) (*model.Battle, error)
	// GetBattleDetail 查对战并带出双方 Meme、创建者与全部投票
	GetBattleDetail(ctx context.Context, id string) (*model.Battle, error)
	// ListBattles 按创建时间倒序列出对战（带双方 Meme 与投票）
	ListBattles(ctx context.Context, filter BattleFilter, limit int) ([]*model.Battle, error)
	CreateBattle(ctx context.Context, battle *model.Battle) error
	// UpdateBattleStatus 更新状态与 updated_at，返回更新后的记录
	UpdateBattleStatus(ctx context.Context, id, status string, at time.Time) (*model.Battle, error)
	// CompleteExpiredBattles 将已过 ends_at 且仍为 active 的对战一次性置为 completed
	CompleteExpiredBattles(ctx context.Context, now time.Time) (int64, error)
	// CountBattlesByMemeIDs 统计每个 Meme 参与的对战数
	CountBattlesByMemeIDs(ctx context.Context, memeIDs []string) (map[string]int64, error)
	// ListSitemapBattles 最近的 active 对战（sitemap 用）
	ListSitemapBattles(ctx context.Context, limit int) ([]*model.Battle, error)
}

type battleRepository struct {
	db *gorm.DB
}

// NewBattleRepository 创建 BattleRepository 实例
func NewBattleRepository(db *gorm.DB) BattleRepository {
	return &battleRepository{db: db}
}

func (r *battleRepository) GetBattleByID(ctx context.Context, id string) (*model.Battle, error) {
	var b model.Battle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *battleRepository) GetBattleDetail(ctx context.Context, id string) (*model.Battle, error) {
	var b model.Battle
	if err := r.db.WithContext(ctx).
		Preload("MemeA.Creator").
		Preload("MemeB.Creator").
		Preload("Creator").
		Preload("Votes").
		Where("id = ?", id).
		First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *battleRepository) ListBattles(ctx context.Context, filter BattleFilter, limit int) ([]*model.Battle, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := r.db.WithContext(ctx).Model(&model.Battle{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	var battles []*model.Battle
	if err := db.
		Preload("MemeA.Creator").
		Preload("MemeB.Creator").
		Preload("Votes").
		Order("created_at DESC").
		Limit(limit).
		Find(&battles).Error; err != nil {
		return nil, err
	}
	return battles, nil
}

func (r *battleRepository) CreateBattle(ctx context.Context, battle *model.Battle) error {
	if battle.ID == "" {
		battle.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(battle).Error
}

func (r *battleRepository) UpdateBattleStatus(ctx context.Context, id, status string, at time.Time) (*model.Battle, error) {
	res := r.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetBattleByID(ctx, id)
}

func (r *battleRepository) CompleteExpiredBattles(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Battle{}).
		Where("status = ? AND ends_at < ?", model.BattleStatusActive, now).
		Updates(map[string]interface{}{
			"status":     model.BattleStatusCompleted,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *battleRepository) CountBattlesByMemeIDs(ctx context.Context, memeIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(memeIDs))
	if len(memeIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		MemeID string
		Total  int64
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT t.meme_id, COUNT(*) AS total FROM (
			SELECT meme_a_id AS meme_id FROM battles WHERE meme_a_id IN ?
			UNION ALL
			SELECT meme_b_id AS meme_id FROM battles WHERE meme_b_id IN ?
		) t GROUP BY t.meme_id`, memeIDs, memeIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.MemeID] = row.Total
	}
	return counts, nil
}

func (r *battleRepository) ListSitemapBattles(ctx context.Context, limit int) ([]*model.Battle, error) {
	var battles []*model.Battle
	if err := r.db.WithContext(ctx).
		Select("id", "updated_at").
		Where("status = ?", model.BattleStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&battles).Error; err != nil {
		return nil, err
	}
	return battles, nil
}

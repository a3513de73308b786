package repository

import (
	"context"

	"MemeArena/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Meme 列表可用的排序键
const (
	MemeSortCreatedAt = "created_at"
	MemeSortVotes     = "votes"
	MemeSortReactions = "reactions"
)

// memeSortExprs 排序白名单：排序键 -> ORDER BY 表达式
var memeSortExprs = map[string]string{
	MemeSortCreatedAt: "memes.created_at",
	MemeSortVotes:     "(SELECT COUNT(*) FROM votes WHERE votes.meme_id = memes.id)",
	MemeSortReactions: "(SELECT COUNT(*) FROM reactions WHERE reactions.meme_id = memes.id)",
}

// MemeFilter Meme 列表筛选与排序
type MemeFilter struct {
	Search    string // 标题模糊匹配（ILIKE）
	SortBy    string // 白名单外的值回退为 created_at
	Ascending bool
}

// MemeRepository Meme 仓储
type MemeRepository interface {
	GetMemeByID(ctx context.Context, id string) (*model.Meme, error)
	// GetMemeDetail 查询 Meme 并带出创建者
	GetMemeDetail(ctx context.Context, id string) (*model.Meme, error)
	// ListMemes 按 offset/limit 查询，带出创建者
	ListMemes(ctx context.Context, filter MemeFilter, offset, limit int) ([]*model.Meme, error)
	CreateMeme(ctx context.Context, meme *model.Meme) error
	// ListRecentMemesByCreator 用户最近创建的 Meme
	ListRecentMemesByCreator(ctx context.Context, creatorID string, limit int) ([]*model.Meme, error)
	// ListSitemapMemes 最近创建的 Meme（sitemap 用）
	ListSitemapMemes(ctx context.Context, limit int) ([]*model.Meme, error)
}

type memeRepository struct {
	db *gorm.DB
}

// NewMemeRepository 创建 Meme 仓储
func NewMemeRepository(db *gorm.DB) MemeRepository {
	return &memeRepository{db: db}
}

func (r *memeRepository) GetMemeByID(ctx context.Context, id string) (*model.Meme, error) {
	var m model.Meme
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *memeRepository) GetMemeDetail(ctx context.Context, id string) (*model.Meme, error) {
	var m model.Meme
	if err := r.db.WithContext(ctx).Preload("Creator").Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *memeRepository) ListMemes(ctx context.Context, filter MemeFilter, offset, limit int) ([]*model.Meme, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Meme{})
	if filter.Search != "" {
		db = db.Where("memes.title ILIKE ?", "%"+filter.Search+"%")
	}

	expr, ok := memeSortExprs[filter.SortBy]
	if !ok {
		expr = memeSortExprs[MemeSortCreatedAt]
	}
	// 次级排序保证分页稳定
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: expr, Raw: true}, Desc: !filter.Ascending}).
		Order("memes.id")

	var memes []*model.Meme
	if err := db.Preload("Creator").
		Offset(offset).
		Limit(limit).
		Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

func (r *memeRepository) CreateMeme(ctx context.Context, meme *model.Meme) error {
	if meme.ID == "" {
		meme.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(meme).Error
}

func (r *memeRepository) ListRecentMemesByCreator(ctx context.Context, creatorID string, limit int) ([]*model.Meme, error) {
	var memes []*model.Meme
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

func (r *memeRepository) ListSitemapMemes(ctx context.Context, limit int) ([]*model.Meme, error) {
	var memes []*model.Meme
	if err := r.db.WithContext(ctx).
		Select("id", "updated_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

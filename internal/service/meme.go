package service

import (
	"context"
	"strings"
	"time"

	"MemeArena/internal/model"
	"MemeArena/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	defaultMemePageSize = 20
	maxMemePageSize     = 100
)

// MemeService Meme 列表与创建
type MemeService struct {
	memes     repository.MemeRepository
	votes     repository.VoteRepository
	reactions repository.ReactionRepository
	battles   repository.BattleRepository
	logger    *logrus.Logger
	now       func() time.Time
}

// NewMemeService 创建 MemeService
func NewMemeService(memes repository.MemeRepository, votes repository.VoteRepository, reactions repository.ReactionRepository, battles repository.BattleRepository, logger *logrus.Logger) *MemeService {
	return &MemeService{
		memes:     memes,
		votes:     votes,
		reactions: reactions,
		battles:   battles,
		logger:    logger,
		now:       time.Now,
	}
}

// MemeQuery 列表查询参数
type MemeQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string // created_at / votes / reactions
	SortOrder string // asc / desc
}

// MemeStats Meme 统计
type MemeStats struct {
	Votes     int64 `json:"votes"`
	Reactions int64 `json:"reactions"`
	Battles   int64 `json:"battles"`
}

// ReactionTally 单种反应计数
type ReactionTally struct {
	Type  model.ReactionType `json:"type"`
	Count int64              `json:"count"`
}

// MemeItem 列表项
type MemeItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	ImageURL    string          `json:"imageUrl"`
	Description *string         `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	Creator     *model.Profile  `json:"creator"`
	Stats       MemeStats       `json:"stats"`
	Reactions   []ReactionTally `json:"reactions"`
}

// Pagination 分页信息；hasMore 表示本页已满
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// MemeList 列表返回
type MemeList struct {
	Memes      []MemeItem `json:"memes"`
	Pagination Pagination `json:"pagination"`
}

// normalizeSortKey 兼容前端驼峰写法，白名单外回退 created_at
func normalizeSortKey(key string) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "votes", "vote_count":
		return repository.MemeSortVotes
	case "reactions", "reaction_count":
		return repository.MemeSortReactions
	default:
		return repository.MemeSortCreatedAt
	}
}

// ListMemes 分页列出 Meme 并附带统计（零计数的反应类型不输出）
func (s *MemeService) ListMemes(ctx context.Context, q MemeQuery) (*MemeList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultMemePageSize
	}
	if q.Limit > maxMemePageSize {
		q.Limit = maxMemePageSize
	}
	filter := repository.MemeFilter{
		Search:    strings.TrimSpace(q.Search),
		SortBy:    normalizeSortKey(q.SortBy),
		Ascending: strings.EqualFold(q.SortOrder, "asc"),
	}

	memes, err := s.memes.ListMemes(ctx, filter, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, internalError("Failed to fetch memes", err)
	}

	ids := make([]string, 0, len(memes))
	for _, m := range memes {
		ids = append(ids, m.ID)
	}
	voteCounts, err := s.votes.CountVotesByMemeIDs(ctx, ids)
	if err != nil {
		return nil, internalError("Failed to fetch memes", err)
	}
	reactions, err := s.reactions.ListReactionsByMemeIDs(ctx, ids)
	if err != nil {
		return nil, internalError("Failed to fetch memes", err)
	}
	battleCounts, err := s.battles.CountBattlesByMemeIDs(ctx, ids)
	if err != nil {
		return nil, internalError("Failed to fetch memes", err)
	}

	byMeme := make(map[string][]*model.Reaction, len(ids))
	for _, r := range reactions {
		byMeme[r.MemeID] = append(byMeme[r.MemeID], r)
	}

	items := make([]MemeItem, 0, len(memes))
	for _, m := range memes {
		counts := countReactions(byMeme[m.ID])
		tallies := make([]ReactionTally, 0, len(model.ReactionTypes))
		var total int64
		for _, t := range model.ReactionTypes {
			total += counts[t]
			if counts[t] > 0 {
				tallies = append(tallies, ReactionTally{Type: t, Count: counts[t]})
			}
		}
		items = append(items, MemeItem{
			ID:          m.ID,
			Title:       m.Title,
			ImageURL:    m.ImageURL,
			Description: m.Description,
			CreatedAt:   m.CreatedAt,
			Creator:     m.Creator,
			Stats: MemeStats{
				Votes:     voteCounts[m.ID],
				Reactions: total,
				Battles:   battleCounts[m.ID],
			},
			Reactions: tallies,
		})
	}

	return &MemeList{
		Memes: items,
		Pagination: Pagination{
			Page:    q.Page,
			Limit:   q.Limit,
			HasMore: len(memes) == q.Limit,
		},
	}, nil
}

// CreateMeme 新建 Meme，统计全部为零
func (s *MemeService) CreateMeme(ctx context.Context, title, imageURL, description, callerID string) (*MemeItem, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	imageURL = strings.TrimSpace(imageURL)
	if title == "" || imageURL == "" {
		return nil, validationError("Title and image URL are required")
	}

	now := s.now().UTC()
	m := &model.Meme{
		Title:     title,
		ImageURL:  imageURL,
		CreatorID: callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if desc := strings.TrimSpace(description); desc != "" {
		m.Description = &desc
	}
	if err := s.memes.CreateMeme(ctx, m); err != nil {
		return nil, internalError("Failed to create meme", err)
	}

	if detail, err := s.memes.GetMemeDetail(ctx, m.ID); err != nil {
		s.logger.WithError(err).WithField("meme_id", m.ID).Warn("读取新建 Meme 的创建者失败")
	} else {
		m.Creator = detail.Creator
	}
	s.logger.WithField("meme_id", m.ID).WithField("creator_id", callerID).Info("Meme 已创建")

	return &MemeItem{
		ID:          m.ID,
		Title:       m.Title,
		ImageURL:    m.ImageURL,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		Creator:     m.Creator,
		Reactions:   []ReactionTally{},
	}, nil
}

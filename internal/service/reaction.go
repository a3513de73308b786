package service

import (
	"context"

	"MemeArena/internal/model"
	"MemeArena/internal/repository"

	"github.com/sirupsen/logrus"
)

// 反应切换结果
const (
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
)

// ReactionService 表情反应切换与统计
type ReactionService struct {
	reactions repository.ReactionRepository
	memes     repository.MemeRepository
	logger    *logrus.Logger
}

// NewReactionService 创建 ReactionService
func NewReactionService(reactions repository.ReactionRepository, memes repository.MemeRepository, logger *logrus.Logger) *ReactionService {
	return &ReactionService{reactions: reactions, memes: memes, logger: logger}
}

// ReactionCounts 五种反应的计数，缺失项补零
type ReactionCounts map[model.ReactionType]int64

// ToggleResult 切换结果；reaction 仅在 added 时返回
type ToggleResult struct {
	Success        bool               `json:"success"`
	Action         string             `json:"action"`
	ReactionType   model.ReactionType `json:"reactionType"`
	Reaction       *model.Reaction    `json:"reaction,omitempty"`
	ReactionCounts ReactionCounts     `json:"reactionCounts"`
}

// ReactionSummary Meme 的反应汇总
type ReactionSummary struct {
	ReactionCounts ReactionCounts       `json:"reactionCounts"`
	UserReactions  []model.ReactionType `json:"userReactions"`
	TotalReactions int                  `json:"totalReactions"`
}

func countReactions(list []*model.Reaction) ReactionCounts {
	counts := make(ReactionCounts, len(model.ReactionTypes))
	for _, t := range model.ReactionTypes {
		counts[t] = 0
	}
	for _, r := range list {
		if _, ok := counts[r.ReactionType]; ok {
			counts[r.ReactionType]++
		}
	}
	return counts
}

// ToggleReaction 已存在则移除，否则添加
func (s *ReactionService) ToggleReaction(ctx context.Context, memeID, reactionType, callerID string) (*ToggleResult, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if !model.IsValidReactionType(reactionType) {
		return nil, validationError("Invalid reaction type")
	}
	if !validID(memeID) {
		return nil, notFoundError("Meme not found")
	}
	if _, err := s.memes.GetMemeByID(ctx, memeID); err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Meme not found")
		}
		return nil, err
	}

	kind := model.ReactionType(reactionType)
	reaction, added, err := s.reactions.ToggleReaction(ctx, memeID, callerID, kind)
	if err != nil {
		return nil, internalError("Failed to update reaction", err)
	}

	list, err := s.reactions.ListReactionsByMeme(ctx, memeID)
	if err != nil {
		s.logger.WithError(err).WithField("meme_id", memeID).Warn("切换反应后读取计数失败")
	}

	res := &ToggleResult{
		Success:        true,
		Action:         ReactionRemoved,
		ReactionType:   kind,
		ReactionCounts: countReactions(list),
	}
	if added {
		res.Action = ReactionAdded
		res.Reaction = reaction
	}
	return res, nil
}

// ListReactions 反应计数与调用者自己的反应，匿名时 userReactions 为空
func (s *ReactionService) ListReactions(ctx context.Context, memeID, callerID string) (*ReactionSummary, error) {
	summary := &ReactionSummary{
		ReactionCounts: countReactions(nil),
		UserReactions:  []model.ReactionType{},
	}
	if !validID(memeID) {
		return summary, nil
	}
	list, err := s.reactions.ListReactionsByMeme(ctx, memeID)
	if err != nil {
		return nil, internalError("Failed to fetch reactions", err)
	}
	summary.ReactionCounts = countReactions(list)
	summary.TotalReactions = len(list)
	if callerID != "" {
		for _, r := range list {
			if r.UserID == callerID {
				summary.UserReactions = append(summary.UserReactions, r.ReactionType)
			}
		}
	}
	return summary, nil
}

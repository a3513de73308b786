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
	defaultBattleHours = 24
	maxBattleHours     = 168
)

// BattleService 对战查询、创建、状态变更与投票
type BattleService struct {
	battles repository.BattleRepository
	votes   repository.VoteRepository
	memes   repository.MemeRepository
	logger  *logrus.Logger
	now     func() time.Time
}

// NewBattleService 创建 BattleService
func NewBattleService(battles repository.BattleRepository, votes repository.VoteRepository, memes repository.MemeRepository, logger *logrus.Logger) *BattleService {
	return &BattleService{
		battles: battles,
		votes:   votes,
		memes:   memes,
		logger:  logger,
		now:     time.Now,
	}
}

// BattleSide 对战一方：Meme 本身加票数
type BattleSide struct {
	*model.Meme
	Votes int64 `json:"votes"`
}

// BattleView 对战详情（列表项同结构）
type BattleView struct {
	*model.Battle
	MemeA      BattleSide     `json:"memeA"`
	MemeB      BattleSide     `json:"memeB"`
	Creator    *model.Profile `json:"creator,omitempty"`
	TotalVotes int64          `json:"totalVotes"`
	UserVote   *string        `json:"userVote"`
}

// VoteCounts 投票后的最新计数
type VoteCounts struct {
	MemeA int64 `json:"memeA"`
	MemeB int64 `json:"memeB"`
	Total int64 `json:"total"`
}

// VoteResult 投票结果
type VoteResult struct {
	Success    bool        `json:"success"`
	Vote       *model.Vote `json:"vote"`
	VoteCounts VoteCounts  `json:"voteCounts"`
}

// CreateBattleInput 创建对战参数
type CreateBattleInput struct {
	Title         string
	Description   string
	MemeAID       string
	MemeBID       string
	DurationHours int // 0 表示默认 24 小时
}

// buildBattleView 由 battle 及其投票组装视图，callerID 为空时 userVote 为 null
func buildBattleView(b *model.Battle, callerID string) *BattleView {
	counts := countVotes(b, b.Votes)
	view := &BattleView{
		Battle:     b,
		MemeA:      BattleSide{Meme: b.MemeA, Votes: counts.MemeA},
		MemeB:      BattleSide{Meme: b.MemeB, Votes: counts.MemeB},
		Creator:    b.Creator,
		TotalVotes: counts.Total,
	}
	if callerID != "" {
		for _, v := range b.Votes {
			if v.VoterID == callerID {
				memeID := v.MemeID
				view.UserVote = &memeID
				break
			}
		}
	}
	return view
}

func countVotes(b *model.Battle, votes []*model.Vote) VoteCounts {
	var c VoteCounts
	for _, v := range votes {
		switch v.MemeID {
		case b.MemeAID:
			c.MemeA++
		case b.MemeBID:
			c.MemeB++
		}
	}
	c.Total = c.MemeA + c.MemeB
	return c
}

// GetBattle 对战详情，无副作用
func (s *BattleService) GetBattle(ctx context.Context, battleID, callerID string) (*BattleView, error) {
	if !validID(battleID) {
		return nil, notFoundError("Battle not found")
	}
	b, err := s.battles.GetBattleDetail(ctx, battleID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Battle not found")
		}
		return nil, err
	}
	return buildBattleView(b, callerID), nil
}

// ListBattles 最新的对战列表，可按状态筛选
func (s *BattleService) ListBattles(ctx context.Context, status string, limit int, callerID string) ([]*BattleView, error) {
	if status != "" && !model.IsValidBattleStatus(status) {
		return nil, validationError("Invalid battle status")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	battles, err := s.battles.ListBattles(ctx, repository.BattleFilter{Status: status}, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*BattleView, 0, len(battles))
	for _, b := range battles {
		views = append(views, buildBattleView(b, callerID))
	}
	return views, nil
}

// UpdateBattleStatus 仅发起者可修改状态，且只能从 active 迁出
func (s *BattleService) UpdateBattleStatus(ctx context.Context, battleID, status, callerID string) (*model.Battle, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if !validID(battleID) {
		return nil, notFoundError("Battle not found")
	}
	b, err := s.battles.GetBattleByID(ctx, battleID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Battle not found")
		}
		return nil, err
	}
	if b.CreatorID != callerID {
		return nil, forbiddenError("Not authorized to modify this battle")
	}
	if !model.IsValidBattleStatus(status) {
		return nil, validationError("Invalid battle status")
	}
	// completed / cancelled 为终态
	if b.Status != model.BattleStatusActive {
		return nil, validationError("Battle is not active")
	}

	updated, err := s.battles.UpdateBattleStatus(ctx, battleID, status, s.now().UTC())
	if err != nil {
		return nil, internalError("Failed to update battle", err)
	}
	s.logger.WithField("battle_id", battleID).WithField("status", status).Info("对战状态已更新")
	return updated, nil
}

// CreateBattle 发起新对战，状态为 active，ends_at = now + duration
func (s *BattleService) CreateBattle(ctx context.Context, in CreateBattleInput, callerID string) (*model.Battle, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if in.MemeAID == "" || in.MemeBID == "" {
		return nil, validationError("Please select two memes for the battle")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("Please enter a battle title")
	}
	if in.MemeAID == in.MemeBID {
		return nil, validationError("Please select two different memes")
	}
	hours := in.DurationHours
	if hours == 0 {
		hours = defaultBattleHours
	}
	if hours < 1 || hours > maxBattleHours {
		return nil, validationError("Invalid battle duration")
	}
	for _, id := range []string{in.MemeAID, in.MemeBID} {
		if !validID(id) {
			return nil, notFoundError("Meme not found")
		}
		if _, err := s.memes.GetMemeByID(ctx, id); err != nil {
			if isNotFound(err) {
				return nil, notFoundError("Meme not found")
			}
			return nil, err
		}
	}

	now := s.now().UTC()
	endsAt := now.Add(time.Duration(hours) * time.Hour)
	b := &model.Battle{
		Title:     title,
		MemeAID:   in.MemeAID,
		MemeBID:   in.MemeBID,
		CreatorID: callerID,
		Status:    model.BattleStatusActive,
		EndsAt:    &endsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		b.Description = &desc
	}
	if err := s.battles.CreateBattle(ctx, b); err != nil {
		return nil, internalError("Failed to create battle", err)
	}
	s.logger.WithField("battle_id", b.ID).WithField("creator_id", callerID).Info("对战已创建")
	return b, nil
}

// CastVote 投票：校验顺序固定，重复投票由唯一索引原子拦截
func (s *BattleService) CastVote(ctx context.Context, battleID, memeID, callerID string) (*VoteResult, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if battleID == "" || memeID == "" {
		return nil, validationError("Missing required fields")
	}
	if !validID(battleID) {
		return nil, notFoundError("Battle not found")
	}
	b, err := s.battles.GetBattleByID(ctx, battleID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Battle not found")
		}
		return nil, err
	}
	if b.Status != model.BattleStatusActive {
		return nil, validationError("Battle is not active")
	}
	if b.EndsAt != nil && b.EndsAt.Before(s.now()) {
		return nil, validationError("Battle has ended")
	}
	if memeID != b.MemeAID && memeID != b.MemeBID {
		return nil, validationError("Invalid meme for this battle")
	}

	vote := &model.Vote{
		BattleID:  battleID,
		VoterID:   callerID,
		MemeID:    memeID,
		CreatedAt: s.now().UTC(),
	}
	inserted, err := s.votes.CreateVote(ctx, vote)
	if err != nil {
		return nil, internalError("Failed to create vote", err)
	}
	if !inserted {
		return nil, conflictError("You have already voted in this battle")
	}

	votes, err := s.votes.ListVotesByBattle(ctx, battleID)
	if err != nil {
		// 投票已落库，计数读取失败只记日志
		s.logger.WithError(err).WithField("battle_id", battleID).Warn("投票后读取计数失败")
	}
	return &VoteResult{
		Success:    true,
		Vote:       vote,
		VoteCounts: countVotes(b, votes),
	}, nil
}

package service

import (
	"context"
	"time"

	"MemeArena/internal/model"
	"MemeArena/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	defaultLeaderboardLimit = 50
	// TimeframeAllTime 目前唯一生效的时间范围，其他取值原样回显
	TimeframeAllTime = "all_time"
	recentActivityN  = 5
)

// LeaderboardService 排行榜查询与重算（计分在数据库存储过程中）
type LeaderboardService struct {
	board  repository.LeaderboardRepository
	memes  repository.MemeRepository
	votes  repository.VoteRepository
	logger *logrus.Logger
}

// NewLeaderboardService 创建 LeaderboardService
func NewLeaderboardService(board repository.LeaderboardRepository, memes repository.MemeRepository, votes repository.VoteRepository, logger *logrus.Logger) *LeaderboardService {
	return &LeaderboardService{board: board, memes: memes, votes: votes, logger: logger}
}

// LeaderboardResult 排行榜返回
type LeaderboardResult struct {
	Leaderboard []*repository.LeaderboardRow `json:"leaderboard"`
	Timeframe   string                       `json:"timeframe"`
	TotalUsers  int                          `json:"totalUsers"`
}

// UserStats 用户统计与名次
type UserStats struct {
	Score                  int64 `json:"score"`
	TotalVotesReceived     int64 `json:"totalVotesReceived"`
	TotalBattlesWon        int64 `json:"totalBattlesWon"`
	TotalMemesCreated      int64 `json:"totalMemesCreated"`
	TotalReactionsReceived int64 `json:"totalReactionsReceived"`
	Rank                   int64 `json:"rank"`
}

// RecentMeme 最近创建的 Meme
type RecentMeme struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecentBattle 投票所在对战的简要信息
type RecentBattle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RecentVote 最近一次投票
type RecentVote struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	Battle    *RecentBattle `json:"battle"`
}

// RecentActivity 最近动态
type RecentActivity struct {
	Memes []RecentMeme `json:"memes"`
	Votes []RecentVote `json:"votes"`
}

// UserEntry 单个用户的排行榜记录
type UserEntry struct {
	User           *model.Profile `json:"user"`
	Stats          UserStats      `json:"stats"`
	RecentActivity RecentActivity `json:"recentActivity"`
}

// GetLeaderboard 原样返回 get_leaderboard 的结果；timeframe 只回显不参与筛选
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int, timeframe string) (*LeaderboardResult, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if timeframe == "" {
		timeframe = TimeframeAllTime
	}
	rows, err := s.board.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, internalError("Failed to fetch leaderboard", err)
	}
	if rows == nil {
		rows = []*repository.LeaderboardRow{}
	}
	return &LeaderboardResult{
		Leaderboard: rows,
		Timeframe:   timeframe,
		TotalUsers:  len(rows),
	}, nil
}

// GetUserEntry 名次 = 1 + 分数严格更高的人数
func (s *LeaderboardService) GetUserEntry(ctx context.Context, userID string) (*UserEntry, error) {
	if !validID(userID) {
		return nil, notFoundError("User not found in leaderboard")
	}
	entry, err := s.board.GetEntryByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("User not found in leaderboard")
		}
		return nil, err
	}
	higher, err := s.board.CountHigherScores(ctx, entry.Score)
	if err != nil {
		return nil, internalError("Failed to calculate rank", err)
	}

	activity := RecentActivity{Memes: []RecentMeme{}, Votes: []RecentVote{}}
	memes, err := s.memes.ListRecentMemesByCreator(ctx, userID, recentActivityN)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("读取最近 Meme 失败")
	}
	for _, m := range memes {
		activity.Memes = append(activity.Memes, RecentMeme{
			ID:        m.ID,
			Title:     m.Title,
			ImageURL:  m.ImageURL,
			CreatedAt: m.CreatedAt,
		})
	}
	votes, err := s.votes.ListRecentVotesByVoter(ctx, userID, recentActivityN)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("读取最近投票失败")
	}
	for _, v := range votes {
		rv := RecentVote{ID: v.ID, CreatedAt: v.CreatedAt}
		if v.Battle != nil {
			rv.Battle = &RecentBattle{ID: v.Battle.ID, Title: v.Battle.Title}
		}
		activity.Votes = append(activity.Votes, rv)
	}

	return &UserEntry{
		User: entry.User,
		Stats: UserStats{
			Score:                  entry.Score,
			TotalVotesReceived:     entry.TotalVotesReceived,
			TotalBattlesWon:        entry.TotalBattlesWon,
			TotalMemesCreated:      entry.TotalMemesCreated,
			TotalReactionsReceived: entry.TotalReactionsReceived,
			Rank:                   higher + 1,
		},
		RecentActivity: activity,
	}, nil
}

// RecomputeScore 触发 update_leaderboard_score，目标用户默认为调用者
func (s *LeaderboardService) RecomputeScore(ctx context.Context, targetUserID, callerID string) error {
	if callerID == "" {
		return ErrUnauthorized
	}
	if targetUserID == "" {
		targetUserID = callerID
	}
	if !validID(targetUserID) {
		return validationError("Invalid user id")
	}
	if err := s.board.RecomputeScore(ctx, targetUserID); err != nil {
		return internalError("Failed to update score", err)
	}
	s.logger.WithField("user_id", targetUserID).Debug("排行榜分数已重算")
	return nil
}

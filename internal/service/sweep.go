package service

import (
	"context"
	"time"

	"MemeArena/internal/repository"

	"github.com/sirupsen/logrus"
)

// SweepService 将已到期的 active 对战批量置为 completed
type SweepService struct {
	battles repository.BattleRepository
	logger  *logrus.Logger
	now     func() time.Time
	onSwept func(n int64)
}

// NewSweepService 创建状态巡检服务
func NewSweepService(battles repository.BattleRepository, logger *logrus.Logger) *SweepService {
	return &SweepService{battles: battles, logger: logger, now: time.Now}
}

// OnSwept 注册每次巡检完成后的回调（指标统计用）
func (s *SweepService) OnSwept(fn func(n int64)) {
	s.onSwept = fn
}

// SweepResult 巡检结果
type SweepResult struct {
	Success   bool      `json:"success"`
	Updated   int64     `json:"updated"`
	Timestamp time.Time `json:"timestamp"`
}

// Sweep 单条 UPDATE 完成，重复执行无副作用
func (s *SweepService) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now().UTC()
	n, err := s.battles.CompleteExpiredBattles(ctx, now)
	if err != nil {
		return nil, internalError("Update failed", err)
	}
	if n > 0 {
		s.logger.WithField("updated", n).Info("已将到期对战置为 completed")
	}
	if s.onSwept != nil {
		s.onSwept(n)
	}
	return &SweepResult{Success: true, Updated: n, Timestamp: now}, nil
}

// Run 按固定间隔巡检，直到 ctx 取消；interval<=0 时直接返回
func (s *SweepService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	s.logger.WithField("interval", interval.String()).Info("对战状态巡检已启动")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("对战状态巡检已停止")
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.WithError(err).Error("对战状态巡检失败")
			}
		}
	}
}

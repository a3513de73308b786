package service

import (
	"context"
	"encoding/json"
	"time"

	"MemeArena/internal/model"
	"MemeArena/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ShareService 记录分享行为
type ShareService struct {
	activities repository.ActivityRepository
	logger     *logrus.Logger
	now        func() time.Time
}

// NewShareService 创建 ShareService
func NewShareService(activities repository.ActivityRepository, logger *logrus.Logger) *ShareService {
	return &ShareService{activities: activities, logger: logger, now: time.Now}
}

// ShareInput 分享内容，字段均可为空
type ShareInput struct {
	BattleID string
	MemeID   string
	Text     string
}

type shareMetadata struct {
	BattleID  string `json:"battle_id,omitempty"`
	MemeID    string `json:"meme_id,omitempty"`
	Text      string `json:"shared_text,omitempty"`
	Timestamp string `json:"timestamp"`
}

// LogFarcasterShare 写入 user_activities；写入失败只记日志，不影响调用方
func (s *ShareService) LogFarcasterShare(ctx context.Context, in ShareInput, callerID string) error {
	if callerID == "" {
		return ErrUnauthorized
	}
	now := s.now().UTC()
	meta, err := json.Marshal(shareMetadata{
		BattleID:  in.BattleID,
		MemeID:    in.MemeID,
		Text:      in.Text,
		Timestamp: now.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).Warn("分享元数据序列化失败")
		return nil
	}
	activity := &model.UserActivity{
		UserID:       callerID,
		ActivityType: model.ActivityFarcasterShare,
		Metadata:     datatypes.JSON(meta),
		CreatedAt:    now,
	}
	if err := s.activities.LogActivity(ctx, activity); err != nil {
		s.logger.WithError(err).WithField("user_id", callerID).Error("Failed to log Farcaster share")
	}
	return nil
}

package model

// ReactionType 表情反应类型（封闭集合）
type ReactionType string

const (
	ReactionFire      ReactionType = "fire"
	ReactionLaugh     ReactionType = "laugh"
	ReactionMindBlown ReactionType = "mind_blown"
	ReactionCringe    ReactionType = "cringe"
	ReactionBased     ReactionType = "based"
)

// ReactionTypes 固定顺序的全部反应类型，计数输出按此顺序补零
var ReactionTypes = []ReactionType{
	ReactionFire,
	ReactionLaugh,
	ReactionMindBlown,
	ReactionCringe,
	ReactionBased,
}

// IsValidReactionType 判断是否属于封闭集合
func IsValidReactionType(t string) bool {
	for _, rt := range ReactionTypes {
		if string(rt) == t {
			return true
		}
	}
	return false
}

// 对战状态：active -> completed（到期）或 cancelled（发起者取消）
const (
	BattleStatusActive    = "active"
	BattleStatusCompleted = "completed"
	BattleStatusCancelled = "cancelled"
)

// IsValidBattleStatus 判断状态值是否合法
func IsValidBattleStatus(s string) bool {
	switch s {
	case BattleStatusActive, BattleStatusCompleted, BattleStatusCancelled:
		return true
	}
	return false
}

// ActivityFarcasterShare 分享到 Farcaster 的行为类型
const ActivityFarcasterShare = "farcaster_share"

// 排行榜计分权重
const (
	ScoreWeightVote     = 2  // 每获得一票
	ScoreWeightWin      = 10 // 每赢一场对战
	ScoreWeightMeme     = 1  // 每创建一个 Meme
	ScoreWeightReaction = 1  // 每获得一个反应
)

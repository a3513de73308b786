package model

import (
	"time"

	"gorm.io/datatypes"
)

// Profile 用户资料，由外部身份服务维护，本服务只读
type Profile struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey;comment:用户ID（身份服务签发）" json:"id"`
	Username    string    `gorm:"column:username;type:varchar(64);uniqueIndex;not null;comment:用户名" json:"username"`
	DisplayName *string   `gorm:"column:display_name;type:varchar(128);comment:展示名" json:"displayName"`
	AvatarURL   *string   `gorm:"column:avatar_url;type:text;comment:头像地址" json:"avatarUrl"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;default:now();comment:创建时间" json:"createdAt"`
}

// Meme 用户上传的图片内容，创建后不可修改
type Meme struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey;comment:主键" json:"id"`
	Title       string    `gorm:"column:title;type:varchar(256);not null;comment:标题" json:"title"`
	ImageURL    string    `gorm:"column:image_url;type:text;not null;comment:图片地址" json:"imageUrl"`
	Description *string   `gorm:"column:description;type:text;comment:描述" json:"description"`
	CreatorID   string    `gorm:"column:creator_id;type:uuid;index;not null;comment:创建者" json:"creatorId"`
	Creator     *Profile  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;index;comment:创建时间" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamptz;comment:更新时间" json:"updatedAt"`
}

// Battle 两个 Meme 之间的限时投票对战
type Battle struct {
	ID          string     `gorm:"column:id;type:uuid;primaryKey;comment:主键" json:"id"`
	Title       string     `gorm:"column:title;type:varchar(256);not null;comment:标题" json:"title"`
	Description *string    `gorm:"column:description;type:text;comment:描述" json:"description"`
	MemeAID     string     `gorm:"column:meme_a_id;type:uuid;not null;index;comment:A方" json:"memeAId"`
	MemeBID     string     `gorm:"column:meme_b_id;type:uuid;not null;index;comment:B方" json:"memeBId"`
	CreatorID   string     `gorm:"column:creator_id;type:uuid;not null;index;comment:发起者" json:"creatorId"`
	Status      string     `gorm:"column:status;type:varchar(16);not null;index;comment:状态：active/completed/cancelled" json:"status"`
	EndsAt      *time.Time `gorm:"column:ends_at;type:timestamptz;index;comment:结束时间" json:"endsAt"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz;index;comment:创建时间" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamptz;comment:更新时间" json:"updatedAt"`

	MemeA   *Meme    `gorm:"foreignKey:MemeAID" json:"-"`
	MemeB   *Meme    `gorm:"foreignKey:MemeBID" json:"-"`
	Creator *Profile `gorm:"foreignKey:CreatorID" json:"-"`
	Votes   []*Vote  `gorm:"foreignKey:BattleID" json:"-"`
}

// Vote 单个用户在一场对战中的选择，(battle_id, voter_id) 唯一
type Vote struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey;comment:主键" json:"id"`
	BattleID  string    `gorm:"column:battle_id;type:uuid;not null;uniqueIndex:uk_vote_battle_voter,priority:1;comment:对战" json:"battleId"`
	VoterID   string    `gorm:"column:voter_id;type:uuid;not null;uniqueIndex:uk_vote_battle_voter,priority:2;index;comment:投票人" json:"voterId"`
	MemeID    string    `gorm:"column:meme_id;type:uuid;not null;index;comment:所选 Meme" json:"memeId"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;comment:创建时间" json:"createdAt"`

	Battle *Battle `gorm:"foreignKey:BattleID" json:"battle,omitempty"`
}

// Reaction 用户对 Meme 的表情反应，(meme_id, user_id, reaction_type) 唯一
type Reaction struct {
	ID           string       `gorm:"column:id;type:uuid;primaryKey;comment:主键" json:"id"`
	MemeID       string       `gorm:"column:meme_id;type:uuid;not null;uniqueIndex:uk_reaction_meme_user_type,priority:1;comment:Meme" json:"memeId"`
	UserID       string       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uk_reaction_meme_user_type,priority:2;comment:用户" json:"userId"`
	ReactionType ReactionType `gorm:"column:reaction_type;type:varchar(16);not null;uniqueIndex:uk_reaction_meme_user_type,priority:3;comment:反应类型" json:"reactionType"`
	CreatedAt    time.Time    `gorm:"column:created_at;type:timestamptz;comment:创建时间" json:"createdAt"`
}

// LeaderboardEntry 排行榜物化数据，由 update_leaderboard_score 存储过程维护
type LeaderboardEntry struct {
	ID                     string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid();comment:主键" json:"id"`
	UserID                 string    `gorm:"column:user_id;type:uuid;uniqueIndex;not null;comment:用户" json:"userId"`
	Score                  int64     `gorm:"column:score;type:bigint;not null;default:0;index;comment:总分" json:"score"`
	TotalVotesReceived     int64     `gorm:"column:total_votes_received;type:bigint;not null;default:0;comment:获得票数" json:"totalVotesReceived"`
	TotalBattlesWon        int64     `gorm:"column:total_battles_won;type:bigint;not null;default:0;comment:获胜场次" json:"totalBattlesWon"`
	TotalMemesCreated      int64     `gorm:"column:total_memes_created;type:bigint;not null;default:0;comment:创建 Meme 数" json:"totalMemesCreated"`
	TotalReactionsReceived int64     `gorm:"column:total_reactions_received;type:bigint;not null;default:0;comment:获得反应数" json:"totalReactionsReceived"`
	UpdatedAt              time.Time `gorm:"column:updated_at;type:timestamptz;default:now();comment:更新时间" json:"updatedAt"`

	User *Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// UserActivity 用户行为日志（如分享），metadata 为 jsonb
type UserActivity struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey;comment:主键"`
	UserID       string         `gorm:"column:user_id;type:uuid;not null;index;comment:用户"`
	ActivityType string         `gorm:"column:activity_type;type:varchar(32);not null;comment:行为类型"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb;comment:附加数据"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamptz;comment:创建时间"`
}

func (Profile) TableName() string          { return "profiles" }
func (Meme) TableName() string             { return "memes" }
func (Battle) TableName() string           { return "battles" }
func (Vote) TableName() string             { return "votes" }
func (Reaction) TableName() string         { return "reactions" }
func (LeaderboardEntry) TableName() string { return "leaderboard_entries" }
func (UserActivity) TableName() string     { return "user_activities" }

// AllModels 按依赖顺序返回需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},
		&Meme{},
		&Battle{},
		&Vote{},
		&Reaction{},
		&LeaderboardEntry{},
		&UserActivity{},
	}
}

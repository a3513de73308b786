// Package testutil 提供内存版仓储，供 service 与 api 测试使用
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"MemeArena/internal/model"
	"MemeArena/internal/repository"

	"github.com/google/uuid"
)

// BaseTime 测试用固定时钟起点
var BaseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock 可手动推进的时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock 从 BaseTime 开始的时钟
func NewClock() *Clock { return &Clock{now: BaseTime} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 时钟前进 d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Store 同时实现全部仓储接口的内存存储，语义与 SQL 实现一致
type Store struct {
	mu sync.Mutex

	seq         int
	profiles    map[string]*model.Profile
	memes       map[string]*model.Meme
	battles     map[string]*model.Battle
	votes       []*model.Vote
	reactions   []*model.Reaction
	leaderboard map[string]*model.LeaderboardEntry
	activities  []*model.UserActivity

	failures map[string]error
}

var (
	_ repository.BattleRepository      = (*Store)(nil)
	_ repository.VoteRepository        = (*Store)(nil)
	_ repository.MemeRepository        = (*Store)(nil)
	_ repository.ReactionRepository    = (*Store)(nil)
	_ repository.LeaderboardRepository = (*Store)(nil)
	_ repository.ActivityRepository    = (*Store)(nil)
)

// NewStore 空存储
func NewStore() *Store {
	return &Store{
		profiles:    make(map[string]*model.Profile),
		memes:       make(map[string]*model.Meme),
		battles:     make(map[string]*model.Battle),
		leaderboard: make(map[string]*model.LeaderboardEntry),
		failures:    make(map[string]error),
	}
}

// FailOn 让指定方法返回 err，err 为 nil 时恢复
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	return s.failures[method]
}

// tick 单调递增的创建时间，保证排序稳定
func (s *Store) tick() time.Time {
	s.seq++
	return BaseTime.Add(time.Duration(s.seq) * time.Second)
}

// ---------- 测试数据构造 ----------

// AddProfile 新增用户
func (s *Store) AddProfile(username string) *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Profile{ID: uuid.NewString(), Username: username, CreatedAt: s.tick()}
	s.profiles[p.ID] = p
	return p
}

// AddMeme 新增 Meme
func (s *Store) AddMeme(creatorID, title string) *model.Meme {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.tick()
	m := &model.Meme{ID: uuid.NewString(), Title: title, ImageURL: "https://img.example/" + title + ".png", CreatorID: creatorID, CreatedAt: at, UpdatedAt: at}
	s.memes[m.ID] = m
	return m
}

// AddBattle 新增对战
func (s *Store) AddBattle(creatorID, memeAID, memeBID, status string, endsAt *time.Time) *model.Battle {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.tick()
	b := &model.Battle{
		ID: uuid.NewString(), Title: "battle", MemeAID: memeAID, MemeBID: memeBID,
		CreatorID: creatorID, Status: status, EndsAt: endsAt, CreatedAt: at, UpdatedAt: at,
	}
	s.battles[b.ID] = b
	return b
}

// AddVote 直接写入投票（不做唯一性检查）
func (s *Store) AddVote(battleID, voterID, memeID string) *model.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &model.Vote{ID: uuid.NewString(), BattleID: battleID, VoterID: voterID, MemeID: memeID, CreatedAt: s.tick()}
	s.votes = append(s.votes, v)
	return v
}

// AddReaction 直接写入反应
func (s *Store) AddReaction(memeID, userID string, kind model.ReactionType) *model.Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &model.Reaction{ID: uuid.NewString(), MemeID: memeID, UserID: userID, ReactionType: kind, CreatedAt: s.tick()}
	s.reactions = append(s.reactions, r)
	return r
}

// SetEntry 直接写入排行榜记录
func (s *Store) SetEntry(userID string, score int64) *model.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &model.LeaderboardEntry{ID: uuid.NewString(), UserID: userID, Score: score, UpdatedAt: s.tick()}
	s.leaderboard[userID] = e
	return e
}

// Battle 读取对战当前状态
func (s *Store) Battle(id string) *model.Battle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.battles[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

// Votes 全部投票
func (s *Store) Votes() []*model.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Vote(nil), s.votes...)
}

// Activities 全部行为日志
func (s *Store) Activities() []*model.UserActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.UserActivity(nil), s.activities...)
}

// Entry 读取排行榜记录
func (s *Store) Entry(userID string) *model.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.leaderboard[userID]; ok {
		cp := *e
		return &cp
	}
	return nil
}

// ---------- BattleRepository ----------

func (s *Store) GetBattleByID(_ context.Context, id string) (*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetBattleByID"); err != nil {
		return nil, err
	}
	b, ok := s.battles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) GetBattleDetail(_ context.Context, id string) (*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetBattleDetail"); err != nil {
		return nil, err
	}
	b, ok := s.battles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.detail(b, true), nil
}

func (s *Store) detail(b *model.Battle, withCreator bool) *model.Battle {
	cp := *b
	cp.MemeA = s.memeWithCreator(b.MemeAID)
	cp.MemeB = s.memeWithCreator(b.MemeBID)
	if withCreator {
		cp.Creator = s.profiles[b.CreatorID]
	}
	for _, v := range s.votes {
		if v.BattleID == b.ID {
			cp.Votes = append(cp.Votes, v)
		}
	}
	return &cp
}

func (s *Store) memeWithCreator(id string) *model.Meme {
	m, ok := s.memes[id]
	if !ok {
		return nil
	}
	cp := *m
	cp.Creator = s.profiles[m.CreatorID]
	return &cp
}

func (s *Store) ListBattles(_ context.Context, filter repository.BattleFilter, limit int) ([]*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListBattles"); err != nil {
		return nil, err
	}
	var out []*model.Battle
	for _, b := range s.sortedBattles() {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, s.detail(b, false))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// sortedBattles 按创建时间倒序
func (s *Store) sortedBattles() []*model.Battle {
	list := make([]*model.Battle, 0, len(s.battles))
	for _, b := range s.battles {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (s *Store) CreateBattle(_ context.Context, battle *model.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateBattle"); err != nil {
		return err
	}
	if battle.ID == "" {
		battle.ID = uuid.NewString()
	}
	if battle.CreatedAt.IsZero() {
		battle.CreatedAt = s.tick()
	}
	cp := *battle
	s.battles[cp.ID] = &cp
	return nil
}

func (s *Store) UpdateBattleStatus(_ context.Context, id, status string, at time.Time) (*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateBattleStatus"); err != nil {
		return nil, err
	}
	b, ok := s.battles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	cp := *b
	return &cp, nil
}

func (s *Store) CompleteExpiredBattles(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CompleteExpiredBattles"); err != nil {
		return 0, err
	}
	var n int64
	for _, b := range s.battles {
		if b.Status == model.BattleStatusActive && b.EndsAt != nil && b.EndsAt.Before(now) {
			b.Status = model.BattleStatusCompleted
			b.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *Store) CountBattlesByMemeIDs(_ context.Context, memeIDs []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CountBattlesByMemeIDs"); err != nil {
		return nil, err
	}
	want := toSet(memeIDs)
	counts := make(map[string]int64, len(memeIDs))
	for _, b := range s.battles {
		if want[b.MemeAID] {
			counts[b.MemeAID]++
		}
		if want[b.MemeBID] {
			counts[b.MemeBID]++
		}
	}
	return counts, nil
}

func (s *Store) ListSitemapBattles(_ context.Context, limit int) ([]*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListSitemapBattles"); err != nil {
		return nil, err
	}
	var out []*model.Battle
	for _, b := range s.sortedBattles() {
		if b.Status != model.BattleStatusActive {
			continue
		}
		out = append(out, &model.Battle{ID: b.ID, UpdatedAt: b.UpdatedAt})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---------- VoteRepository ----------

func (s *Store) CreateVote(_ context.Context, vote *model.Vote) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateVote"); err != nil {
		return false, err
	}
	for _, v := range s.votes {
		if v.BattleID == vote.BattleID && v.VoterID == vote.VoterID {
			return false, nil
		}
	}
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = s.tick()
	}
	cp := *vote
	s.votes = append(s.votes, &cp)
	return true, nil
}

func (s *Store) ListVotesByBattle(_ context.Context, battleID string) ([]*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListVotesByBattle"); err != nil {
		return nil, err
	}
	var out []*model.Vote
	for _, v := range s.votes {
		if v.BattleID == battleID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) CountVotesByMemeIDs(_ context.Context, memeIDs []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CountVotesByMemeIDs"); err != nil {
		return nil, err
	}
	want := toSet(memeIDs)
	counts := make(map[string]int64, len(memeIDs))
	for _, v := range s.votes {
		if want[v.MemeID] {
			counts[v.MemeID]++
		}
	}
	return counts, nil
}

func (s *Store) ListRecentVotesByVoter(_ context.Context, voterID string, limit int) ([]*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListRecentVotesByVoter"); err != nil {
		return nil, err
	}
	var out []*model.Vote
	for i := len(s.votes) - 1; i >= 0 && len(out) < limit; i-- {
		v := s.votes[i]
		if v.VoterID != voterID {
			continue
		}
		cp := *v
		if b, ok := s.battles[v.BattleID]; ok {
			cp.Battle = &model.Battle{ID: b.ID, Title: b.Title}
		}
		out = append(out, &cp)
	}
	return out, nil
}

// ---------- MemeRepository ----------

func (s *Store) GetMemeByID(_ context.Context, id string) (*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetMemeByID"); err != nil {
		return nil, err
	}
	m, ok := s.memes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) GetMemeDetail(_ context.Context, id string) (*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetMemeDetail"); err != nil {
		return nil, err
	}
	m := s.memeWithCreator(id)
	if m == nil {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (s *Store) ListMemes(_ context.Context, filter repository.MemeFilter, offset, limit int) ([]*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListMemes"); err != nil {
		return nil, err
	}
	search := strings.ToLower(filter.Search)
	var list []*model.Meme
	for _, m := range s.memes {
		if search != "" && !strings.Contains(strings.ToLower(m.Title), search) {
			continue
		}
		list = append(list, m)
	}

	key := func(m *model.Meme) int64 {
		switch filter.SortBy {
		case repository.MemeSortVotes:
			var n int64
			for _, v := range s.votes {
				if v.MemeID == m.ID {
					n++
				}
			}
			return n
		case repository.MemeSortReactions:
			var n int64
			for _, r := range s.reactions {
				if r.MemeID == m.ID {
					n++
				}
			}
			return n
		default:
			return m.CreatedAt.UnixNano()
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		ki, kj := key(list[i]), key(list[j])
		if ki == kj {
			return list[i].ID < list[j].ID
		}
		if filter.Ascending {
			return ki < kj
		}
		return ki > kj
	})

	if offset >= len(list) {
		return []*model.Meme{}, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]*model.Meme, 0, len(list))
	for _, m := range list {
		out = append(out, s.memeWithCreator(m.ID))
	}
	return out, nil
}

func (s *Store) CreateMeme(_ context.Context, meme *model.Meme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateMeme"); err != nil {
		return err
	}
	if meme.ID == "" {
		meme.ID = uuid.NewString()
	}
	if meme.CreatedAt.IsZero() {
		meme.CreatedAt = s.tick()
	}
	cp := *meme
	s.memes[cp.ID] = &cp
	return nil
}

func (s *Store) ListRecentMemesByCreator(_ context.Context, creatorID string, limit int) ([]*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListRecentMemesByCreator"); err != nil {
		return nil, err
	}
	var list []*model.Meme
	for _, m := range s.memes {
		if m.CreatorID == creatorID {
			cp := *m
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *Store) ListSitemapMemes(_ context.Context, limit int) ([]*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListSitemapMemes"); err != nil {
		return nil, err
	}
	var list []*model.Meme
	for _, m := range s.memes {
		list = append(list, &model.Meme{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ---------- ReactionRepository ----------

func (s *Store) ToggleReaction(_ context.Context, memeID, userID string, kind model.ReactionType) (*model.Reaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ToggleReaction"); err != nil {
		return nil, false, err
	}
	for i, r := range s.reactions {
		if r.MemeID == memeID && r.UserID == userID && r.ReactionType == kind {
			s.reactions = append(s.reactions[:i], s.reactions[i+1:]...)
			return nil, false, nil
		}
	}
	r := &model.Reaction{ID: uuid.NewString(), MemeID: memeID, UserID: userID, ReactionType: kind, CreatedAt: s.tick()}
	s.reactions = append(s.reactions, r)
	cp := *r
	return &cp, true, nil
}

func (s *Store) ListReactionsByMeme(_ context.Context, memeID string) ([]*model.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListReactionsByMeme"); err != nil {
		return nil, err
	}
	var out []*model.Reaction
	for _, r := range s.reactions {
		if r.MemeID == memeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListReactionsByMemeIDs(_ context.Context, memeIDs []string) ([]*model.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListReactionsByMemeIDs"); err != nil {
		return nil, err
	}
	want := toSet(memeIDs)
	var out []*model.Reaction
	for _, r := range s.reactions {
		if want[r.MemeID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// ---------- LeaderboardRepository ----------

func (s *Store) GetLeaderboard(_ context.Context, limit int) ([]*repository.LeaderboardRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetLeaderboard"); err != nil {
		return nil, err
	}
	entries := make([]*model.LeaderboardEntry, 0, len(s.leaderboard))
	for _, e := range s.leaderboard {
		if _, ok := s.profiles[e.UserID]; ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score == entries[j].Score {
			return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
		}
		return entries[i].Score > entries[j].Score
	})
	rows := make([]*repository.LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		if i == limit {
			break
		}
		p := s.profiles[e.UserID]
		rows = append(rows, &repository.LeaderboardRow{
			UserID:                 e.UserID,
			Username:               p.Username,
			DisplayName:            p.DisplayName,
			AvatarURL:              p.AvatarURL,
			Score:                  e.Score,
			TotalVotesReceived:     e.TotalVotesReceived,
			TotalBattlesWon:        e.TotalBattlesWon,
			TotalMemesCreated:      e.TotalMemesCreated,
			TotalReactionsReceived: e.TotalReactionsReceived,
			Rank:                   int64(i + 1),
		})
	}
	return rows, nil
}

func (s *Store) GetEntryByUserID(_ context.Context, userID string) (*model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetEntryByUserID"); err != nil {
		return nil, err
	}
	e, ok := s.leaderboard[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	cp.User = s.profiles[userID]
	return &cp, nil
}

func (s *Store) CountHigherScores(_ context.Context, score int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CountHigherScores"); err != nil {
		return 0, err
	}
	var n int64
	for _, e := range s.leaderboard {
		if e.Score > score {
			n++
		}
	}
	return n, nil
}

// RecomputeScore 与 update_leaderboard_score 存储过程同样的计分
func (s *Store) RecomputeScore(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("RecomputeScore"); err != nil {
		return err
	}
	owned := make(map[string]bool)
	var memes int64
	for _, m := range s.memes {
		if m.CreatorID == userID {
			owned[m.ID] = true
			memes++
		}
	}
	var votes, reactions, wins int64
	for _, v := range s.votes {
		if owned[v.MemeID] {
			votes++
		}
	}
	for _, r := range s.reactions {
		if owned[r.MemeID] {
			reactions++
		}
	}
	for _, b := range s.battles {
		if b.Status != model.BattleStatusCompleted {
			continue
		}
		var a, c int64
		for _, v := range s.votes {
			if v.BattleID != b.ID {
				continue
			}
			switch v.MemeID {
			case b.MemeAID:
				a++
			case b.MemeBID:
				c++
			}
		}
		if (a > c && owned[b.MemeAID]) || (c > a && owned[b.MemeBID]) {
			wins++
		}
	}

	e, ok := s.leaderboard[userID]
	if !ok {
		e = &model.LeaderboardEntry{ID: uuid.NewString(), UserID: userID}
		s.leaderboard[userID] = e
	}
	e.TotalVotesReceived = votes
	e.TotalBattlesWon = wins
	e.TotalMemesCreated = memes
	e.TotalReactionsReceived = reactions
	e.Score = votes*model.ScoreWeightVote + wins*model.ScoreWeightWin +
		memes*model.ScoreWeightMeme + reactions*model.ScoreWeightReaction
	e.UpdatedAt = s.tick()
	return nil
}

// ---------- ActivityRepository ----------

func (s *Store) LogActivity(_ context.Context, activity *model.UserActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("LogActivity"); err != nil {
		return err
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	cp := *activity
	s.activities = append(s.activities, &cp)
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

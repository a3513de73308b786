package service

import (
	"context"
	"errors"
	"testing"

	"MemeArena/internal/model"
	"MemeArena/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaderboardService(store *testutil.Store) *LeaderboardService {
	return NewLeaderboardService(store, store, store, quietLogger())
}

func TestGetLeaderboardEchoesTimeframe(t *testing.T) {
	store := testutil.NewStore()
	svc := newLeaderboardService(store)
	ctx := context.Background()

	a := store.AddProfile("a")
	b := store.AddProfile("b")
	store.SetEntry(a.ID, 5)
	store.SetEntry(b.ID, 9)

	res, err := svc.GetLeaderboard(ctx, 0, "")
	require.NoError(t, err)
	assert.Equal(t, TimeframeAllTime, res.Timeframe)
	assert.Equal(t, 2, res.TotalUsers)
	require.Len(t, res.Leaderboard, 2)
	assert.Equal(t, "b", res.Leaderboard[0].Username)
	assert.Equal(t, int64(1), res.Leaderboard[0].Rank)

	weekly, err := svc.GetLeaderboard(ctx, 0, "weekly")
	require.NoError(t, err)
	assert.Equal(t, "weekly", weekly.Timeframe)
	assert.Equal(t, res.Leaderboard, weekly.Leaderboard)

	limited, err := svc.GetLeaderboard(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, limited.TotalUsers)
}

func TestGetLeaderboardFailure(t *testing.T) {
	store := testutil.NewStore()
	svc := newLeaderboardService(store)
	store.FailOn("GetLeaderboard", errors.New("rpc failed"))

	_, err := svc.GetLeaderboard(context.Background(), 10, "")
	assertServiceError(t, err, KindInternal, "Failed to fetch leaderboard")
}

func TestGetUserEntryRankAndActivity(t *testing.T) {
	store := testutil.NewStore()
	svc := newLeaderboardService(store)
	ctx := context.Background()

	me := store.AddProfile("me")
	rival := store.AddProfile("rival")
	tie := store.AddProfile("tie")
	store.SetEntry(me.ID, 10)
	store.SetEntry(rival.ID, 20)
	store.SetEntry(tie.ID, 10)

	var memes []*model.Meme
	for i := 0; i < 7; i++ {
		memes = append(memes, store.AddMeme(me.ID, "m"))
	}
	battle := store.AddBattle(rival.ID, memes[0].ID, memes[1].ID, model.BattleStatusActive, nil)
	store.AddVote(battle.ID, me.ID, memes[0].ID)

	entry, err := svc.GetUserEntry(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "me", entry.User.Username)
	assert.Equal(t, int64(10), entry.Stats.Score)
	// 只比较严格更高的分数，同分不影响名次
	assert.Equal(t, int64(2), entry.Stats.Rank)

	require.Len(t, entry.RecentActivity.Memes, 5)
	assert.Equal(t, memes[6].ID, entry.RecentActivity.Memes[0].ID)
	require.Len(t, entry.RecentActivity.Votes, 1)
	require.NotNil(t, entry.RecentActivity.Votes[0].Battle)
	assert.Equal(t, battle.ID, entry.RecentActivity.Votes[0].Battle.ID)

	tieEntry, err := svc.GetUserEntry(ctx, tie.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Stats.Rank, tieEntry.Stats.Rank)
	assert.Empty(t, tieEntry.RecentActivity.Memes)
	assert.NotNil(t, tieEntry.RecentActivity.Votes)
}

func TestGetUserEntryNotFound(t *testing.T) {
	store := testutil.NewStore()
	svc := newLeaderboardService(store)

	_, err := svc.GetUserEntry(context.Background(), uuid.NewString())
	assertServiceError(t, err, KindNotFound, "User not found in leaderboard")

	_, err = svc.GetUserEntry(context.Background(), "abc")
	assertServiceError(t, err, KindNotFound, "User not found in leaderboard")
}

func TestRecomputeScoreWeights(t *testing.T) {
	store := testutil.NewStore()
	svc := newLeaderboardService(store)
	ctx := context.Background()

	creator := store.AddProfile("creator")
	other := store.AddProfile("other")
	v1 := store.AddProfile("v1")
	v2 := store.AddProfile("v2")
	mine := store.AddMeme(creator.ID, "mine")
	theirs := store.AddMeme(other.ID, "theirs")
	won := store.AddBattle(other.ID, mine.ID, theirs.ID, model.BattleStatusCompleted, nil)
	store.AddVote(won.ID, v1.ID, mine.ID)
	store.AddVote(won.ID, v2.ID, mine.ID)
	store.AddVote(won.ID, other.ID, theirs.ID)
	store.AddReaction(mine.ID, v1.ID, model.ReactionFire)

	require.NoError(t, svc.RecomputeScore(ctx, "", creator.ID))

	e := store.Entry(creator.ID)
	require.NotNil(t, e)
	assert.Equal(t, int64(2), e.TotalVotesReceived)
	assert.Equal(t, int64(1), e.TotalBattlesWon)
	assert.Equal(t, int64(1), e.TotalMemesCreated)
	assert.Equal(t, int64(1), e.TotalReactionsReceived)
	assert.Equal(t, int64(2*2+1*10+1+1), e.Score)

	require.NoError(t, svc.RecomputeScore(ctx, other.ID, creator.ID))
	assert.Equal(t, int64(1*2+0+1+0), store.Entry(other.ID).Score)
}

func TestRecomputeScoreErrors(t *testing.T) {
	store := testutil.NewStore()
	svc := newLeaderboardService(store)
	ctx := context.Background()

	err := svc.RecomputeScore(ctx, "", "")
	assertServiceError(t, err, KindUnauthorized, "Unauthorized")

	store.FailOn("RecomputeScore", errors.New("rpc"))
	err = svc.RecomputeScore(ctx, "", uuid.NewString())
	assertServiceError(t, err, KindInternal, "Failed to update score")
}

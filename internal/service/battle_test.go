package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"MemeArena/internal/model"
	"MemeArena/internal/testutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func assertServiceError(t *testing.T, err error, kind ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	se, ok := AsError(err)
	require.True(t, ok, "expected *service.Error, got %T: %v", err, err)
	assert.Equal(t, kind, se.Kind)
	assert.Equal(t, msg, se.Message)
}

type battleFixture struct {
	store   *testutil.Store
	clock   *testutil.Clock
	svc     *BattleService
	creator *model.Profile
	voter   *model.Profile
	memeA   *model.Meme
	memeB   *model.Meme
	battle  *model.Battle
}

func newBattleFixture(t *testing.T) *battleFixture {
	t.Helper()
	store := testutil.NewStore()
	clock := testutil.NewClock()
	svc := NewBattleService(store, store, store, quietLogger())
	svc.now = clock.Now

	creator := store.AddProfile("creator")
	voter := store.AddProfile("voter")
	a := store.AddMeme(creator.ID, "cat")
	b := store.AddMeme(voter.ID, "dog")
	ends := clock.Now().Add(time.Hour)
	battle := store.AddBattle(creator.ID, a.ID, b.ID, model.BattleStatusActive, &ends)
	return &battleFixture{store: store, clock: clock, svc: svc, creator: creator, voter: voter, memeA: a, memeB: b, battle: battle}
}

func TestGetBattle(t *testing.T) {
	f := newBattleFixture(t)
	other := f.store.AddProfile("other")
	f.store.AddVote(f.battle.ID, f.voter.ID, f.memeA.ID)
	f.store.AddVote(f.battle.ID, other.ID, f.memeA.ID)
	f.store.AddVote(f.battle.ID, f.creator.ID, f.memeB.ID)

	view, err := f.svc.GetBattle(context.Background(), f.battle.ID, f.voter.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.MemeA.Votes)
	assert.Equal(t, int64(1), view.MemeB.Votes)
	assert.Equal(t, view.MemeA.Votes+view.MemeB.Votes, view.TotalVotes)
	require.NotNil(t, view.UserVote)
	assert.Equal(t, f.memeA.ID, *view.UserVote)
	require.NotNil(t, view.MemeA.Creator)
	assert.Equal(t, "creator", view.MemeA.Creator.Username)

	anon, err := f.svc.GetBattle(context.Background(), f.battle.ID, "")
	require.NoError(t, err)
	assert.Nil(t, anon.UserVote)

	noVote, err := f.svc.GetBattle(context.Background(), f.battle.ID, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, noVote.UserVote)
}

func TestGetBattleNotFound(t *testing.T) {
	f := newBattleFixture(t)

	_, err := f.svc.GetBattle(context.Background(), uuid.NewString(), "")
	assertServiceError(t, err, KindNotFound, "Battle not found")

	_, err = f.svc.GetBattle(context.Background(), "not-a-uuid", "")
	assertServiceError(t, err, KindNotFound, "Battle not found")
}

func TestUpdateBattleStatus(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateBattleStatus(ctx, f.battle.ID, model.BattleStatusCancelled, "")
	assertServiceError(t, err, KindUnauthorized, "Unauthorized")

	_, err = f.svc.UpdateBattleStatus(ctx, uuid.NewString(), model.BattleStatusCancelled, f.creator.ID)
	assertServiceError(t, err, KindNotFound, "Battle not found")

	_, err = f.svc.UpdateBattleStatus(ctx, f.battle.ID, model.BattleStatusCancelled, f.voter.ID)
	assertServiceError(t, err, KindForbidden, "Not authorized to modify this battle")
	assert.Equal(t, model.BattleStatusActive, f.store.Battle(f.battle.ID).Status)

	_, err = f.svc.UpdateBattleStatus(ctx, f.battle.ID, "paused", f.creator.ID)
	assertServiceError(t, err, KindValidation, "Invalid battle status")

	f.clock.Advance(time.Minute)
	updated, err := f.svc.UpdateBattleStatus(ctx, f.battle.ID, model.BattleStatusCancelled, f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BattleStatusCancelled, updated.Status)
	assert.Equal(t, f.clock.Now(), updated.UpdatedAt)
}

func TestUpdateBattleStatusTerminal(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateBattleStatus(ctx, f.battle.ID, model.BattleStatusCancelled, f.creator.ID)
	require.NoError(t, err)

	for _, next := range []string{model.BattleStatusActive, model.BattleStatusCompleted, model.BattleStatusCancelled} {
		_, err = f.svc.UpdateBattleStatus(ctx, f.battle.ID, next, f.creator.ID)
		assertServiceError(t, err, KindValidation, "Battle is not active")
	}
	assert.Equal(t, model.BattleStatusCancelled, f.store.Battle(f.battle.ID).Status)

	// 非发起者仍先得到 403
	_, err = f.svc.UpdateBattleStatus(ctx, f.battle.ID, model.BattleStatusActive, f.voter.ID)
	assertServiceError(t, err, KindForbidden, "Not authorized to modify this battle")
}

func TestUpdateBattleStatusWriteFailure(t *testing.T) {
	f := newBattleFixture(t)
	f.store.FailOn("UpdateBattleStatus", errors.New("db down"))

	_, err := f.svc.UpdateBattleStatus(context.Background(), f.battle.ID, model.BattleStatusCompleted, f.creator.ID)
	assertServiceError(t, err, KindInternal, "Failed to update battle")
}

func TestCastVote(t *testing.T) {
	f := newBattleFixture(t)

	res, err := f.svc.CastVote(context.Background(), f.battle.ID, f.memeB.ID, f.voter.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, f.memeB.ID, res.Vote.MemeID)
	assert.NotEmpty(t, res.Vote.ID)
	assert.Equal(t, VoteCounts{MemeA: 0, MemeB: 1, Total: 1}, res.VoteCounts)
}

func TestCastVoteValidationOrder(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	ended := f.clock.Now().Add(-time.Minute)
	expired := f.store.AddBattle(f.creator.ID, f.memeA.ID, f.memeB.ID, model.BattleStatusActive, &ended)
	// 状态检查先于时间检查
	closed := f.store.AddBattle(f.creator.ID, f.memeA.ID, f.memeB.ID, model.BattleStatusCompleted, &ended)

	tests := []struct {
		name     string
		battleID string
		memeID   string
		caller   string
		kind     ErrorKind
		msg      string
	}{
		{"anonymous", f.battle.ID, f.memeA.ID, "", KindUnauthorized, "Unauthorized"},
		{"missing battle id", "", f.memeA.ID, f.voter.ID, KindValidation, "Missing required fields"},
		{"missing meme id", f.battle.ID, "", f.voter.ID, KindValidation, "Missing required fields"},
		{"unknown battle", uuid.NewString(), f.memeA.ID, f.voter.ID, KindNotFound, "Battle not found"},
		{"not active", closed.ID, f.memeA.ID, f.voter.ID, KindValidation, "Battle is not active"},
		{"ended", expired.ID, f.memeA.ID, f.voter.ID, KindValidation, "Battle has ended"},
		{"foreign meme", f.battle.ID, uuid.NewString(), f.voter.ID, KindValidation, "Invalid meme for this battle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CastVote(ctx, tt.battleID, tt.memeID, tt.caller)
			assertServiceError(t, err, tt.kind, tt.msg)
		})
	}
	assert.Empty(t, f.store.Votes())
}

func TestCastVoteRejectsSecondVote(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	_, err := f.svc.CastVote(ctx, f.battle.ID, f.memeA.ID, f.voter.ID)
	require.NoError(t, err)

	_, err = f.svc.CastVote(ctx, f.battle.ID, f.memeB.ID, f.voter.ID)
	assertServiceError(t, err, KindConflict, "You have already voted in this battle")
	assert.Len(t, f.store.Votes(), 1)
}

func TestCastVoteConcurrentSameVoter(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			meme := f.memeA.ID
			if i%2 == 1 {
				meme = f.memeB.ID
			}
			if _, err := f.svc.CastVote(ctx, f.battle.ID, meme, f.voter.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.store.Votes(), 1)
}

func TestCastVoteStoreFailure(t *testing.T) {
	f := newBattleFixture(t)
	f.store.FailOn("CreateVote", errors.New("insert failed"))

	_, err := f.svc.CastVote(context.Background(), f.battle.ID, f.memeA.ID, f.voter.ID)
	assertServiceError(t, err, KindInternal, "Failed to create vote")
}

func TestCreateBattle(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBattle(ctx, CreateBattleInput{
		Title:   "  cats vs dogs ",
		MemeAID: f.memeA.ID,
		MemeBID: f.memeB.ID,
	}, f.voter.ID)
	require.NoError(t, err)
	assert.Equal(t, "cats vs dogs", b.Title)
	assert.Equal(t, model.BattleStatusActive, b.Status)
	assert.Equal(t, f.voter.ID, b.CreatorID)
	require.NotNil(t, b.EndsAt)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), *b.EndsAt)
	assert.Nil(t, b.Description)
	assert.NotNil(t, f.store.Battle(b.ID))

	b, err = f.svc.CreateBattle(ctx, CreateBattleInput{
		Title: "short", Description: "quick one", MemeAID: f.memeA.ID, MemeBID: f.memeB.ID, DurationHours: 2,
	}, f.voter.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(2*time.Hour), *b.EndsAt)
	require.NotNil(t, b.Description)
	assert.Equal(t, "quick one", *b.Description)
}

func TestCreateBattleValidation(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateBattleInput
		kind ErrorKind
		msg  string
	}{
		{"missing meme", CreateBattleInput{Title: "t", MemeAID: f.memeA.ID}, KindValidation, "Please select two memes for the battle"},
		{"blank title", CreateBattleInput{Title: "   ", MemeAID: f.memeA.ID, MemeBID: f.memeB.ID}, KindValidation, "Please enter a battle title"},
		{"same meme", CreateBattleInput{Title: "t", MemeAID: f.memeA.ID, MemeBID: f.memeA.ID}, KindValidation, "Please select two different memes"},
		{"too long", CreateBattleInput{Title: "t", MemeAID: f.memeA.ID, MemeBID: f.memeB.ID, DurationHours: 169}, KindValidation, "Invalid battle duration"},
		{"negative", CreateBattleInput{Title: "t", MemeAID: f.memeA.ID, MemeBID: f.memeB.ID, DurationHours: -1}, KindValidation, "Invalid battle duration"},
		{"unknown meme", CreateBattleInput{Title: "t", MemeAID: f.memeA.ID, MemeBID: uuid.NewString()}, KindNotFound, "Meme not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBattle(ctx, tt.in, f.voter.ID)
			assertServiceError(t, err, tt.kind, tt.msg)
		})
	}

	_, err := f.svc.CreateBattle(ctx, CreateBattleInput{Title: "t", MemeAID: f.memeA.ID, MemeBID: f.memeB.ID}, "")
	assertServiceError(t, err, KindUnauthorized, "Unauthorized")
}

func TestListBattles(t *testing.T) {
	f := newBattleFixture(t)
	ctx := context.Background()
	done := f.store.AddBattle(f.creator.ID, f.memeA.ID, f.memeB.ID, model.BattleStatusCompleted, nil)
	f.store.AddVote(done.ID, f.voter.ID, f.memeB.ID)

	all, err := f.svc.ListBattles(ctx, "", 0, f.voter.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// 新建的在前
	assert.Equal(t, done.ID, all[0].ID)
	assert.Equal(t, int64(1), all[0].MemeB.Votes)
	require.NotNil(t, all[0].UserVote)
	assert.Equal(t, f.memeB.ID, *all[0].UserVote)
	assert.Nil(t, all[1].UserVote)

	active, err := f.svc.ListBattles(ctx, model.BattleStatusActive, 10, "")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.battle.ID, active[0].ID)

	_, err = f.svc.ListBattles(ctx, "bogus", 10, "")
	assertServiceError(t, err, KindValidation, "Invalid battle status")
}

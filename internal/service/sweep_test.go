package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"MemeArena/internal/model"
	"MemeArena/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCompletesOnlyExpiredActive(t *testing.T) {
	store := testutil.NewStore()
	clock := testutil.NewClock()
	svc := NewSweepService(store, quietLogger())
	svc.now = clock.Now

	u := store.AddProfile("u")
	a := store.AddMeme(u.ID, "a")
	b := store.AddMeme(u.ID, "b")
	past := clock.Now().Add(-time.Minute)
	future := clock.Now().Add(time.Hour)
	expired := store.AddBattle(u.ID, a.ID, b.ID, model.BattleStatusActive, &past)
	running := store.AddBattle(u.ID, a.ID, b.ID, model.BattleStatusActive, &future)
	cancelled := store.AddBattle(u.ID, a.ID, b.ID, model.BattleStatusCancelled, &past)
	open := store.AddBattle(u.ID, a.ID, b.ID, model.BattleStatusActive, nil)

	var observed []int64
	svc.OnSwept(func(n int64) { observed = append(observed, n) })

	res, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(1), res.Updated)
	assert.Equal(t, clock.Now(), res.Timestamp)

	assert.Equal(t, model.BattleStatusCompleted, store.Battle(expired.ID).Status)
	assert.Equal(t, model.BattleStatusActive, store.Battle(running.ID).Status)
	assert.Equal(t, model.BattleStatusCancelled, store.Battle(cancelled.ID).Status)
	assert.Equal(t, model.BattleStatusActive, store.Battle(open.ID).Status)

	// 重复执行无副作用
	again, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Updated)
	assert.Equal(t, []int64{1, 0}, observed)
}

func TestSweepFailure(t *testing.T) {
	store := testutil.NewStore()
	svc := NewSweepService(store, quietLogger())
	store.FailOn("CompleteExpiredBattles", errors.New("db"))

	_, err := svc.Sweep(context.Background())
	assertServiceError(t, err, KindInternal, "Update failed")
}

func TestRunStopsOnCancel(t *testing.T) {
	store := testutil.NewStore()
	svc := NewSweepService(store, quietLogger())

	ticks := make(chan int64, 8)
	svc.OnSwept(func(n int64) {
		select {
		case ticks <- n:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, 5*time.Millisecond) }()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not tick")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunDisabled(t *testing.T) {
	svc := NewSweepService(testutil.NewStore(), quietLogger())
	assert.NoError(t, svc.Run(context.Background(), 0))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"MemeArena/internal/model"
	"MemeArena/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFarcasterShare(t *testing.T) {
	store := testutil.NewStore()
	clock := testutil.NewClock()
	svc := NewShareService(store, quietLogger())
	svc.now = clock.Now

	err := svc.LogFarcasterShare(context.Background(), ShareInput{BattleID: "b1", MemeID: "m1", Text: "vote now"}, "u1")
	require.NoError(t, err)

	acts := store.Activities()
	require.Len(t, acts, 1)
	assert.Equal(t, "u1", acts[0].UserID)
	assert.Equal(t, model.ActivityFarcasterShare, acts[0].ActivityType)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(acts[0].Metadata, &meta))
	assert.Equal(t, "b1", meta["battle_id"])
	assert.Equal(t, "m1", meta["meme_id"])
	assert.Equal(t, "vote now", meta["shared_text"])
	assert.Equal(t, "2025-03-01T12:00:00Z", meta["timestamp"])
}

func TestLogFarcasterShareSwallowsStoreError(t *testing.T) {
	store := testutil.NewStore()
	svc := NewShareService(store, quietLogger())
	store.FailOn("LogActivity", errors.New("insert failed"))

	assert.NoError(t, svc.LogFarcasterShare(context.Background(), ShareInput{}, "u1"))
	assert.Empty(t, store.Activities())
}

func TestLogFarcasterShareRequiresCaller(t *testing.T) {
	svc := NewShareService(testutil.NewStore(), quietLogger())
	err := svc.LogFarcasterShare(context.Background(), ShareInput{}, "")
	assertServiceError(t, err, KindUnauthorized, "Unauthorized")
}

package service

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"MemeArena/internal/model"
	"MemeArena/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemap(t *testing.T) {
	store := testutil.NewStore()
	svc := NewSitemapService(store, store, "https://arena.example", quietLogger())

	u := store.AddProfile("u")
	a := store.AddMeme(u.ID, "a")
	b := store.AddMeme(u.ID, "b")
	active := store.AddBattle(u.ID, a.ID, b.ID, model.BattleStatusActive, nil)
	store.AddBattle(u.ID, a.ID, b.ID, model.BattleStatusCompleted, nil)

	out, err := svc.Sitemap(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), xml.Header))

	var set urlSet
	require.NoError(t, xml.Unmarshal(out, &set))
	assert.Contains(t, string(out), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	// 4 个固定页面 + 1 个 active 对战 + 2 个 Meme
	require.Len(t, set.URLs, 7)
	assert.Equal(t, "https://arena.example", set.URLs[0].Loc)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, "https://arena.example/leaderboard", set.URLs[3].Loc)
	assert.Equal(t, "https://arena.example/battles/"+active.ID, set.URLs[4].Loc)
	assert.Equal(t, "hourly", set.URLs[4].ChangeFreq)
	assert.Equal(t, "0.6", set.URLs[4].Priority)
	assert.Equal(t, "https://arena.example/memes/"+b.ID, set.URLs[5].Loc)
	assert.Equal(t, "weekly", set.URLs[6].ChangeFreq)
}

func TestSitemapFailure(t *testing.T) {
	store := testutil.NewStore()
	svc := NewSitemapService(store, store, "https://arena.example", quietLogger())
	store.FailOn("ListSitemapMemes", errors.New("db"))

	_, err := svc.Sitemap(context.Background())
	assertServiceError(t, err, KindInternal, "Failed to generate sitemap")
}

func TestRobots(t *testing.T) {
	svc := NewSitemapService(testutil.NewStore(), testutil.NewStore(), "https://arena.example", quietLogger())
	robots := svc.Robots()
	assert.True(t, strings.HasPrefix(robots, "User-agent: *\nAllow: /\n"))
	assert.Contains(t, robots, "Sitemap: https://arena.example/sitemap.xml")
	assert.Contains(t, robots, "Disallow: /api/")
	assert.True(t, strings.HasSuffix(robots, "Allow: /leaderboard"))
}

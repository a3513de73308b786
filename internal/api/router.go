package api

import (
	"net/http"

	"MemeArena/internal/identity"
	"MemeArena/internal/metrics"
	"MemeArena/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Deps 路由依赖
type Deps struct {
	Battles     *service.BattleService
	Memes       *service.MemeService
	Reactions   *service.ReactionService
	Leaderboard *service.LeaderboardService
	Sweep       *service.SweepService
	Share       *service.ShareService
	Sitemap     *service.SitemapService
	Verifier    identity.Verifier
	Metrics     *metrics.Metrics
	CronSecret  string
	Pprof       bool
	Logger      *logrus.Logger
}

// NewRouter 注册全部路由
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.Use(RequestLogger(d.Logger))

	if d.Pprof {
		// 注册ppof 方便调试和监测性能问题
		pprof.Register(r)
	}

	var onVote func()
	var onReaction func(string)
	if d.Metrics != nil {
		onVote = d.Metrics.VotesCast.Inc
		onReaction = func(action string) { d.Metrics.ReactionsToggled.WithLabelValues(action).Inc() }
	}

	battleHandler := NewBattleHandler(d.Battles, onVote, d.Logger)
	memeHandler := NewMemeHandler(d.Memes, d.Reactions, onReaction, d.Logger)
	leaderboardHandler := NewLeaderboardHandler(d.Leaderboard, d.Logger)
	siteHandler := NewSiteHandler(d.Sweep, d.Share, d.Sitemap, d.Logger)

	// 不经过身份解析的接口：调度器密钥不能转发给身份服务
	r.GET("/health", siteHandler.Health)
	r.GET("/robots.txt", siteHandler.Robots)
	r.GET("/sitemap.xml", siteHandler.Sitemap)
	r.GET("/api/sitemap", siteHandler.Sitemap)
	r.GET("/api/cron/update-battle-status", CronAuth(d.CronSecret), siteHandler.UpdateBattleStatus)

	apiGroup := r.Group("/api", OptionalAuth(d.Verifier, d.Logger))
	auth := RequireAuth()

	// 对战
	apiGroup.GET("/battles", battleHandler.ListBattles)
	apiGroup.POST("/battles", auth, battleHandler.CreateBattle)
	apiGroup.POST("/battles/vote", auth, battleHandler.Vote)
	apiGroup.GET("/battles/:id", battleHandler.GetBattle)
	apiGroup.PATCH("/battles/:id", auth, battleHandler.UpdateBattle)

	// Meme 与反应
	apiGroup.GET("/memes", memeHandler.ListMemes)
	apiGroup.POST("/memes", auth, memeHandler.CreateMeme)
	apiGroup.GET("/memes/:id/react", memeHandler.ListReactions)
	apiGroup.POST("/memes/:id/react", auth, memeHandler.ToggleReaction)

	// 排行榜
	apiGroup.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	apiGroup.POST("/leaderboard", auth, leaderboardHandler.Recompute)
	apiGroup.GET("/leaderboard/user/:id", leaderboardHandler.GetUserEntry)

	apiGroup.POST("/farcaster/share", auth, siteHandler.Share)

	return r
}

// WithCORS 按允许来源包一层 CORS；来源含 "*" 时不允许携带凭据
func WithCORS(h http.Handler, origins []string) http.Handler {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
			break
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !wildcard,
	}).Handler(h)
}

package api

import (
	"net/http"

	"MemeArena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SiteHandler 调度、分享与爬虫相关的杂项接口
type SiteHandler struct {
	sweepService   *service.SweepService
	shareService   *service.ShareService
	sitemapService *service.SitemapService
	logger         *logrus.Logger
}

// NewSiteHandler 创建 SiteHandler
func NewSiteHandler(sweep *service.SweepService, share *service.ShareService, sitemap *service.SitemapService, logger *logrus.Logger) *SiteHandler {
	return &SiteHandler{sweepService: sweep, shareService: share, sitemapService: sitemap, logger: logger}
}

type shareRequest struct {
	BattleID string `json:"battleId"`
	MemeID   string `json:"memeId"`
	Text     string `json:"text"`
}

// UpdateBattleStatus 外部调度器触发的到期巡检
// GET /api/cron/update-battle-status
func (h *SiteHandler) UpdateBattleStatus(c *gin.Context) {
	res, err := h.sweepService.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "SweepBattles", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Share 记录分享
// POST /api/farcaster/share
func (h *SiteHandler) Share(c *gin.Context) {
	var req shareRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	in := service.ShareInput{BattleID: req.BattleID, MemeID: req.MemeID, Text: req.Text}
	if err := h.shareService.LogFarcasterShare(c.Request.Context(), in, callerID(c)); err != nil {
		writeError(c, h.logger, "Share", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Share activity logged successfully"})
}

// Sitemap GET /sitemap.xml
func (h *SiteHandler) Sitemap(c *gin.Context) {
	body, err := h.sitemapService.Sitemap(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "Sitemap", err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600, s-maxage=3600")
	c.Data(http.StatusOK, "application/xml", body)
}

// Robots GET /robots.txt
func (h *SiteHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "text/plain", []byte(h.sitemapService.Robots()))
}

// Health GET /health
func (h *SiteHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

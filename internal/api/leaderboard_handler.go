package api

import (
	"net/http"
	"strconv"

	"MemeArena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LeaderboardHandler 排行榜接口
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	logger             *logrus.Logger
}

// NewLeaderboardHandler 创建 LeaderboardHandler
func NewLeaderboardHandler(svc *service.LeaderboardService, logger *logrus.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: svc, logger: logger}
}

type recomputeRequest struct {
	UserID string `json:"userId"`
}

// GetLeaderboard GET /api/leaderboard?limit=50&timeframe=all_time
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	res, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), limit, c.DefaultQuery("timeframe", service.TimeframeAllTime))
	if err != nil {
		writeError(c, h.logger, "GetLeaderboard", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Recompute POST /api/leaderboard  {"userId":"..."}，不传则重算调用者
func (h *LeaderboardHandler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	if err := h.leaderboardService.RecomputeScore(c.Request.Context(), req.UserID, callerID(c)); err != nil {
		writeError(c, h.logger, "RecomputeScore", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetUserEntry GET /api/leaderboard/user/:id
func (h *LeaderboardHandler) GetUserEntry(c *gin.Context) {
	res, err := h.leaderboardService.GetUserEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "GetUserEntry", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

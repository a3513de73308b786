package api

import (
	"net/http"
	"strconv"

	"MemeArena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BattleHandler 对战相关接口
type BattleHandler struct {
	battleService *service.BattleService
	onVote        func()
	logger        *logrus.Logger
}

// NewBattleHandler onVote 在投票成功后调用，可为 nil
func NewBattleHandler(svc *service.BattleService, onVote func(), logger *logrus.Logger) *BattleHandler {
	return &BattleHandler{battleService: svc, onVote: onVote, logger: logger}
}

type updateBattleRequest struct {
	Status string `json:"status"`
}

type listBattlesQuery struct {
	Status string `form:"status" binding:"omitempty,battle_status"`
}

type createBattleRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	MemeAID       string `json:"memeAId"`
	MemeBID       string `json:"memeBId"`
	DurationHours int    `json:"durationHours"`
}

type voteRequest struct {
	BattleID string `json:"battleId"`
	MemeID   string `json:"memeId"`
}

// ListBattles 对战列表
// GET /api/battles?status=active&limit=20
func (h *BattleHandler) ListBattles(c *gin.Context) {
	var q listBattlesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid battle status"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	battles, err := h.battleService.ListBattles(c.Request.Context(), q.Status, limit, callerID(c))
	if err != nil {
		writeError(c, h.logger, "ListBattles", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battles": battles})
}

// GetBattle 对战详情
// GET /api/battles/:id
func (h *BattleHandler) GetBattle(c *gin.Context) {
	view, err := h.battleService.GetBattle(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, h.logger, "GetBattle", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateBattle 发起者修改状态；状态值在存在性与归属校验之后由 service 校验
// PATCH /api/battles/:id  {"status":"cancelled"}
func (h *BattleHandler) UpdateBattle(c *gin.Context) {
	var req updateBattleRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	battle, err := h.battleService.UpdateBattleStatus(c.Request.Context(), c.Param("id"), req.Status, callerID(c))
	if err != nil {
		writeError(c, h.logger, "UpdateBattle", err)
		return
	}
	c.JSON(http.StatusOK, battle)
}

// CreateBattle 发起对战
// POST /api/battles
func (h *BattleHandler) CreateBattle(c *gin.Context) {
	var req createBattleRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	battle, err := h.battleService.CreateBattle(c.Request.Context(), service.CreateBattleInput{
		Title:         req.Title,
		Description:   req.Description,
		MemeAID:       req.MemeAID,
		MemeBID:       req.MemeBID,
		DurationHours: req.DurationHours,
	}, callerID(c))
	if err != nil {
		writeError(c, h.logger, "CreateBattle", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "battle": battle})
}

// Vote 投票
// POST /api/battles/vote  {"battleId":"...","memeId":"..."}
func (h *BattleHandler) Vote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req, "Missing required fields") {
		return
	}
	res, err := h.battleService.CastVote(c.Request.Context(), req.BattleID, req.MemeID, callerID(c))
	if err != nil {
		writeError(c, h.logger, "Vote", err)
		return
	}
	if h.onVote != nil {
		h.onVote()
	}
	c.JSON(http.StatusOK, res)
}

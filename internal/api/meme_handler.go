package api

import (
	"net/http"
	"strconv"

	"MemeArena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MemeHandler Meme 列表、创建与表情反应
type MemeHandler struct {
	memeService     *service.MemeService
	reactionService *service.ReactionService
	onReaction      func(action string)
	logger          *logrus.Logger
}

// NewMemeHandler onReaction 在切换成功后调用，可为 nil
func NewMemeHandler(memes *service.MemeService, reactions *service.ReactionService, onReaction func(action string), logger *logrus.Logger) *MemeHandler {
	return &MemeHandler{memeService: memes, reactionService: reactions, onReaction: onReaction, logger: logger}
}

type createMemeRequest struct {
	Title       string `json:"title"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

type reactRequest struct {
	ReactionType string `json:"reactionType" binding:"reaction_type"`
}

// ListMemes Meme 列表
// GET /api/memes?page=1&limit=20&search=cat&sortBy=votes&sortOrder=desc
func (h *MemeHandler) ListMemes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.memeService.ListMemes(c.Request.Context(), service.MemeQuery{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		SortBy:    c.DefaultQuery("sortBy", "created_at"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
	})
	if err != nil {
		writeError(c, h.logger, "ListMemes", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateMeme 上传 Meme（图片地址由外部存储提供）
// POST /api/memes
func (h *MemeHandler) CreateMeme(c *gin.Context) {
	var req createMemeRequest
	if !bindJSON(c, &req, "Title and image URL are required") {
		return
	}
	meme, err := h.memeService.CreateMeme(c.Request.Context(), req.Title, req.ImageURL, req.Description, callerID(c))
	if err != nil {
		writeError(c, h.logger, "CreateMeme", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "meme": meme})
}

// ToggleReaction 切换表情反应
// POST /api/memes/:id/react  {"reactionType":"fire"}
func (h *MemeHandler) ToggleReaction(c *gin.Context) {
	var req reactRequest
	if !bindJSON(c, &req, "Invalid reaction type") {
		return
	}
	res, err := h.reactionService.ToggleReaction(c.Request.Context(), c.Param("id"), req.ReactionType, callerID(c))
	if err != nil {
		writeError(c, h.logger, "ToggleReaction", err)
		return
	}
	if h.onReaction != nil {
		h.onReaction(res.Action)
	}
	c.JSON(http.StatusOK, res)
}

// ListReactions 反应统计
// GET /api/memes/:id/react
func (h *MemeHandler) ListReactions(c *gin.Context) {
	res, err := h.reactionService.ListReactions(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, h.logger, "ListReactions", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

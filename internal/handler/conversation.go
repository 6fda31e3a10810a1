package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"memchat/internal/model"
	"memchat/internal/repository"
)

// ConversationHandler 对话管理处理器
type ConversationHandler struct {
	convRepo *repository.ConversationRepo
	msgRepo  *repository.MessageRepo
}

// NewConversationHandler 创建对话管理处理器
func NewConversationHandler(convRepo *repository.ConversationRepo, msgRepo *repository.MessageRepo) *ConversationHandler {
	return &ConversationHandler{
		convRepo: convRepo,
		msgRepo:  msgRepo,
	}
}

// List 获取用户的对话列表
// GET /api/v1/conversations/:id （id 为用户 ID，按 lastActivity 降序）
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.Param("id")

	convs := h.convRepo.ListByUserID(c.Request.Context(), userID)
	if convs == nil {
		convs = []*model.Conversation{}
	}

	c.JSON(http.StatusOK, convs)
}

// Create 创建对话
// POST /api/v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req model.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid conversation data",
			Detail:  err.Error(),
		})
		return
	}

	conv := h.convRepo.Create(c.Request.Context(), &model.Conversation{
		UserID:       req.UserID,
		Title:        req.Title,
		LastMessage:  req.LastMessage,
		MessageCount: req.MessageCount,
	})

	c.JSON(http.StatusCreated, conv)
}

// Delete 删除对话及其全部消息
// DELETE /api/v1/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	convID := c.Param("id")

	if !h.convRepo.Delete(c.Request.Context(), convID) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40401,
			Message: "Conversation not found",
		})
		return
	}
	h.msgRepo.DeleteByConversationID(c.Request.Context(), convID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Conversation deleted",
	})
}

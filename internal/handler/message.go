package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memchat/internal/model"
	"memchat/internal/repository"
	"memchat/internal/service"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	msgRepo *repository.MessageRepo
	chatSvc *service.ChatService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(msgRepo *repository.MessageRepo, chatSvc *service.ChatService) *MessageHandler {
	return &MessageHandler{
		msgRepo: msgRepo,
		chatSvc: chatSvc,
	}
}

// List 获取对话的消息列表
// GET /api/v1/conversations/:id/messages （按 timestamp 升序）
func (h *MessageHandler) List(c *gin.Context) {
	convID := c.Param("id")

	msgs := h.msgRepo.ListByConversationID(c.Request.Context(), convID)
	if msgs == nil {
		msgs = []*model.Message{}
	}

	c.JSON(http.StatusOK, msgs)
}

// Send 发送消息并获取 AI 回复
// POST /api/v1/conversations/:id/messages
// Request: { "content": "Hello", "userId": "u1" }
// Response: { "userMessage": {...}, "aiMessage": {...} }
func (h *MessageHandler) Send(c *gin.Context) {
	convID := c.Param("id")

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Content and userId are required",
			Detail:  err.Error(),
		})
		return
	}

	resp, err := h.chatSvc.SendMessage(c.Request.Context(), convID, &req)
	if err != nil {
		if errors.Is(err, service.ErrAPIKeyMissing) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Code:    40003,
				Message: "OpenAI API key not configured",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Failed to process message",
			Detail:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

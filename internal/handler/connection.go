package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"memchat/internal/ai"
	"memchat/internal/model"
	"memchat/internal/pkg/memu"
)

// ConnectionHandler 外部服务连通性自检处理器
type ConnectionHandler struct {
	aiClient   *ai.Client
	memuClient *memu.Client
}

// NewConnectionHandler 创建连通性自检处理器
func NewConnectionHandler(aiClient *ai.Client, memuClient *memu.Client) *ConnectionHandler {
	return &ConnectionHandler{
		aiClient:   aiClient,
		memuClient: memuClient,
	}
}

// Test 独立测试补全服务和记忆服务的连通性
// POST /api/v1/test-connections
// Request: { "openaiApiKey": "...", "memuApiKey": "...", "userId": "u1" }
// Response: { "openai": true, "memu": false }
func (h *ConnectionHandler) Test(c *gin.Context) {
	var req model.TestConnectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	results := model.TestConnectionsResponse{}

	if req.OpenAIAPIKey != "" {
		results.OpenAI = h.aiClient.TestConnection(c.Request.Context(), req.OpenAIAPIKey)
	}

	if req.MemuAPIKey != "" && req.UserID != "" {
		results.Memu = h.memuClient.RetrieveMemory(c.Request.Context(), req.MemuAPIKey, "test query", req.UserID).Success
	}

	c.JSON(http.StatusOK, results)
}

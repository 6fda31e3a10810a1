package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memchat/internal/model"
	"memchat/internal/repository"
)

// SettingsHandler 用户设置处理器
type SettingsHandler struct {
	settingsRepo *repository.SettingsRepo
}

// NewSettingsHandler 创建用户设置处理器
func NewSettingsHandler(settingsRepo *repository.SettingsRepo) *SettingsHandler {
	return &SettingsHandler{
		settingsRepo: settingsRepo,
	}
}

// Get 获取用户设置，不存在时按默认值惰性创建
// GET /api/v1/settings/:id （id 为用户 ID）
func (h *SettingsHandler) Get(c *gin.Context) {
	userID := c.Param("id")

	settings, err := h.settingsRepo.FindByUserID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		settings = h.settingsRepo.Create(c.Request.Context(), &model.Settings{UserID: userID})
	}

	c.JSON(http.StatusOK, settings)
}

// Update 部分更新用户设置，不存在时按请求字段创建
// PUT /api/v1/settings/:id
func (h *SettingsHandler) Update(c *gin.Context) {
	userID := c.Param("id")

	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid settings data",
			Detail:  err.Error(),
		})
		return
	}

	settings, err := h.settingsRepo.Update(c.Request.Context(), userID, req.ToUpdate())
	if errors.Is(err, repository.ErrNotFound) {
		settings = h.settingsRepo.Create(c.Request.Context(), newSettingsFromRequest(userID, &req))
	}

	c.JSON(http.StatusOK, settings)
}

// newSettingsFromRequest 从更新请求构造初始设置，缺省字段由仓库补默认值
func newSettingsFromRequest(userID string, req *model.UpdateSettingsRequest) *model.Settings {
	settings := &model.Settings{
		UserID:       userID,
		MemuAPIKey:   req.MemuAPIKey,
		OpenAIAPIKey: req.OpenAIAPIKey,
	}
	if req.Temperature != nil {
		settings.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		settings.MaxTokens = *req.MaxTokens
	}
	if req.Model != nil {
		settings.Model = *req.Model
	}
	if req.AutoMemoryStorage != nil {
		settings.AutoMemoryStorage = *req.AutoMemoryStorage
	}
	if req.ContextAwareResponses != nil {
		settings.ContextAwareResponses = *req.ContextAwareResponses
	}
	if req.UserIdentifier != nil {
		settings.UserIdentifier = *req.UserIdentifier
	}
	return settings
}

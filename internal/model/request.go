package model

// CreateConversationRequest 创建对话请求
type CreateConversationRequest struct {
	UserID       string  `json:"userId" binding:"required"`
	Title        string  `json:"title" binding:"required"`
	LastMessage  *string `json:"lastMessage,omitempty"`
	MessageCount *string `json:"messageCount,omitempty"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
}

// UpdateSettingsRequest 更新设置请求，缺失字段保持原值
type UpdateSettingsRequest struct {
	MemuAPIKey            *string `json:"memuApiKey,omitempty"`
	OpenAIAPIKey          *string `json:"openaiApiKey,omitempty"`
	Temperature           *string `json:"temperature,omitempty"`
	MaxTokens             *string `json:"maxTokens,omitempty"`
	Model                 *string `json:"model,omitempty"`
	AutoMemoryStorage     *string `json:"autoMemoryStorage,omitempty"`
	ContextAwareResponses *string `json:"contextAwareResponses,omitempty"`
	UserIdentifier        *string `json:"userIdentifier,omitempty"`
}

// ToUpdate 转换为仓库层的部分更新结构
func (r *UpdateSettingsRequest) ToUpdate() *UpdateSettings {
	return &UpdateSettings{
		MemuAPIKey:            r.MemuAPIKey,
		OpenAIAPIKey:          r.OpenAIAPIKey,
		Temperature:           r.Temperature,
		MaxTokens:             r.MaxTokens,
		Model:                 r.Model,
		AutoMemoryStorage:     r.AutoMemoryStorage,
		ContextAwareResponses: r.ContextAwareResponses,
		UserIdentifier:        r.UserIdentifier,
	}
}

// TestConnectionsRequest 连通性自检请求
type TestConnectionsRequest struct {
	OpenAIAPIKey string `json:"openaiApiKey,omitempty"`
	MemuAPIKey   string `json:"memuApiKey,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

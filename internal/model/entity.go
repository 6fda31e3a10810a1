package model

import (
	"encoding/json"
	"time"
)

// User 用户实体
// 核心对话流程不依赖用户实体，仅作为账户占位
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Conversation 对话实体
// 每次消息交换都会刷新 LastActivity 并把 MessageCount +2
type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	LastMessage  *string   `json:"lastMessage"`
	LastActivity time.Time `json:"lastActivity"`
	MessageCount *string   `json:"messageCount"` // 十进制数字字符串
}

// MessageRole 消息角色
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message 消息实体，创建后不可变
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	Role           string          `json:"role"` // user | assistant
	Content        string          `json:"content"`
	MemoryContext  json.RawMessage `json:"memoryContext"` // MemU 返回的不透明 JSON，可为 null
	Timestamp      time.Time       `json:"timestamp"`
}

// Settings 用户设置实体
// 数值类字段保持字符串类型，与前端存储格式一致
type Settings struct {
	ID                    string  `json:"id"`
	UserID                string  `json:"userId"`
	MemuAPIKey            *string `json:"memuApiKey"`
	OpenAIAPIKey          *string `json:"openaiApiKey"`
	Temperature           string  `json:"temperature"`
	MaxTokens             string  `json:"maxTokens"`
	Model                 string  `json:"model"`
	AutoMemoryStorage     string  `json:"autoMemoryStorage"`     // "true" / "false"
	ContextAwareResponses string  `json:"contextAwareResponses"` // "true" / "false"
	UserIdentifier        string  `json:"userIdentifier"`        // MemU 侧的用户标识
}

// Settings 默认值
const (
	DefaultTemperature    = "0.7"
	DefaultMaxTokens      = "1024"
	DefaultModel          = "gpt-4o"
	DefaultUserIdentifier = "user001"
)

// UpdateConversation 对话部分更新
// nil 字段表示不修改；LastActivity 由仓库在每次更新时强制刷新
type UpdateConversation struct {
	Title        *string
	LastMessage  *string
	MessageCount *string
}

// UpdateSettings 设置部分更新，nil 字段表示不修改
type UpdateSettings struct {
	MemuAPIKey            *string
	OpenAIAPIKey          *string
	Temperature           *string
	MaxTokens             *string
	Model                 *string
	AutoMemoryStorage     *string
	ContextAwareResponses *string
	UserIdentifier        *string
}

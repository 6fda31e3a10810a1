package model

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ExchangeResponse 一次消息交换的响应，包含两条已持久化的消息
type ExchangeResponse struct {
	UserMessage *Message `json:"userMessage"`
	AIMessage   *Message `json:"aiMessage"`
}

// TestConnectionsResponse 连通性自检响应
type TestConnectionsResponse struct {
	OpenAI bool `json:"openai"`
	Memu   bool `json:"memu"`
}

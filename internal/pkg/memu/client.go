// Package memu MemU 记忆服务 API 客户端
package memu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"memchat/internal/config"
)

// Client MemU API 客户端
// API Key 由调用方按请求传入（来自各用户的 Settings），客户端本身无状态
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建 MemU 客户端
func NewClient(cfg *config.MemoryConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{},
	}
}

// Result 请求结果
// 失败（非 2xx、传输错误、响应非 JSON）统一折叠为 Success=false，
// 两个操作永远不返回 Go error
type Result struct {
	Success bool
	Data    json.RawMessage
	Error   string
}

// MemorizeRequest 写入记忆请求
type MemorizeRequest struct {
	Conversation string `json:"conversation"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	AgentID      string `json:"agent_id"`
	AgentName    string `json:"agent_name"`
}

// RetrieveMemory 检索与 query 相关的用户记忆
func (c *Client) RetrieveMemory(ctx context.Context, apiKey, query, userID string) *Result {
	payload := map[string]string{
		"query":   query,
		"user_id": userID,
	}
	return c.post(ctx, "/retrieve_memory", apiKey, payload)
}

// MemorizeConversation 请求服务端持久化索引一段对话文本
func (c *Client) MemorizeConversation(ctx context.Context, apiKey string, req *MemorizeRequest) *Result {
	return c.post(ctx, "/memorize_conversation", apiKey, req)
}

func (c *Client) post(ctx context.Context, path, apiKey string, payload any) *Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Result{Error: fmt.Sprintf("marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Result{Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Result{Error: fmt.Sprintf("request error: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{Error: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{Error: fmt.Sprintf("MemU API error: %s", resp.Status)}
	}

	if !json.Valid(respBody) {
		return &Result{Error: "invalid JSON response"}
	}

	return &Result{Success: true, Data: respBody}
}

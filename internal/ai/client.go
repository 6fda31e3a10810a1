package ai

import (
	"context"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"memchat/internal/ai/component"
	"memchat/internal/config"
)

// Client 补全能力层客户端
// 职责: 封装 LLM 补全调用与连通性自检
// API Key 按请求传入（来自各用户的 Settings），ChatModel 按请求构建
type Client struct {
	cfg        *config.AIConfig
	httpClient *http.Client
}

// NewClient 创建补全客户端
func NewClient(cfg *config.AIConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// Turn 历史对话轮次
type Turn struct {
	Role    string // user | assistant
	Content string
}

// GenerateRequest 补全请求
type GenerateRequest struct {
	APIKey       string
	Model        string
	SystemPrompt string
	History      []Turn
	Temperature  float64
	MaxTokens    int
}

// Generate 执行一次补全，返回首个生成结果的文本
// 任何错误原样上抛，由调用方决定如何失败
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	chatModel, err := component.NewChatModel(ctx, c.cfg, &component.ModelParams{
		APIKey:      req.APIKey,
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	// 构建消息: system prompt + 历史轮次
	messages := make([]*schema.Message, 0, len(req.History)+1)
	messages = append(messages, schema.SystemMessage(req.SystemPrompt))
	for _, turn := range req.History {
		switch turn.Role {
		case "assistant":
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		log.Debug().
			Str("model", req.Model).
			Int("prompt_tokens", resp.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", resp.ResponseMeta.Usage.CompletionTokens).
			Msg("completion generated")
	}

	return resp.Content, nil
}

// TestConnection 连通性自检: 列出可用模型
// 成功意味着 Key 有效且服务可达
func (c *Client) TestConnection(ctx context.Context, apiKey string) bool {
	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("completion API connection test failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

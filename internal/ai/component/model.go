package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"memchat/internal/config"
)

// ModelParams 单次请求的模型参数
// API Key 和采样参数按用户配置传入，而不是服务级配置
type ModelParams struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewChatModel 创建 ChatModel
// 支持多种 Provider: openai, azure, ark
func NewChatModel(ctx context.Context, cfg *config.AIConfig, params *ModelParams) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAIChatModel(ctx, cfg, params, false)
	case "azure":
		return newOpenAIChatModel(ctx, cfg, params, true)
	case "ark":
		return newArkChatModel(ctx, cfg, params)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// newOpenAIChatModel 创建 OpenAI / Azure OpenAI ChatModel
func newOpenAIChatModel(ctx context.Context, cfg *config.AIConfig, params *ModelParams, byAzure bool) (model.BaseChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:   params.Model,
		APIKey:  params.APIKey,
		ByAzure: byAzure,
	}

	// Base URL (用于代理或兼容 API)
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}

	// 模型参数
	if params.Temperature > 0 {
		temp := float32(params.Temperature)
		modelCfg.Temperature = &temp
	}
	if params.MaxTokens > 0 {
		modelCfg.MaxTokens = &params.MaxTokens
	}

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（使用 eino-ext 模块）
func newArkChatModel(ctx context.Context, cfg *config.AIConfig, params *ModelParams) (model.BaseChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	modelCfg := &arkext.ChatModelConfig{
		Model:   params.Model,
		APIKey:  params.APIKey,
		BaseURL: baseURL,
	}

	if params.Temperature > 0 {
		temp := float32(params.Temperature)
		modelCfg.Temperature = &temp
	}
	if params.MaxTokens > 0 {
		modelCfg.MaxTokens = &params.MaxTokens
	}

	return arkext.NewChatModel(ctx, modelCfg)
}

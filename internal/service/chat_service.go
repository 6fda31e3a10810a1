package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"memchat/internal/ai"
	"memchat/internal/config"
	"memchat/internal/model"
	"memchat/internal/pkg/ctxutil"
	"memchat/internal/pkg/memu"
	"memchat/internal/repository"
)

// ErrAPIKeyMissing 用户未配置补全 API Key
// 由 handler 转换为 400 响应，此时不产生任何数据变更
var ErrAPIKeyMissing = errors.New("completion API key not configured")

// historyLimit 发给模型的历史消息条数上限
const historyLimit = 10

// fallbackReply 模型返回空内容时的兜底回复
const fallbackReply = "I couldn't generate a response."

// systemPersona 固定的助手人设
const systemPersona = "You are MemU, an AI companion with persistent memory. " +
	"You remember previous conversations and provide contextual, personalized responses."

const systemGuidance = "Be helpful, conversational, and reference relevant memories when appropriate. " +
	"If you use memory context, acknowledge it naturally in your response."

// CompletionGenerator 补全生成接口，便于测试时注入桩实现
type CompletionGenerator interface {
	Generate(ctx context.Context, req *ai.GenerateRequest) (string, error)
}

// ChatService 消息编排服务 - 业务逻辑层
// 职责: 串联仓库读写、记忆检索、补全生成与记忆回写
//
// 流程: 读设置 -> 存用户消息 -> (可选)检索记忆 -> 组装 prompt ->
// 调用补全 -> 存助手消息 -> (可选)异步回写记忆 -> 更新对话元数据
type ChatService struct {
	convRepo     *repository.ConversationRepo
	msgRepo      *repository.MessageRepo
	settingsRepo *repository.SettingsRepo
	memuClient   *memu.Client
	completion   CompletionGenerator
	memCfg       *config.MemoryConfig
}

// NewChatService 创建消息编排服务
func NewChatService(
	convRepo *repository.ConversationRepo,
	msgRepo *repository.MessageRepo,
	settingsRepo *repository.SettingsRepo,
	memuClient *memu.Client,
	completion CompletionGenerator,
	memCfg *config.MemoryConfig,
) *ChatService {
	return &ChatService{
		convRepo:     convRepo,
		msgRepo:      msgRepo,
		settingsRepo: settingsRepo,
		memuClient:   memuClient,
		completion:   completion,
		memCfg:       memCfg,
	}
}

// SendMessage 处理一次消息交换
// 补全调用失败时已持久化的用户消息不回滚（保持孤立），其余步骤中
// 记忆服务的失败一律降级为"无上下文"，不影响请求结果
func (s *ChatService) SendMessage(ctx context.Context, conversationID string, req *model.SendMessageRequest) (*model.ExchangeResponse, error) {
	logCtx := log.With().Str("conversation_id", conversationID).Str("user_id", req.UserID)
	if requestID, ok := ctxutil.GetRequestID(ctx); ok {
		logCtx = logCtx.Str("request_id", requestID)
	}
	logger := logCtx.Logger()

	// 1. 读取用户设置，校验补全 Key
	settings, err := s.settingsRepo.FindByUserID(ctx, req.UserID)
	if err != nil || settings.OpenAIAPIKey == nil || *settings.OpenAIAPIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	// 2. 持久化用户消息
	userMsg := s.msgRepo.Create(ctx, &model.Message{
		ConversationID: conversationID,
		Role:           model.MessageRoleUser,
		Content:        req.Content,
	})

	// 3. 检索记忆上下文（可选，失败降级为无上下文）
	var memoryContext json.RawMessage
	if hasMemuKey(settings) && settings.ContextAwareResponses == "true" {
		result := s.memuClient.RetrieveMemory(ctx, *settings.MemuAPIKey, req.Content, s.memuUserID(settings, req.UserID))
		if result.Success {
			memoryContext = result.Data
		} else {
			logger.Warn().Str("error", result.Error).Msg("memory retrieval failed, continuing without context")
		}
	}

	// 4. 加载最近的历史消息（含刚写入的用户消息）
	history := s.loadHistory(ctx, conversationID)

	// 5-7. 组装 prompt 并调用补全
	aiText, err := s.completion.Generate(ctx, &ai.GenerateRequest{
		APIKey:       *settings.OpenAIAPIKey,
		Model:        modelOrDefault(settings.Model),
		SystemPrompt: buildSystemPrompt(memoryContext),
		History:      history,
		Temperature:  parseFloat(settings.Temperature, 0.7),
		MaxTokens:    parseInt(settings.MaxTokens, 1024),
	})
	if err != nil {
		logger.Error().Err(err).Msg("completion failed")
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if aiText == "" {
		aiText = fallbackReply
	}

	// 8. 持久化助手消息（携带本次使用的记忆上下文）
	aiMsg := s.msgRepo.Create(ctx, &model.Message{
		ConversationID: conversationID,
		Role:           model.MessageRoleAssistant,
		Content:        aiText,
		MemoryContext:  memoryContext,
	})

	// 9. 异步回写记忆（fire-and-forget，结果只记日志）
	if hasMemuKey(settings) && settings.AutoMemoryStorage == "true" {
		go s.memorize(*settings.MemuAPIKey, req.Content, aiText, s.memuUserID(settings, req.UserID))
	}

	// 10. 更新对话元数据
	s.touchConversation(ctx, conversationID, req.UserID, req.Content, logger)

	return &model.ExchangeResponse{
		UserMessage: userMsg,
		AIMessage:   aiMsg,
	}, nil
}

// loadHistory 加载最近 historyLimit 条消息并映射为对话轮次
func (s *ChatService) loadHistory(ctx context.Context, conversationID string) []ai.Turn {
	msgs := s.msgRepo.ListByConversationID(ctx, conversationID)
	if len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}

	turns := make([]ai.Turn, 0, len(msgs))
	for _, msg := range msgs {
		turns = append(turns, ai.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

// memorize 把一次交换写入 MemU
// 游离于请求生命周期之外，使用独立 context；失败只记日志
func (s *ChatService) memorize(apiKey, userText, aiText, memuUserID string) {
	transcript := fmt.Sprintf("User: %s\nAssistant: %s", userText, aiText)

	result := s.memuClient.MemorizeConversation(context.Background(), apiKey, &memu.MemorizeRequest{
		Conversation: transcript,
		UserID:       memuUserID,
		UserName:     "User",
		AgentID:      s.memCfg.AgentID,
		AgentName:    s.memCfg.AgentName,
	})
	if !result.Success {
		log.Warn().Str("error", result.Error).Msg("memory storage failed")
	}
}

// touchConversation 更新对话的 lastMessage 和 messageCount
// 计数是 best-effort 的读改写，并发写同一对话时可能偏差
func (s *ChatService) touchConversation(ctx context.Context, conversationID, userID, content string, logger zerolog.Logger) {
	var prev int
	for _, conv := range s.convRepo.ListByUserID(ctx, userID) {
		if conv.ID == conversationID {
			if conv.MessageCount != nil {
				prev = parseInt(*conv.MessageCount, 0)
			}
			break
		}
	}

	count := strconv.Itoa(prev + 2)
	if _, err := s.convRepo.Update(ctx, conversationID, &model.UpdateConversation{
		LastMessage:  &content,
		MessageCount: &count,
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to update conversation metadata")
	}
}

// memuUserID MemU 侧用户标识，优先使用配置的 userIdentifier
func (s *ChatService) memuUserID(settings *model.Settings, userID string) string {
	if settings.UserIdentifier != "" {
		return settings.UserIdentifier
	}
	return userID
}

// buildSystemPrompt 构建 system prompt
// 有记忆上下文时将其 JSON 原样内嵌
func buildSystemPrompt(memoryContext json.RawMessage) string {
	contextLine := ""
	if memoryContext != nil {
		contextLine = "Memory Context: " + string(memoryContext)
	}
	return systemPersona + "\n\n" + contextLine + "\n\n" + systemGuidance
}

func hasMemuKey(settings *model.Settings) bool {
	return settings.MemuAPIKey != nil && *settings.MemuAPIKey != ""
}

func parseFloat(s string, def float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func modelOrDefault(m string) string {
	if m == "" {
		return model.DefaultModel
	}
	return m
}

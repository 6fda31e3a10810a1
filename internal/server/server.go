package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"memchat/internal/ai"
	"memchat/internal/config"
	"memchat/internal/handler"
	"memchat/internal/pkg/memu"
	"memchat/internal/repository"
	"memchat/internal/server/middleware"
	"memchat/internal/service"
)

// Server HTTP 服务器
// 持有全部进程内仓库，仓库在进程启动时构造一次并注入各层
type Server struct {
	cfg    *config.Config
	engine *gin.Engine

	userRepo     *repository.UserRepo
	convRepo     *repository.ConversationRepo
	msgRepo      *repository.MessageRepo
	settingsRepo *repository.SettingsRepo
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	srv := &Server{
		cfg:          cfg,
		engine:       engine,
		userRepo:     repository.NewUserRepo(),
		convRepo:     repository.NewConversationRepo(),
		msgRepo:      repository.NewMessageRepo(),
		settingsRepo: repository.NewSettingsRepo(),
	}

	// 设置路由
	srv.setupRoutes()

	log.Info().
		Str("ai_provider", cfg.AI.Provider).
		Str("memory_base_url", cfg.Memory.BaseURL).
		Msg("initialized in-memory store and API clients")

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 外部服务客户端
	aiClient := ai.NewClient(&s.cfg.AI)
	memuClient := memu.NewClient(&s.cfg.Memory)

	// 业务服务
	chatSvc := service.NewChatService(s.convRepo, s.msgRepo, s.settingsRepo, memuClient, aiClient, &s.cfg.Memory)

	// 处理器
	convHdl := handler.NewConversationHandler(s.convRepo, s.msgRepo)
	msgHdl := handler.NewMessageHandler(s.msgRepo, chatSvc)
	settingsHdl := handler.NewSettingsHandler(s.settingsRepo)
	connHdl := handler.NewConnectionHandler(aiClient, memuClient)

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		// Conversation 接口（:id 为用户 ID 或对话 ID，见各 handler 注释）
		v1.GET("/conversations/:id", convHdl.List)
		v1.POST("/conversations", convHdl.Create)
		v1.DELETE("/conversations/:id", convHdl.Delete)

		// Message 接口
		v1.GET("/conversations/:id/messages", msgHdl.List)
		v1.POST("/conversations/:id/messages", msgHdl.Send)

		// Settings 接口
		v1.GET("/settings/:id", settingsHdl.Get)
		v1.PUT("/settings/:id", settingsHdl.Update)

		// 连通性自检
		v1.POST("/test-connections", connHdl.Test)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		// 存储在进程内存中，随进程一起消亡，无需额外清理
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

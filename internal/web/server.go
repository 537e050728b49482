// Package web 实现门户的Web界面：服务端渲染的落地页和少量状态接口。
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiaokn/HuixiangDou/config"
	"github.com/xiaokn/HuixiangDou/internal/service"
	"github.com/xiaokn/HuixiangDou/internal/tracking"
)

//go:embed static/*
var staticFiles embed.FS

// WebServer represents the portal web server
type WebServer struct {
	server     *http.Server
	engine     *gin.Engine
	logger     *slog.Logger
	svc        service.BeanService
	tracker    *tracking.Tracker
	startTime  time.Time
	configPath string

	// 配置可热更新，读写都走锁
	mu     sync.RWMutex
	config *config.Config
}

// NewWebServer creates a new portal web server
func NewWebServer(cfg *config.Config, svc service.BeanService, tracker *tracking.Tracker, logger *slog.Logger, startTime time.Time, configPath string) *WebServer {
	// 设置gin为release模式以减少日志输出
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// 添加自定义中间件来处理日志
	engine.Use(requestIDMiddleware())
	engine.Use(ginLoggerMiddleware(logger))
	engine.Use(gin.Recovery())

	ws := &WebServer{
		engine:     engine,
		logger:     logger,
		config:     cfg,
		svc:        svc,
		tracker:    tracker,
		startTime:  startTime,
		configPath: configPath,
	}

	ws.setupRoutes()

	return ws
}

// setupRoutes 注册所有路由
func (ws *WebServer) setupRoutes() {
	// 首页与表单动作
	ws.engine.GET("/", ws.handleHome)
	ws.engine.POST("/home/confirm", ws.handleConfirm)
	ws.engine.POST("/home/cancel", ws.handleCancel)

	// 登录成功后的跳转目标
	ws.engine.GET("/bean-detail/", ws.handleBeanDetail)

	// 状态与健康检查
	ws.engine.GET("/api/status", ws.handleStatus)
	ws.engine.GET("/healthz", ws.handleHealthz)

	// 静态资源
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		ws.logger.Error(fmt.Sprintf("❌ 静态资源初始化失败: %v", err))
	} else {
		ws.engine.StaticFS("/static", http.FS(staticFS))
	}
}

// Start 启动Web服务器
func (ws *WebServer) Start() error {
	cfg := ws.currentConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	ws.server = &http.Server{
		Addr:         addr,
		Handler:      ws.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		ws.logger.Info("🌐 门户Web服务器启动", "address", addr)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error(fmt.Sprintf("❌ Web服务器运行错误: %v", err))
		}
	}()

	return nil
}

// Stop 优雅停止Web服务器
func (ws *WebServer) Stop(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	ws.logger.Info("🛑 门户Web服务器停止中...")
	return ws.server.Shutdown(ctx)
}

// UpdateConfig 应用热更新后的配置（语言、后端地址等下次请求生效）
func (ws *WebServer) UpdateConfig(cfg *config.Config) {
	ws.mu.Lock()
	ws.config = cfg
	ws.mu.Unlock()
	ws.logger.Info("🔄 Web服务器配置已更新", "language", cfg.Locale.Language)
}

// UpdateService 替换后端客户端（代理/后端地址变更时由main重建）
func (ws *WebServer) UpdateService(svc service.BeanService) {
	ws.mu.Lock()
	ws.svc = svc
	ws.mu.Unlock()
}

// currentConfig 取当前配置快照
func (ws *WebServer) currentConfig() *config.Config {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.config
}

// currentService 取当前后端客户端
func (ws *WebServer) currentService() service.BeanService {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.svc
}

// Engine 暴露gin引擎（测试用）
func (ws *WebServer) Engine() *gin.Engine {
	return ws.engine
}

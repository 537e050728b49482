package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaokn/HuixiangDou/config"
	"github.com/xiaokn/HuixiangDou/internal/service"
	"github.com/xiaokn/HuixiangDou/internal/tracking"
	"github.com/xiaokn/HuixiangDou/internal/tui"
	"github.com/xiaokn/HuixiangDou/internal/web"
)

var (
	configPath  = flag.String("config", "config/example.yaml", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version information")
	enableTUI   = flag.Bool("tui", false, "Enable TUI interface")
	disableTUI  = flag.Bool("no-tui", false, "Disable TUI interface")
	webPort     = flag.Int("web-port", 0, "Override web server port")

	// Build-time variables (set via ldflags)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	startTime = time.Now()
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("HuixiangDou Portal\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// 初始日志器，配置加载后会按配置重建
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "text"})
	slog.SetDefault(logger)

	configWatcher, err := config.NewConfigWatcher(*configPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create configuration watcher: %v\n", err)
		os.Exit(1)
	}
	defer configWatcher.Close()

	cfg := configWatcher.GetConfig()

	// 命令行覆盖配置文件
	if *webPort != 0 {
		cfg.Server.Port = *webPort
	}
	tuiEnabled := cfg.TUI.Enabled
	if *enableTUI {
		tuiEnabled = true
	}
	if *disableTUI {
		tuiEnabled = false
	}

	logger = setupLogger(cfg.Logging)
	slog.SetDefault(logger)
	configWatcher.UpdateLogger(logger)

	logger.Info("🚀 HuixiangDou门户启动中...",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config_file", *configPath,
		"language", cfg.Locale.Language,
		"backend", cfg.Backend.BaseURL)

	if cfg.Backend.Proxy.Enabled {
		logger.Info("🔗 后端代理已启用",
			"type", cfg.Backend.Proxy.Type,
			"url", cfg.Backend.Proxy.URL)
	}

	// 后端API客户端
	svc, err := service.NewClient(cfg.Backend, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("❌ 后端客户端初始化失败: %v", err))
		os.Exit(1)
	}

	// 访问跟踪器
	tracker, err := tracking.NewTracker(&cfg.Tracking, cfg.Timezone)
	if err != nil {
		logger.Error(fmt.Sprintf("❌ 访问跟踪器初始化失败: %v", err))
		os.Exit(1)
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			logger.Error(fmt.Sprintf("❌ 访问跟踪器关闭失败: %v", err))
		}
	}()

	// Web服务器
	webServer := web.NewWebServer(cfg, svc, tracker, logger, startTime, *configPath)

	// 配置热更新：重建日志器和后端客户端，Web端下次请求生效
	configWatcher.AddReloadCallback(func(newCfg *config.Config) {
		newLogger := setupLogger(newCfg.Logging)
		slog.SetDefault(newLogger)
		configWatcher.UpdateLogger(newLogger)

		newSvc, err := service.NewClient(newCfg.Backend, newLogger)
		if err != nil {
			newLogger.Error(fmt.Sprintf("❌ 后端客户端重建失败，保留旧客户端: %v", err))
		} else {
			webServer.UpdateService(newSvc)
		}

		webServer.UpdateConfig(newCfg)
		newLogger.Info("🔄 所有组件已更新为新配置")
	})
	logger.Info("🔄 配置文件自动重载已启用")

	if err := webServer.Start(); err != nil {
		logger.Error(fmt.Sprintf("❌ Web服务器启动失败: %v", err))
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("✅ 门户启动成功！")
	logger.Info("📡 访问地址: " + baseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if tuiEnabled {
		// TUI模式：事件循环退出即整体退出
		terminal := tui.NewTUI(cfg, svc, logger)

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-interrupt
			logger.Info(fmt.Sprintf("📡 收到终止信号，开始优雅关闭... - 信号: %v", sig))
			cancel()
		}()

		if err := terminal.Run(ctx); err != nil {
			logger.Error(fmt.Sprintf("❌ 终端界面运行错误: %v", err))
		}
		logger.Info("📱 终端界面已关闭")
	} else {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		sig := <-interrupt
		logger.Info(fmt.Sprintf("📡 收到终止信号，开始优雅关闭... - 信号: %v", sig))
	}

	logger.Info("🛑 正在关闭服务器...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Error(fmt.Sprintf("❌ 服务器关闭失败: %v", err))
		os.Exit(1)
	}

	logger.Info("✅ 服务器已安全关闭")
}

// setupLogger configures the structured logger
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

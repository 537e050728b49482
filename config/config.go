package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Locale   LocaleConfig   `yaml:"locale"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracking TrackingConfig `yaml:"tracking"`
	TUI      TUIConfig      `yaml:"tui"`      // TUI configuration
	Timezone string         `yaml:"timezone"` // Global timezone setting for all components
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BackendConfig 后端API配置（loginBean / getStatistic 所在的服务）
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"` // Backend API base URL
	Timeout time.Duration `yaml:"timeout"`  // Per-request timeout
	Proxy   ProxyConfig   `yaml:"proxy"`
}

type ProxyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Type     string `yaml:"type"`     // "http", "https", "socks5"
	URL      string `yaml:"url"`      // Complete proxy URL
	Host     string `yaml:"host"`     // Proxy host
	Port     int    `yaml:"port"`     // Proxy port
	Username string `yaml:"username"` // Optional auth username
	Password string `yaml:"password"` // Optional auth password
}

type LocaleConfig struct {
	Language string `yaml:"language"` // "zh" or "en", default: zh
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// TrackingConfig 访问跟踪配置
type TrackingConfig struct {
	Enabled bool `yaml:"enabled"` // Enable access tracking, default: false

	// 数据库配置（可选，缺省时使用 database_path 指向的SQLite）
	Database *DatabaseBackendConfig `yaml:"database,omitempty"`

	DatabasePath    string        `yaml:"database_path"`    // SQLite database file path, default: data/access.db
	BufferSize      int           `yaml:"buffer_size"`      // Event buffer size, default: 1000
	BatchSize       int           `yaml:"batch_size"`       // Batch write size, default: 100
	FlushInterval   time.Duration `yaml:"flush_interval"`   // Force flush interval, default: 30s
	RetentionDays   int           `yaml:"retention_days"`   // Data retention days (0=permanent), default: 90
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // Cleanup task execution interval, default: 24h
}

// DatabaseBackendConfig 数据库后端配置
type DatabaseBackendConfig struct {
	Type string `yaml:"type"` // "sqlite" | "mysql"

	// SQLite配置
	Path string `yaml:"path,omitempty"` // SQLite文件路径

	// MySQL配置
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// 连接池配置
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time,omitempty"`

	// MySQL特定配置
	Charset  string `yaml:"charset,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
}

type TUIConfig struct {
	Enabled        bool          `yaml:"enabled"`         // Enable TUI interface, default: false
	UpdateInterval time.Duration `yaml:"update_interval"` // Statistics refresh interval, default: 30s
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	config.setDefaults()

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://127.0.0.1:23333"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Locale.Language == "" {
		c.Locale.Language = "zh" // Product default language
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	// Set global timezone default
	if c.Timezone == "" {
		c.Timezone = "Asia/Shanghai" // Default timezone for all components
	}

	// Set tracking defaults
	if c.Tracking.DatabasePath == "" {
		c.Tracking.DatabasePath = "data/access.db" // Default database path
	}
	if c.Tracking.BufferSize == 0 {
		c.Tracking.BufferSize = 1000 // Default buffer size
	}
	if c.Tracking.BatchSize == 0 {
		c.Tracking.BatchSize = 100 // Default batch size
	}
	if c.Tracking.FlushInterval == 0 {
		c.Tracking.FlushInterval = 30 * time.Second // Default flush interval
	}
	if c.Tracking.RetentionDays == 0 {
		c.Tracking.RetentionDays = 90 // Default retention 90 days
	}
	if c.Tracking.CleanupInterval == 0 {
		c.Tracking.CleanupInterval = 24 * time.Hour // Default cleanup interval
	}
	// Tracking.Enabled defaults to false (zero value)

	// Set TUI defaults
	if c.TUI.UpdateInterval == 0 {
		c.TUI.UpdateInterval = 30 * time.Second // Default statistics refresh interval
	}
	// TUI enabled defaults to false (zero value); web interface is the primary surface
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in range 1-65535, got %d", c.Server.Port)
	}

	if _, err := url.Parse(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend base_url is not a valid URL: %w", err)
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend base_url must start with http:// or https://, got %s", c.Backend.BaseURL)
	}

	switch c.Locale.Language {
	case "zh", "en":
	default:
		return fmt.Errorf("locale language must be \"zh\" or \"en\", got %s", c.Locale.Language)
	}

	if c.Backend.Proxy.Enabled {
		switch c.Backend.Proxy.Type {
		case "http", "https", "socks5":
		case "":
			return fmt.Errorf("proxy type is required when proxy is enabled")
		default:
			return fmt.Errorf("unsupported proxy type: %s", c.Backend.Proxy.Type)
		}
		if c.Backend.Proxy.URL == "" && c.Backend.Proxy.Host == "" {
			return fmt.Errorf("proxy url or host is required when proxy is enabled")
		}
	}

	if c.Tracking.Enabled && c.Tracking.Database != nil {
		switch c.Tracking.Database.Type {
		case "", "sqlite", "mysql":
		default:
			return fmt.Errorf("unsupported tracking database type: %s", c.Tracking.Database.Type)
		}
	}

	return nil
}

// ConfigWatcher handles automatic configuration reloading
type ConfigWatcher struct {
	configPath    string
	config        *Config
	mutex         sync.RWMutex
	watcher       *fsnotify.Watcher
	logger        *slog.Logger
	callbacks     []func(*Config)
	lastModTime   time.Time
	debounceTimer *time.Timer
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, logger *slog.Logger) (*ConfigWatcher, error) {
	// Load initial configuration
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	// Get initial modification time
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	// Create file watcher
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	cw := &ConfigWatcher{
		configPath:  configPath,
		config:      config,
		watcher:     watcher,
		logger:      logger,
		callbacks:   make([]func(*Config), 0),
		lastModTime: fileInfo.ModTime(),
	}

	// Add config file to watcher
	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	// Start watching in background
	go cw.watchLoop()

	return cw, nil
}

// GetConfig returns the current configuration (thread-safe)
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()
	return cw.config
}

// UpdateLogger updates the logger used by the config watcher
func (cw *ConfigWatcher) UpdateLogger(logger *slog.Logger) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.logger = logger
}

// AddReloadCallback adds a callback function that will be called when config is reloaded
func (cw *ConfigWatcher) AddReloadCallback(callback func(*Config)) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// watchLoop monitors the config file for changes
func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			// Handle file write events
			if event.Has(fsnotify.Write) {
				// Check if file was actually modified by comparing modification time
				fileInfo, err := os.Stat(cw.configPath)
				if err != nil {
					cw.logger.Warn(fmt.Sprintf("⚠️ 无法获取配置文件信息: %v", err))
					continue
				}

				// Skip if modification time hasn't changed
				if !fileInfo.ModTime().After(cw.lastModTime) {
					continue
				}

				cw.lastModTime = fileInfo.ModTime()

				// Cancel any existing debounce timer
				if cw.debounceTimer != nil {
					cw.debounceTimer.Stop()
				}

				// Set up debounce timer to avoid multiple rapid reloads
				cw.debounceTimer = time.AfterFunc(500*time.Millisecond, func() {
					cw.logger.Info(fmt.Sprintf("🔄 检测到配置文件变更，正在重新加载... - 文件: %s", event.Name))
					if err := cw.reloadConfig(); err != nil {
						cw.logger.Error(fmt.Sprintf("❌ 配置文件重新加载失败: %v", err))
					} else {
						cw.logger.Info("✅ 配置文件重新加载成功")
					}
				})
			}

			// Handle file rename/remove events (some editors rename files during save)
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// Re-add the file to watcher in case it was recreated
				time.Sleep(100 * time.Millisecond) // Give time for the file to be recreated
				if _, err := os.Stat(cw.configPath); err == nil {
					cw.watcher.Add(cw.configPath)
					cw.logger.Info(fmt.Sprintf("🔄 重新监听配置文件: %s", cw.configPath))
				}
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error(fmt.Sprintf("⚠️ 配置文件监听错误: %v", err))
		}
	}
}

// reloadConfig reloads the configuration from file
func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := LoadConfig(cw.configPath)
	if err != nil {
		return err
	}

	cw.mutex.Lock()
	oldConfig := cw.config
	cw.config = newConfig
	callbacks := make([]func(*Config), len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mutex.Unlock()

	// Call all registered callbacks
	for _, callback := range callbacks {
		callback(newConfig)
	}

	// Log configuration changes
	cw.logConfigChanges(oldConfig, newConfig)

	return nil
}

// logConfigChanges logs the key differences between old and new configurations
func (cw *ConfigWatcher) logConfigChanges(oldConfig, newConfig *Config) {
	if oldConfig.Server.Port != newConfig.Server.Port {
		cw.logger.Info("🌐 服务器端口变更",
			"old_port", oldConfig.Server.Port,
			"new_port", newConfig.Server.Port)
	}

	if oldConfig.Backend.BaseURL != newConfig.Backend.BaseURL {
		cw.logger.Info("📡 后端地址变更",
			"old_base_url", oldConfig.Backend.BaseURL,
			"new_base_url", newConfig.Backend.BaseURL)
	}

	if oldConfig.Locale.Language != newConfig.Locale.Language {
		cw.logger.Info("🌍 界面语言变更",
			"old_language", oldConfig.Locale.Language,
			"new_language", newConfig.Locale.Language)
	}

	if oldConfig.Tracking.Enabled != newConfig.Tracking.Enabled {
		cw.logger.Info("📊 访问跟踪状态变更",
			"old_enabled", oldConfig.Tracking.Enabled,
			"new_enabled", newConfig.Tracking.Enabled)
	}

	if oldConfig.Tracking.RetentionDays != newConfig.Tracking.RetentionDays {
		cw.logger.Info("📊 访问跟踪数据保留天数变更",
			"old_retention", oldConfig.Tracking.RetentionDays,
			"new_retention", newConfig.Tracking.RetentionDays)
	}

	if oldConfig.Timezone != newConfig.Timezone {
		cw.logger.Info("🌍 全局时区配置变更",
			"old_timezone", oldConfig.Timezone,
			"new_timezone", newConfig.Timezone)
	}
}

// Close stops the configuration watcher
func (cw *ConfigWatcher) Close() error {
	// Cancel any pending debounce timer
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	return cw.watcher.Close()
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, path string) error {
	// Marshal config to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xiaokn/HuixiangDou/config"
)

// DatabaseAdapter 定义访问记录存储的数据库接口。
// 抽象SQLite和MySQL的差异，让跟踪器无需关心具体实现。
type DatabaseAdapter interface {
	// 基础连接管理
	Open() error
	Close() error
	Ping(ctx context.Context) error

	// 获取数据库连接
	GetDB() *sql.DB

	// 数据库初始化
	InitSchema() error

	// 类型标识
	GetDatabaseType() string
}

// DatabaseConfig 统一数据库配置结构
type DatabaseConfig struct {
	// 数据库类型
	Type string // "sqlite" | "mysql"

	// SQLite配置
	DatabasePath string

	// MySQL配置
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// 连接池配置
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// MySQL特定配置
	Charset  string
	Timezone string
}

// NewDatabaseAdapter 数据库适配器工厂函数
func NewDatabaseAdapter(config DatabaseConfig) (DatabaseAdapter, error) {
	switch getDatabaseType(config) {
	case "sqlite":
		return NewSQLiteAdapter(config)
	case "mysql":
		return NewMySQLAdapter(config)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// getDatabaseType 从配置推断数据库类型
func getDatabaseType(config DatabaseConfig) string {
	// 1. 优先使用明确配置的类型
	if config.Type != "" {
		return config.Type
	}

	// 2. 根据配置内容推断类型
	if config.Host != "" || config.Database != "" {
		return "mysql"
	}

	// 3. 默认为SQLite
	return "sqlite"
}

// setDefaultConfig 设置数据库配置默认值
func setDefaultConfig(config *DatabaseConfig) {
	switch getDatabaseType(*config) {
	case "mysql":
		if config.Port == 0 {
			config.Port = 3306
		}
		if config.MaxOpenConns == 0 {
			config.MaxOpenConns = 10
		}
		if config.MaxIdleConns == 0 {
			config.MaxIdleConns = 5
		}
		if config.ConnMaxLifetime == 0 {
			config.ConnMaxLifetime = time.Hour
		}
		if config.ConnMaxIdleTime == 0 {
			config.ConnMaxIdleTime = 10 * time.Minute
		}
		if config.Charset == "" {
			config.Charset = "utf8mb4"
		}
	default:
		if config.DatabasePath == "" {
			config.DatabasePath = "data/access.db"
		}
	}
}

// buildDatabaseConfig 从跟踪配置构建数据库配置
func buildDatabaseConfig(cfg *config.TrackingConfig, globalTimezone string) DatabaseConfig {
	var dbConfig DatabaseConfig

	if cfg.Database != nil {
		dbConfig.Type = cfg.Database.Type
		dbConfig.DatabasePath = cfg.Database.Path
		dbConfig.Host = cfg.Database.Host
		dbConfig.Port = cfg.Database.Port
		dbConfig.Database = cfg.Database.Database
		dbConfig.Username = cfg.Database.Username
		dbConfig.Password = cfg.Database.Password
		dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
		dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
		dbConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
		dbConfig.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime
		dbConfig.Charset = cfg.Database.Charset
		dbConfig.Timezone = cfg.Database.Timezone
	} else {
		// 缺省走SQLite单文件存储
		dbConfig.Type = "sqlite"
		dbConfig.DatabasePath = cfg.DatabasePath
	}

	if dbConfig.Timezone == "" {
		dbConfig.Timezone = globalTimezone
	}

	return dbConfig
}

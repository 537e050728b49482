package tracking

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/go-sql-driver/mysql"
)

//go:embed mysql_schema.sql
var mysqlSchemaFS embed.FS

// MySQLAdapter MySQL数据库适配器实现
type MySQLAdapter struct {
	config DatabaseConfig
	db     *sql.DB
	logger *slog.Logger
}

// NewMySQLAdapter 创建MySQL适配器实例
func NewMySQLAdapter(config DatabaseConfig) (*MySQLAdapter, error) {
	// 设置默认配置
	setDefaultConfig(&config)

	if config.Host == "" {
		return nil, fmt.Errorf("mysql host is required")
	}
	if config.Database == "" {
		return nil, fmt.Errorf("mysql database name is required")
	}

	return &MySQLAdapter{
		config: config,
		logger: slog.Default(),
	}, nil
}

// Open 建立MySQL数据库连接
func (m *MySQLAdapter) Open() error {
	dsn := m.buildDSN()

	m.logger.Info("正在连接MySQL数据库",
		"host", m.config.Host,
		"database", m.config.Database,
		"charset", m.config.Charset)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(m.config.MaxOpenConns)
	db.SetMaxIdleConns(m.config.MaxIdleConns)
	db.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping mysql database: %w", err)
	}

	m.db = db
	return nil
}

// buildDSN 构建MySQL连接字符串
func (m *MySQLAdapter) buildDSN() string {
	// user:pass@tcp(host:port)/db?charset=...&parseTime=true&loc=...
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true",
		m.config.Username,
		m.config.Password,
		m.config.Host,
		m.config.Port,
		m.config.Database,
		m.config.Charset)

	if m.config.Timezone != "" {
		dsn += "&loc=" + url.QueryEscape(m.config.Timezone)
	}
	return dsn
}

// Close 关闭数据库连接
func (m *MySQLAdapter) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Ping 检查数据库连通性
func (m *MySQLAdapter) Ping(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("mysql database is not open")
	}
	return m.db.PingContext(ctx)
}

// GetDB 返回数据库连接
func (m *MySQLAdapter) GetDB() *sql.DB {
	return m.db
}

// InitSchema 初始化数据库表结构
func (m *MySQLAdapter) InitSchema() error {
	schema, err := mysqlSchemaFS.ReadFile("mysql_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	if _, err := m.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to initialize mysql schema: %w", err)
	}
	return nil
}

// GetDatabaseType 返回数据库类型标识
func (m *MySQLAdapter) GetDatabaseType() string {
	return "mysql"
}

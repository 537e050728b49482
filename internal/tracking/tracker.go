// Package tracking 记录门户的访问事件（页面浏览、登录尝试）。
// 事件经有界缓冲异步落库，默认SQLite单文件，亦可配置MySQL；
// 缓冲写满时丢弃新事件并告警，绝不阻塞请求路径。
package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xiaokn/HuixiangDou/config"
)

// EventType 访问事件类型
type EventType string

const (
	EventPageView     EventType = "page_view"
	EventLoginAttempt EventType = "login_attempt"
)

// 登录尝试的结果分类
const (
	OutcomeTooShort    = "too_short"    // 名称过短，被前置校验拦下
	OutcomeLoginFailed = "login_failed" // 后端返回业务失败
	OutcomeNavigated   = "navigated"    // 登录成功并跳转
	OutcomeSilent      = "silent"       // 静默无动作分支
)

// AccessEvent 一条访问记录。
// 只记名称长度不记名称本身，避免把用户的知识库名落到磁盘。
type AccessEvent struct {
	Type       EventType
	RequestID  string
	ClientIP   string
	UserAgent  string
	Path       string
	NameLength int
	Outcome    string
	Timestamp  time.Time
}

// Summary 访问统计汇总，供状态接口展示
type Summary struct {
	PageViews     int64 `json:"page_views"`
	LoginAttempts int64 `json:"login_attempts"`
	Navigated     int64 `json:"navigated"`
}

// Tracker 访问跟踪器
type Tracker struct {
	config    *config.TrackingConfig
	adapter   DatabaseAdapter
	db        *sql.DB
	eventChan chan AccessEvent
	location  *time.Location
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	droppedMu sync.Mutex
	dropped   int64
}

// NewTracker 创建访问跟踪器。
// 配置未启用时返回空跟踪器，所有记录方法都是无操作。
func NewTracker(cfg *config.TrackingConfig, globalTimezone string) (*Tracker, error) {
	if cfg == nil || !cfg.Enabled {
		return &Tracker{config: cfg}, nil
	}

	// 设置默认值
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 24 * time.Hour
	}

	dbConfig := buildDatabaseConfig(cfg, globalTimezone)

	adapter, err := NewDatabaseAdapter(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}

	if err := adapter.Open(); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := adapter.InitSchema(); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 初始化时区
	timezone := dbConfig.Timezone
	if timezone == "" {
		timezone = "Asia/Shanghai" // 默认时区
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("加载时区失败，使用Asia/Shanghai", "timezone", timezone, "error", err)
		location, _ = time.LoadLocation("Asia/Shanghai")
		if location == nil {
			location = time.FixedZone("CST", 8*3600) // 后备方案：固定+8时区
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	t := &Tracker{
		config:    cfg,
		adapter:   adapter,
		db:        adapter.GetDB(),
		eventChan: make(chan AccessEvent, cfg.BufferSize),
		location:  location,
		logger:    slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
	}

	// 启动异步事件处理器
	t.wg.Add(1)
	go t.processEvents()

	// 启动定期清理任务
	t.wg.Add(1)
	go t.periodicCleanup()

	slog.Info("✅ 访问跟踪器初始化完成",
		"database_type", adapter.GetDatabaseType(),
		"buffer_size", cfg.BufferSize,
		"batch_size", cfg.BatchSize)

	return t, nil
}

// Enabled 跟踪器是否处于工作状态
func (t *Tracker) Enabled() bool {
	return t != nil && t.adapter != nil
}

// now 返回当前配置时区的时间
func (t *Tracker) now() time.Time {
	if t.location == nil {
		return time.Now() // 后备方案
	}
	return time.Now().In(t.location)
}

// RecordPageView 记录一次页面浏览
func (t *Tracker) RecordPageView(requestID, clientIP, userAgent, path string) {
	if !t.Enabled() {
		return
	}
	t.record(AccessEvent{
		Type:      EventPageView,
		RequestID: requestID,
		ClientIP:  clientIP,
		UserAgent: truncate(userAgent, 255),
		Path:      path,
		Timestamp: t.now(),
	})
}

// RecordLoginAttempt 记录一次登录尝试及其结果
func (t *Tracker) RecordLoginAttempt(requestID, clientIP, userAgent string, nameLength int, outcome string) {
	if !t.Enabled() {
		return
	}
	t.record(AccessEvent{
		Type:       EventLoginAttempt,
		RequestID:  requestID,
		ClientIP:   clientIP,
		UserAgent:  truncate(userAgent, 255),
		Path:       "/home/confirm",
		NameLength: nameLength,
		Outcome:    outcome,
		Timestamp:  t.now(),
	})
}

// record 非阻塞投递事件，缓冲满时丢弃并告警
func (t *Tracker) record(event AccessEvent) {
	select {
	case t.eventChan <- event:
	default:
		t.droppedMu.Lock()
		t.dropped++
		dropped := t.dropped
		t.droppedMu.Unlock()
		t.logger.Warn("⚠️ 访问事件缓冲已满，事件被丢弃",
			"event_type", event.Type,
			"dropped_total", dropped)
	}
}

// processEvents 异步批量落库
func (t *Tracker) processEvents() {
	defer t.wg.Done()

	batch := make([]AccessEvent, 0, t.config.BatchSize)
	ticker := time.NewTicker(t.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := t.writeBatch(batch); err != nil {
			t.logger.Error(fmt.Sprintf("❌ 访问事件批量写入失败: %v", err),
				"batch_size", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event := <-t.eventChan:
			batch = append(batch, event)
			if len(batch) >= t.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-t.ctx.Done():
			// 退出前清空通道并落库
			for {
				select {
				case event := <-t.eventChan:
					batch = append(batch, event)
				default:
					flush()
					return
				}
			}
		}
	}
}

// writeBatch 单事务多行插入
func (t *Tracker) writeBatch(batch []AccessEvent) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO access_events (event_type, request_id, client_ip, user_agent, path, name_length, outcome, created_at) VALUES ")

	args := make([]interface{}, 0, len(batch)*8)
	for i, event := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			string(event.Type),
			event.RequestID,
			event.ClientIP,
			event.UserAgent,
			event.Path,
			event.NameLength,
			event.Outcome,
			event.Timestamp)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert events: %w", err)
	}

	return tx.Commit()
}

// periodicCleanup 按保留天数定期清理历史记录
func (t *Tracker) periodicCleanup() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if t.config.RetentionDays <= 0 {
				continue // 永久保留
			}
			cutoff := t.now().AddDate(0, 0, -t.config.RetentionDays)

			ctx, cancel := context.WithTimeout(t.ctx, time.Minute)
			result, err := t.db.ExecContext(ctx,
				"DELETE FROM access_events WHERE created_at < ?", cutoff)
			cancel()

			if err != nil {
				t.logger.Error(fmt.Sprintf("❌ 访问记录清理失败: %v", err))
				continue
			}
			if rows, err := result.RowsAffected(); err == nil && rows > 0 {
				t.logger.Info("🧹 过期访问记录已清理",
					"deleted", rows,
					"retention_days", t.config.RetentionDays)
			}

		case <-t.ctx.Done():
			return
		}
	}
}

// GetSummary 查询访问统计汇总
func (t *Tracker) GetSummary(ctx context.Context) (*Summary, error) {
	if !t.Enabled() {
		return &Summary{}, nil
	}

	var summary Summary
	row := t.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN event_type = ? THEN 1 END),
			COUNT(CASE WHEN event_type = ? THEN 1 END),
			COUNT(CASE WHEN outcome = ? THEN 1 END)
		FROM access_events`,
		string(EventPageView), string(EventLoginAttempt), OutcomeNavigated)

	if err := row.Scan(&summary.PageViews, &summary.LoginAttempts, &summary.Navigated); err != nil {
		return nil, fmt.Errorf("failed to query access summary: %w", err)
	}
	return &summary, nil
}

// Flush 立即落库当前缓冲（测试用）
func (t *Tracker) Flush() {
	if !t.Enabled() {
		return
	}

	batch := make([]AccessEvent, 0, len(t.eventChan))
	for {
		select {
		case event := <-t.eventChan:
			batch = append(batch, event)
		default:
			if len(batch) > 0 {
				if err := t.writeBatch(batch); err != nil {
					t.logger.Error(fmt.Sprintf("❌ 访问事件刷写失败: %v", err))
				}
			}
			return
		}
	}
}

// HealthCheck 检查存储连通性
func (t *Tracker) HealthCheck(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.adapter.Ping(ctx)
}

// Close 优雅关闭：停止协程、落库残余事件、关闭连接
func (t *Tracker) Close() error {
	if !t.Enabled() {
		return nil
	}

	t.cancel()
	t.wg.Wait()

	return t.adapter.Close()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

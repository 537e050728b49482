package web

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/xiaokn/HuixiangDou/internal/home"
	"github.com/xiaokn/HuixiangDou/internal/locale"
	"github.com/xiaokn/HuixiangDou/internal/tracking"
)

// handleHome 渲染落地页。
// 每个请求构造一个视图模型并完成一次挂载（统计拉取），
// 迟到的响应由视图的存活标记兜底，不会写入已卸载的视图。
func (ws *WebServer) handleHome(c *gin.Context) {
	cfg := ws.currentConfig()
	lookup := locale.Table(cfg.Locale.Language, "home")

	view := home.NewView(home.Deps{
		Service: ws.currentService(),
		Locale:  lookup,
		// GET渲染路径上没有跳转和提示，给空实现
		Navigate: func(string) {},
		Toast:    func(home.ToastLevel, string) {},
		Logger:   ws.logger,
	})
	view.Mount(c.Request.Context())
	defer view.Unmount()

	ws.tracker.RecordPageView(requestID(c), c.ClientIP(), c.Request.UserAgent(), "/")

	beanName := c.Query("name")
	view.SetBeanName(beanName)

	data := homePageData{
		Lang:            cfg.Locale.Language,
		Slogan:          lookup("slogan"),
		SubSlogan:       lookup("subSlogan"),
		NameLabel:       lookup("beanName"),
		NamePlaceholder: lookup("beanNamePlaceholder"),
		PwdLabel:        lookup("beanPwd"),
		PwdPlaceholder:  lookup("beanPwdPlaceholder"),
		ConfirmLabel:    view.ConfirmLabel(),
		CancelLabel:     lookup("cancel"),
		StatisticTitle:  lookup("statisticTitle"),
		BeanName:        beanName,
		ConfirmDisabled: view.ConfirmDisabled(),
		Rows:            view.StatRows(),
		Toast:           c.Query("toast"),
		ToastLevel:      c.Query("toastLevel"),
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := homeTemplate.Execute(c.Writer, data); err != nil {
		ws.logger.Error(fmt.Sprintf("❌ 首页渲染失败: %v", err))
	}
}

// handleConfirm 承接首页表单的确认动作。
// 视图的提示和跳转副作用在这里物化为一次302：
// 提示 → 带flash参数回首页；跳转 → 去详情页；静默 → 原样回首页。
func (ws *WebServer) handleConfirm(c *gin.Context) {
	cfg := ws.currentConfig()
	lookup := locale.Table(cfg.Locale.Language, "home")

	beanName := c.PostForm("beanName")
	beanPwd := c.PostForm("beanPwd")

	var (
		redirect string
		outcome  = tracking.OutcomeSilent
	)

	view := home.NewView(home.Deps{
		Service: ws.currentService(),
		Locale:  lookup,
		Navigate: func(path string) {
			redirect = path
			outcome = tracking.OutcomeNavigated
		},
		Toast: func(level home.ToastLevel, msg string) {
			query := url.Values{}
			query.Set("toast", msg)
			query.Set("toastLevel", string(level))
			if beanName != "" {
				// 名称留在输入框里，密码不回传
				query.Set("name", beanName)
			}
			redirect = "/?" + query.Encode()

			if level == home.ToastInfo {
				outcome = tracking.OutcomeTooShort
			} else {
				outcome = tracking.OutcomeLoginFailed
			}
		},
		Logger: ws.logger,
	})
	defer view.Unmount()

	view.SetBeanName(beanName)
	view.SetBeanPwd(beanPwd)
	view.Confirm(c.Request.Context())

	ws.tracker.RecordLoginAttempt(requestID(c), c.ClientIP(), c.Request.UserAgent(),
		utf8.RuneCountInString(beanName), outcome)

	if redirect == "" {
		// 静默分支：不提示不跳转，回到首页并保留名称
		redirect = "/"
		if beanName != "" {
			redirect = "/?name=" + url.QueryEscape(beanName)
		}
	}

	c.Redirect(http.StatusFound, redirect)
}

// handleCancel 取消动作：清空两个输入框。
// 服务端无会话状态，重定向到无参首页即是清空后的表单。
func (ws *WebServer) handleCancel(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}

// handleBeanDetail 登录成功后的详情页。
// 完整的知识库管理界面属于另一个产品模块，这里只渲染入口骨架。
func (ws *WebServer) handleBeanDetail(c *gin.Context) {
	cfg := ws.currentConfig()
	lookup := locale.Table(cfg.Locale.Language, "home")

	bean := c.Query("bean")
	if bean == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	data := beanDetailData{
		Lang:  cfg.Locale.Language,
		Title: lookup("beanDetailTitle"),
		Bean:  bean,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := beanDetailTemplate.Execute(c.Writer, data); err != nil {
		ws.logger.Error(fmt.Sprintf("❌ 详情页渲染失败: %v", err))
	}
}

// handleStatus 服务状态接口
func (ws *WebServer) handleStatus(c *gin.Context) {
	cfg := ws.currentConfig()
	uptime := time.Since(ws.startTime)

	status := gin.H{
		"status":      "running",
		"uptime":      formatUptime(uptime),
		"start_time":  ws.startTime.Format("2006-01-02 15:04:05"),
		"config_file": ws.configPath,
		"language":    cfg.Locale.Language,
		"backend":     cfg.Backend.BaseURL,
	}

	if ws.tracker.Enabled() {
		if summary, err := ws.tracker.GetSummary(c.Request.Context()); err == nil {
			status["access"] = summary
		} else {
			ws.logger.Warn(fmt.Sprintf("⚠️ 访问统计查询失败: %v", err))
		}
	}

	c.JSON(http.StatusOK, status)
}

// handleHealthz 健康检查：进程存活 + 访问存储连通
func (ws *WebServer) handleHealthz(c *gin.Context) {
	if err := ws.tracker.HealthCheck(c.Request.Context()); err != nil {
		c.String(http.StatusServiceUnavailable, "tracking storage unhealthy: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

// Package tui 提供门户的终端界面：和Web首页同一套视图模型，
// 适合在没有浏览器的服务器上直接创建/访问知识库。
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/xiaokn/HuixiangDou/config"
	"github.com/xiaokn/HuixiangDou/internal/home"
	"github.com/xiaokn/HuixiangDou/internal/locale"
	"github.com/xiaokn/HuixiangDou/internal/service"
)

const (
	pageHome   = "home"
	pageDetail = "detail"
	pageToast  = "toast"
)

// TUI 终端界面
type TUI struct {
	app    *tview.Application
	pages  *tview.Pages
	view   *home.View
	lookup locale.Lookup
	logger *slog.Logger

	form       *tview.Form
	statsTable *tview.Table
	detailText *tview.TextView
}

// NewTUI 创建终端界面，视图模型与Web端共用
func NewTUI(cfg *config.Config, svc service.BeanService, logger *slog.Logger) *TUI {
	t := &TUI{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		lookup: locale.Table(cfg.Locale.Language, "home"),
		logger: logger,
	}

	t.view = home.NewView(home.Deps{
		Service:  svc,
		Locale:   t.lookup,
		Navigate: t.navigate,
		Toast:    t.showToast,
		Logger:   logger,
	})

	t.buildHomePage()
	t.buildDetailPage()
	t.app.SetRoot(t.pages, true)

	return t
}

// Run 挂载视图并进入事件循环，ctx取消时退出
func (t *TUI) Run(ctx context.Context) error {
	// 统计到达后刷新面板
	unsubscribe := t.view.OnStatisticChange(func() {
		t.app.QueueUpdateDraw(t.refreshStats)
	})
	defer unsubscribe()
	defer t.view.Unmount()

	go t.view.Mount(ctx)

	go func() {
		<-ctx.Done()
		t.app.Stop()
	}()

	t.logger.Info("🖥️ 终端界面启动")
	return t.app.Run()
}

// Stop 停止事件循环
func (t *TUI) Stop() {
	t.app.Stop()
}

// buildHomePage 搭建首页：表单 + 统计面板
func (t *TUI) buildHomePage() {
	t.form = tview.NewForm().
		AddInputField(t.lookup("beanName"), "", 32, nil, func(text string) {
			t.view.SetBeanName(text)
		}).
		AddPasswordField(t.lookup("beanPwd"), "", 32, '*', func(text string) {
			t.view.SetBeanPwd(text)
		}).
		AddButton(t.lookup("create"), t.confirm).
		AddButton(t.lookup("cancel"), t.cancel)
	t.form.SetBorder(true).SetTitle(" " + t.lookup("slogan") + " ")

	t.statsTable = tview.NewTable()
	t.statsTable.SetBorder(true).SetTitle(" " + t.lookup("statisticTitle") + " ")
	t.refreshStats()

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.form, 0, 2, true).
		AddItem(t.statsTable, 0, 1, false)

	t.pages.AddPage(pageHome, layout, true, true)
}

// buildDetailPage 登录成功后的详情页骨架
func (t *TUI) buildDetailPage() {
	t.detailText = tview.NewTextView()
	t.detailText.SetBorder(true).SetTitle(" " + t.lookup("beanDetailTitle") + " ")
	t.detailText.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			t.pages.SwitchToPage(pageHome)
			return nil
		}
		return event
	})

	t.pages.AddPage(pageDetail, t.detailText, true, false)
}

// confirm 表单确认：视图逻辑含网络调用，放到goroutine避免卡住事件循环
func (t *TUI) confirm() {
	go t.view.Confirm(context.Background())
}

// cancel 清空两个输入框
func (t *TUI) cancel() {
	t.view.Cancel()
	t.form.GetFormItem(0).(*tview.InputField).SetText("")
	t.form.GetFormItem(1).(*tview.InputField).SetText("")
}

// navigate 视图跳转副作用：这里只有详情页一个目的地
func (t *TUI) navigate(path string) {
	bean := path
	if u, err := url.Parse(path); err == nil {
		if v := u.Query().Get("bean"); v != "" {
			bean = v
		}
	}
	t.app.QueueUpdateDraw(func() {
		t.detailText.SetText(fmt.Sprintf("\n  feature store: %s\n\n  [Esc] 返回首页", bean))
		t.pages.SwitchToPage(pageDetail)
	})
}

// showToast 视图提示副作用：模态框展示，回车关闭
func (t *TUI) showToast(level home.ToastLevel, msg string) {
	t.app.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(msg).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(int, string) {
				t.pages.RemovePage(pageToast)
			})
		if level == home.ToastError {
			modal.SetBackgroundColor(tcell.ColorDarkRed)
		}
		t.pages.AddPage(pageToast, modal, true, true)
	})
}

// refreshStats 按固定顺序重绘统计表格
func (t *TUI) refreshStats() {
	t.statsTable.Clear()
	for i, row := range t.view.StatRows() {
		t.statsTable.SetCell(i, 0, tview.NewTableCell(row.Title).SetExpansion(1))
		t.statsTable.SetCell(i, 1, tview.NewTableCell(fmt.Sprintf("%d", row.Number)).
			SetAlign(tview.AlignRight).SetTextColor(tcell.ColorAqua))
	}
}

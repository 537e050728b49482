// Package home 实现门户首页的视图模型。
// 视图持有四个独立的状态单元（知识库名称、密码、existed标记、统计快照），
// 不关心最终渲染到HTML还是终端：Web和TUI两个界面共用这一份行为。
package home

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/xiaokn/HuixiangDou/internal/locale"
	"github.com/xiaokn/HuixiangDou/internal/service"
)

// ToastLevel 提示消息级别
type ToastLevel string

const (
	ToastInfo  ToastLevel = "info"
	ToastError ToastLevel = "error"
)

// BeanDetailPath 登录成功后跳转的详情页路径
func BeanDetailPath(featureStoreID string) string {
	return fmt.Sprintf("/bean-detail/?bean=%s", featureStoreID)
}

// Deps 视图的外部协作者，全部通过构造注入
type Deps struct {
	Service  service.BeanService
	Locale   locale.Lookup
	Navigate func(path string)             // 客户端路由跳转
	Toast    func(level ToastLevel, msg string) // 瞬时提示消息
	Logger   *slog.Logger
}

// View 首页视图模型
type View struct {
	deps Deps

	beanName  *Signal[string]
	beanPwd   *Signal[string]
	existed   *Signal[bool]
	statistic *Signal[*service.Statistic]

	// 存活标记：Unmount后迟到的统计响应不得再写状态
	alive atomic.Bool

	// 统计行的惰性缓存，仅是优化，不承载正确性
	rowsMu       sync.Mutex
	rowsSnapshot *service.Statistic
	rowsCache    []StatRow
}

// NewView 创建首页视图
func NewView(deps Deps) *View {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	v := &View{
		deps:      deps,
		beanName:  NewSignal(""),
		beanPwd:   NewSignal(""),
		existed:   NewSignal(false),
		statistic: NewSignal[*service.Statistic](nil),
	}
	v.alive.Store(true)
	return v
}

// Mount 执行一次性的挂载副作用：拉取使用统计。
// 失败或空响应都保持快照为nil，统计面板渲染为空；不重试，不展示加载态。
func (v *View) Mount(ctx context.Context) {
	statistic, err := v.deps.Service.GetStatistic(ctx)
	if err != nil {
		v.deps.Logger.Error(fmt.Sprintf("📊 使用统计拉取失败: %v", err))
		return
	}
	if statistic == nil {
		return
	}

	if !v.alive.Load() {
		v.deps.Logger.Debug("📊 视图已销毁，丢弃迟到的统计响应")
		return
	}

	v.statistic.Set(statistic)
}

// Unmount 标记视图销毁，阻断迟到响应的状态写入
func (v *View) Unmount() {
	v.alive.Store(false)
}

// SetBeanName 同步更新知识库名称，不做校验
func (v *View) SetBeanName(name string) {
	v.beanName.Set(name)
}

// SetBeanPwd 同步更新知识库密码，不做校验
func (v *View) SetBeanPwd(pwd string) {
	v.beanPwd.Set(pwd)
}

// BeanName 当前输入的知识库名称
func (v *View) BeanName() string {
	return v.beanName.Get()
}

// BeanPwd 当前输入的知识库密码
func (v *View) BeanPwd() string {
	return v.beanPwd.Get()
}

// Statistic 当前统计快照，未拉取到时为nil
func (v *View) Statistic() *service.Statistic {
	return v.statistic.Get()
}

// OnStatisticChange 订阅统计快照变更（TUI用来触发重绘）
func (v *View) OnStatisticChange(fn func()) (unsubscribe func()) {
	return v.statistic.Subscribe(fn)
}

// Cancel 清空两个输入框；幂等
func (v *View) Cancel() {
	v.beanName.Set("")
	v.beanPwd.Set("")
}

// ConfirmLabel 确认按钮文案，由existed标记决定
func (v *View) ConfirmLabel() string {
	if v.existed.Get() {
		return v.deps.Locale("visit")
	}
	return v.deps.Locale("create")
}

// ConfirmDisabled 确认按钮的禁用展示态。
// 仅影响展示：Confirm本身不受该标记约束，调用方不得依赖它拦截动作。
func (v *View) ConfirmDisabled() bool {
	return v.beanName.Get() == "" || v.beanPwd.Get() == ""
}

// Confirm 确认动作，按固定顺序执行校验与派发：
//  1. 名称非空且不足8个字符 → 提示并终止，不检查密码；
//  2. 名称非空、超过7个字符且密码非空 → 调用登录接口；
//  3. 其余情况（包括两项均为空）静默不动作。
// 空名称提交会同时绕过两个分支，与线上行为保持一致。
func (v *View) Confirm(ctx context.Context) {
	name := v.beanName.Get()

	if name != "" && utf8.RuneCountInString(name) < 8 {
		v.deps.Toast(ToastInfo, v.deps.Locale("nameTooShort"))
		return
	}

	if name != "" && utf8.RuneCountInString(name) > 7 && v.beanPwd.Get() != "" {
		v.validateBean(ctx, name, v.beanPwd.Get())
	}
}

// validateBean 调用登录接口并处理业务结果
func (v *View) validateBean(ctx context.Context, name, password string) {
	result, err := v.deps.Service.LoginBean(ctx, name, password)
	if err != nil {
		// 传输层失败没有用户可见的反馈路径，只能落日志
		v.deps.Logger.Error(fmt.Sprintf("🔑 知识库登录请求失败: %v", err))
		return
	}

	if !result.Success {
		v.deps.Toast(ToastError, result.Msg)
		return
	}

	if result.FeatureStoreID != "" {
		v.deps.Navigate(BeanDetailPath(result.FeatureStoreID))
	}
	// 成功但无featureStoreId：静默不动作
}

package home

import (
	"github.com/xiaokn/HuixiangDou/internal/locale"
	"github.com/xiaokn/HuixiangDou/internal/service"
)

// StatRow 统计面板的一行展示数据
type StatRow struct {
	Title  string `json:"title"`
	Key    string `json:"key"`
	Number int64  `json:"number"`
}

// statKeys 六项统计的固定展示顺序
var statKeys = []string{
	"qalibTotal",
	"wechatTotal",
	"servedUser",
	"lastMonthUsed",
	"feishuTotal",
	"realServedUser",
}

// BuildStatRows 由（文案表，统计快照）计算展示行的纯函数。
// 快照缺失时返回空切片；单项计数缺失时按0展示而不是省略该行。
func BuildStatRows(lookup locale.Lookup, statistic *service.Statistic) []StatRow {
	if statistic == nil {
		return []StatRow{}
	}

	numbers := map[string]*int64{
		"qalibTotal":     statistic.QalibTotal,
		"wechatTotal":    statistic.WechatTotal,
		"servedUser":     statistic.ServedUser,
		"lastMonthUsed":  statistic.LastMonthUsed,
		"feishuTotal":    statistic.FeishuTotal,
		"realServedUser": statistic.RealServedUser,
	}

	rows := make([]StatRow, 0, len(statKeys))
	for _, key := range statKeys {
		var number int64
		if n := numbers[key]; n != nil {
			number = *n
		}
		rows = append(rows, StatRow{
			Title:  lookup(key),
			Key:    key,
			Number: number,
		})
	}
	return rows
}

// StatRows 返回当前快照对应的统计行。
// 同一快照的重复渲染命中缓存；文案表在视图生命周期内不变，无需参与缓存键。
func (v *View) StatRows() []StatRow {
	snapshot := v.statistic.Get()

	v.rowsMu.Lock()
	defer v.rowsMu.Unlock()

	if v.rowsCache != nil && v.rowsSnapshot == snapshot {
		return v.rowsCache
	}

	v.rowsSnapshot = snapshot
	v.rowsCache = BuildStatRows(v.deps.Locale, snapshot)
	return v.rowsCache
}

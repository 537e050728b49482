// Package locale 提供门户界面的多语言文案表。
// 文案按命名空间组织，当前只有首页（home）一个命名空间；
// 更完整的国际化资源由上层产品统一管理，这里只承载本服务渲染所需的词条。
package locale

// Lookup 按词条key返回对应语言的显示文案。
// 未知key原样返回，便于在页面上直接暴露缺失词条。
type Lookup func(key string) string

var homeZH = map[string]string{
	"slogan":           "茴香豆，一款基于LLM的专业知识助手",
	"subSlogan":        "创建知识库，让你的微信群、飞书群拥有自己的答疑机器人",
	"beanName":         "知识库名称",
	"beanNamePlaceholder": "请输入知识库名称",
	"beanPwd":          "知识库密码",
	"beanPwdPlaceholder":  "请输入知识库密码",
	"create":           "创建知识库",
	"visit":            "进入知识库",
	"cancel":           "取消",
	"nameTooShort":     "知识库名称至少需要8个字符",
	"statisticTitle":   "使用统计",
	"qalibTotal":       "知识库总数",
	"wechatTotal":      "微信群数量",
	"feishuTotal":      "飞书群数量",
	"servedUser":       "服务用户数",
	"realServedUser":   "真实服务用户数",
	"lastMonthUsed":    "月活跃知识库",
	"beanDetailTitle":  "知识库详情",
}

var homeEN = map[string]string{
	"slogan":           "HuixiangDou, an LLM-based knowledge assistant",
	"subSlogan":        "Create a knowledge base and give your WeChat / Feishu groups their own QA bot",
	"beanName":         "Knowledge base name",
	"beanNamePlaceholder": "Enter knowledge base name",
	"beanPwd":          "Knowledge base password",
	"beanPwdPlaceholder":  "Enter knowledge base password",
	"create":           "Create knowledge base",
	"visit":            "Open knowledge base",
	"cancel":           "Cancel",
	"nameTooShort":     "Knowledge base name must be at least 8 characters",
	"statisticTitle":   "Usage statistics",
	"qalibTotal":       "Knowledge bases",
	"wechatTotal":      "WeChat groups",
	"feishuTotal":      "Feishu groups",
	"servedUser":       "Users served",
	"realServedUser":   "Unique users served",
	"lastMonthUsed":    "Active last month",
	"beanDetailTitle":  "Knowledge base detail",
}

var namespaces = map[string]map[string]map[string]string{
	"home": {
		"zh": homeZH,
		"en": homeEN,
	},
}

// Table 返回指定语言、指定命名空间的文案查询函数。
// 未知语言回退到中文（产品默认语言）。
func Table(language, namespace string) Lookup {
	ns, ok := namespaces[namespace]
	if !ok {
		return func(key string) string { return key }
	}

	table, ok := ns[language]
	if !ok {
		table = ns["zh"]
	}

	return func(key string) string {
		if text, ok := table[key]; ok {
			return text
		}
		return key
	}
}

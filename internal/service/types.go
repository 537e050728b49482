package service

import "encoding/json"

// MsgCodeSuccess 后端接口的成功响应码
const MsgCodeSuccess = "10000"

// Envelope 后端API统一响应结构
type Envelope struct {
	MsgCode string          `json:"msgCode"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// Statistic 使用统计快照，六项计数器由后端一次性下发。
// 字段用指针建模缺失值：nil表示后端未返回该项，展示层按0处理。
type Statistic struct {
	QalibTotal     *int64 `json:"qalibTotal"`     // 知识库总数
	WechatTotal    *int64 `json:"wechatTotal"`    // 微信群数量
	ServedUser     *int64 `json:"servedUser"`     // 服务用户数
	LastMonthUsed  *int64 `json:"lastMonthUsed"`  // 月活跃知识库
	FeishuTotal    *int64 `json:"feishuTotal"`    // 飞书群数量
	RealServedUser *int64 `json:"realServedUser"` // 真实服务用户数
}

// LoginRequest 知识库登录/创建请求
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginData 登录响应数据
type LoginData struct {
	FeatureStoreID string `json:"featureStoreId"`
	Existed        bool   `json:"exist"`
}

// LoginResult 知识库登录结果。
// Success为false时Msg携带后端给出的用户可读错误信息。
type LoginResult struct {
	Success        bool
	Msg            string
	FeatureStoreID string
}

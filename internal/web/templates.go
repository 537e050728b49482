package web

import (
	"html/template"

	"github.com/xiaokn/HuixiangDou/internal/home"
)

// homePageData 首页模板数据
type homePageData struct {
	Lang            string
	Slogan          string
	SubSlogan       string
	NameLabel       string
	NamePlaceholder string
	PwdLabel        string
	PwdPlaceholder  string
	ConfirmLabel    string
	CancelLabel     string
	StatisticTitle  string
	BeanName        string
	ConfirmDisabled bool
	Rows            []home.StatRow
	Toast           string
	ToastLevel      string
}

// beanDetailData 详情页模板数据
type beanDetailData struct {
	Lang  string
	Title string
	Bean  string
}

const homeHTML = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>HuixiangDou</title>
<style>
  body { margin: 0; font-family: "PingFang SC", "Microsoft YaHei", sans-serif; background: #f7f8fa; color: #1d2129; }
  .container { max-width: 720px; margin: 0 auto; padding: 48px 24px; text-align: center; }
  .logo { width: 96px; height: 96px; }
  .slogan { font-size: 28px; font-weight: 600; margin: 24px 0 8px; }
  .sub-slogan { font-size: 15px; color: #86909c; margin-bottom: 40px; }
  .bean-form { display: flex; flex-direction: column; gap: 16px; max-width: 360px; margin: 0 auto; }
  .bean-form input { padding: 10px 14px; font-size: 14px; border: 1px solid #e5e6eb; border-radius: 4px; }
  .actions { display: flex; gap: 12px; justify-content: center; margin-top: 8px; }
  .actions button { padding: 10px 28px; font-size: 14px; border-radius: 4px; border: none; cursor: pointer; }
  .confirm { background: #165dff; color: #fff; }
  .confirm[disabled] { background: #94bfff; }
  .cancel { background: #f2f3f5; color: #4e5969; }
  .divider { border: none; border-top: 1px solid #e5e6eb; margin: 48px 0; }
  .toast { max-width: 360px; margin: 0 auto 24px; padding: 10px 16px; border-radius: 4px; font-size: 14px; }
  .toast-info { background: #e8f3ff; color: #165dff; }
  .toast-error { background: #ffece8; color: #f53f3f; }
  .stats-title { font-size: 18px; font-weight: 600; margin-bottom: 24px; }
  .stats { display: grid; grid-template-columns: repeat(3, 1fr); gap: 24px; }
  .stat-tile .number { font-size: 28px; font-weight: 600; color: #165dff; }
  .stat-tile .title { font-size: 13px; color: #86909c; margin-top: 4px; }
</style>
</head>
<body>
<div class="container">
  <img class="logo" src="/static/logo.svg" alt="HuixiangDou">
  <div class="slogan">{{.Slogan}}</div>
  <div class="sub-slogan">{{.SubSlogan}}</div>

  {{if .Toast}}
  <div class="toast toast-{{if eq .ToastLevel "error"}}error{{else}}info{{end}}">{{.Toast}}</div>
  {{end}}

  <form class="bean-form" method="post" action="/home/confirm">
    <input type="text" name="beanName" value="{{.BeanName}}" placeholder="{{.NamePlaceholder}}" aria-label="{{.NameLabel}}">
    <input type="password" name="beanPwd" placeholder="{{.PwdPlaceholder}}" aria-label="{{.PwdLabel}}">
    <div class="actions">
      <button class="cancel" type="submit" formaction="/home/cancel" formnovalidate>{{.CancelLabel}}</button>
      <button class="confirm" type="submit"{{if .ConfirmDisabled}} disabled{{end}}>{{.ConfirmLabel}}</button>
    </div>
  </form>

  <hr class="divider">

  <div class="stats-title">{{.StatisticTitle}}</div>
  <div class="stats">
    {{range .Rows}}
    <div class="stat-tile" data-key="{{.Key}}">
      <div class="number">{{.Number}}</div>
      <div class="title">{{.Title}}</div>
    </div>
    {{end}}
  </div>
</div>
</body>
</html>
`

const beanDetailHTML = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}} - HuixiangDou</title>
<style>
  body { margin: 0; font-family: "PingFang SC", "Microsoft YaHei", sans-serif; background: #f7f8fa; color: #1d2129; }
  .container { max-width: 720px; margin: 0 auto; padding: 48px 24px; }
  .bean-id { color: #86909c; font-size: 14px; }
</style>
</head>
<body>
<div class="container">
  <h1>{{.Title}}</h1>
  <div class="bean-id">feature store: {{.Bean}}</div>
</div>
</body>
</html>
`

var (
	homeTemplate       = template.Must(template.New("home").Parse(homeHTML))
	beanDetailTemplate = template.Must(template.New("beanDetail").Parse(beanDetailHTML))
)

package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaokn/HuixiangDou/config"
	"github.com/xiaokn/HuixiangDou/internal/service"
	"github.com/xiaokn/HuixiangDou/internal/tracking"
)

type fakeBeanService struct {
	mu         sync.Mutex
	statistic  *service.Statistic
	statErr    error
	loginRes   *service.LoginResult
	loginErr   error
	loginCalls int
}

func (f *fakeBeanService) GetStatistic(ctx context.Context) (*service.Statistic, error) {
	return f.statistic, f.statErr
}

func (f *fakeBeanService) LoginBean(ctx context.Context, name, password string) (*service.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginRes, f.loginErr
}

func newTestServer(t *testing.T, svc service.BeanService) *WebServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server = config.ServerConfig{Host: "localhost", Port: 8090}
	cfg.Backend = config.BackendConfig{BaseURL: "http://127.0.0.1:23333", Timeout: time.Second}
	cfg.Locale = config.LocaleConfig{Language: "zh"}

	tracker, err := tracking.NewTracker(&config.TrackingConfig{Enabled: false}, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWebServer(cfg, svc, tracker, logger, time.Now(), "config/example.yaml")
}

func doRequest(ws *WebServer, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	ws.Engine().ServeHTTP(rec, req)
	return rec
}

func n(v int64) *int64 { return &v }

func TestHomeRendersStatistics(t *testing.T) {
	svc := &fakeBeanService{statistic: &service.Statistic{
		QalibTotal:    n(120),
		WechatTotal:   n(30),
		ServedUser:    n(4500),
		LastMonthUsed: n(80),
		FeishuTotal:   n(12),
	}}
	ws := newTestServer(t, svc)

	rec := doRequest(ws, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "茴香豆，一款基于LLM的专业知识助手")
	assert.Contains(t, body, "创建知识库")
	assert.Equal(t, 6, strings.Count(body, `class="stat-tile"`))
	assert.Contains(t, body, ">4500<")
	// 缺失的计数按0渲染
	assert.Contains(t, body, `data-key="realServedUser"`)
}

func TestHomeRendersEmptyPanelWhenStatisticsUnavailable(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{statErr: errors.New("backend down")})

	rec := doRequest(ws, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="stat-tile"`)
}

func TestHomeRendersFlashToast(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodGet, "/?toast=%E5%AF%86%E7%A0%81%E9%94%99%E8%AF%AF&toastLevel=error", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "toast-error")
	assert.Contains(t, rec.Body.String(), "密码错误")
}

func TestConfirmShortNameRedirectsWithInfoToast(t *testing.T) {
	svc := &fakeBeanService{}
	ws := newTestServer(t, svc)

	rec := doRequest(ws, http.MethodPost, "/home/confirm", url.Values{
		"beanName": {"short"},
		"beanPwd":  {"secret"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", location.Path)
	assert.Equal(t, "info", location.Query().Get("toastLevel"))
	assert.Equal(t, "知识库名称至少需要8个字符", location.Query().Get("toast"))
	assert.Equal(t, "short", location.Query().Get("name"))
	assert.Equal(t, 0, svc.loginCalls)
}

func TestConfirmSuccessRedirectsToBeanDetail(t *testing.T) {
	svc := &fakeBeanService{loginRes: &service.LoginResult{Success: true, FeatureStoreID: "abc"}}
	ws := newTestServer(t, svc)

	rec := doRequest(ws, http.MethodPost, "/home/confirm", url.Values{
		"beanName": {"myknowledgebase"},
		"beanPwd":  {"secret"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/bean-detail/?bean=abc", rec.Header().Get("Location"))
	assert.Equal(t, 1, svc.loginCalls)
}

func TestConfirmLoginFailureRedirectsWithErrorToast(t *testing.T) {
	svc := &fakeBeanService{loginRes: &service.LoginResult{Success: false, Msg: "密码错误"}}
	ws := newTestServer(t, svc)

	rec := doRequest(ws, http.MethodPost, "/home/confirm", url.Values{
		"beanName": {"myknowledgebase"},
		"beanPwd":  {"wrong"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "error", location.Query().Get("toastLevel"))
	assert.Equal(t, "密码错误", location.Query().Get("toast"))
}

func TestConfirmMissingPasswordIsSilentRedirect(t *testing.T) {
	svc := &fakeBeanService{}
	ws := newTestServer(t, svc)

	rec := doRequest(ws, http.MethodPost, "/home/confirm", url.Values{
		"beanName": {"myknowledgebase"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", location.Path)
	assert.Empty(t, location.Query().Get("toast"))
	assert.Equal(t, "myknowledgebase", location.Query().Get("name"))
	assert.Equal(t, 0, svc.loginCalls)
}

func TestCancelRedirectsToCleanHome(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodPost, "/home/cancel", url.Values{
		"beanName": {"myknowledgebase"},
		"beanPwd":  {"secret"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestBeanDetailRendersFeatureStoreID(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodGet, "/bean-detail/?bean=abc123", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc123")
	assert.Contains(t, rec.Body.String(), "知识库详情")
}

func TestBeanDetailWithoutIDRedirectsHome(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodGet, "/bean-detail/", nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestStatusEndpoint(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodGet, "/api/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"running"`)
	assert.Contains(t, rec.Body.String(), `"language":"zh"`)
}

func TestHealthz(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	ws := newTestServer(t, &fakeBeanService{})

	rec := doRequest(ws, http.MethodGet, "/healthz", nil)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

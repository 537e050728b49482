// Package service 封装茴香豆后端API的HTTP客户端。
// 门户页面消费的两个接口都在这里：使用统计查询和知识库登录/创建。
// 鉴权、会话等逻辑全部由后端负责，本包只做传输和编解码。
package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/xiaokn/HuixiangDou/config"
)

const (
	statisticPath = "/api/v1/statistic/total"
	loginPath     = "/api/v1/access/v1/login"
)

// BeanService 门户视图依赖的后端能力
type BeanService interface {
	// GetStatistic 拉取使用统计快照，后端无数据时返回nil快照
	GetStatistic(ctx context.Context) (*Statistic, error)
	// LoginBean 校验或创建知识库，返回后端的业务结果
	LoginBean(ctx context.Context, name, password string) (*LoginResult, error)
}

// Client 后端API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建后端API客户端
func NewClient(cfg config.BackendConfig, logger *slog.Logger) (*Client, error) {
	httpClient, err := NewHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetStatistic 获取使用统计快照
func (c *Client) GetStatistic(ctx context.Context) (*Statistic, error) {
	envelope, err := c.doRequest(ctx, http.MethodGet, statisticPath, nil)
	if err != nil {
		return nil, err
	}

	if envelope.MsgCode != MsgCodeSuccess {
		c.logger.Warn("📊 统计接口返回业务错误",
			"msg_code", envelope.MsgCode,
			"msg", envelope.Msg)
		return nil, nil
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, nil
	}

	var statistic Statistic
	if err := json.Unmarshal(envelope.Data, &statistic); err != nil {
		return nil, fmt.Errorf("failed to decode statistic data: %w", err)
	}

	return &statistic, nil
}

// LoginBean 登录或创建知识库
func (c *Client) LoginBean(ctx context.Context, name, password string) (*LoginResult, error) {
	body, err := json.Marshal(LoginRequest{Name: name, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	envelope, err := c.doRequest(ctx, http.MethodPost, loginPath, body)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		Success: envelope.MsgCode == MsgCodeSuccess,
		Msg:     envelope.Msg,
	}

	if result.Success && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		var data LoginData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode login data: %w", err)
		}
		result.FeatureStoreID = data.FeatureStoreID
	}

	return result, nil
}

// doRequest 发送请求并解出统一响应结构
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	decompressed, err := decompressedReader(resp)
	if err != nil {
		return nil, err
	}
	defer decompressed.Close()

	respBody, err := io.ReadAll(decompressed)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned HTTP %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	var envelope Envelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}

	return &envelope, nil
}

// decompressedReader 根据Content-Encoding包装响应体读取器
func decompressedReader(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzipReader, nil

	case "br":
		// brotli读取器需要包装一个closer
		return &brotliReadCloser{
			reader: brotli.NewReader(resp.Body),
			closer: resp.Body,
		}, nil

	default:
		return io.NopCloser(resp.Body), nil
	}
}

// brotliReadCloser 为brotli读取器添加Close方法
type brotliReadCloser struct {
	reader *brotli.Reader
	closer io.Closer
}

func (brc *brotliReadCloser) Read(p []byte) (int, error) {
	return brc.reader.Read(p)
}

func (brc *brotliReadCloser) Close() error {
	return brc.closer.Close()
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

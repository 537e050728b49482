package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/xiaokn/HuixiangDou/config"
)

// NewHTTPClient 根据后端配置构建HTTP客户端。
// 支持 http/https/socks5 出站代理，代理不可用时直接返回错误而不是静默直连。
func NewHTTPClient(cfg config.BackendConfig, logger *slog.Logger) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// 压缩由本包自行处理，便于同时支持gzip和brotli
		DisableCompression: true,
	}

	if cfg.Proxy.Enabled {
		proxyURL, err := buildProxyURL(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy configuration: %w", err)
		}

		switch cfg.Proxy.Type {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.Info("🔗 后端请求将通过HTTP代理转发", "proxy", proxyURL.Redacted())

		case "socks5":
			var auth *proxy.Auth
			if cfg.Proxy.Username != "" {
				auth = &proxy.Auth{
					User:     cfg.Proxy.Username,
					Password: cfg.Proxy.Password,
				}
			}

			dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create socks5 dialer: %w", err)
			}
			if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = contextDialer.DialContext
			} else {
				return nil, fmt.Errorf("socks5 dialer does not support context dialing")
			}
			logger.Info("🔗 后端请求将通过SOCKS5代理转发", "proxy", proxyURL.Host)

		default:
			return nil, fmt.Errorf("unsupported proxy type: %s", cfg.Proxy.Type)
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// buildProxyURL 从配置拼装代理URL，完整URL优先于host/port组合
func buildProxyURL(cfg config.ProxyConfig) (*url.URL, error) {
	if cfg.URL != "" {
		return url.Parse(cfg.URL)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("proxy host is empty")
	}

	scheme := cfg.Type
	if scheme == "socks5" {
		// socks5 URL只取host部分，scheme仅用于解析
		scheme = "socks5"
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u, nil
}

package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaokn/HuixiangDou/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.BackendConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func int64Ptr(v int64) *int64 { return &v }

func TestGetStatisticSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/statistic/total", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"msgCode": "10000",
			"msg":     "ok",
			"data": map[string]interface{}{
				"qalibTotal":     120,
				"wechatTotal":    30,
				"servedUser":     4500,
				"lastMonthUsed":  80,
				"feishuTotal":    12,
				"realServedUser": nil,
			},
		})
	}))

	statistic, err := client.GetStatistic(context.Background())
	require.NoError(t, err)
	require.NotNil(t, statistic)

	assert.Equal(t, int64Ptr(120), statistic.QalibTotal)
	assert.Equal(t, int64Ptr(30), statistic.WechatTotal)
	assert.Equal(t, int64Ptr(4500), statistic.ServedUser)
	assert.Equal(t, int64Ptr(80), statistic.LastMonthUsed)
	assert.Equal(t, int64Ptr(12), statistic.FeishuTotal)
	assert.Nil(t, statistic.RealServedUser)
}

func TestGetStatisticBusinessErrorReturnsNil(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"msgCode": "A2000",
			"msg":     "internal error",
		})
	}))

	statistic, err := client.GetStatistic(context.Background())
	require.NoError(t, err)
	assert.Nil(t, statistic)
}

func TestGetStatisticNullData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msgCode":"10000","msg":"ok","data":null}`))
	}))

	statistic, err := client.GetStatistic(context.Background())
	require.NoError(t, err)
	assert.Nil(t, statistic)
}

func TestGetStatisticGzipResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")

		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(`{"msgCode":"10000","msg":"ok","data":{"qalibTotal":7}}`))
		gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))

	statistic, err := client.GetStatistic(context.Background())
	require.NoError(t, err)
	require.NotNil(t, statistic)
	assert.Equal(t, int64Ptr(7), statistic.QalibTotal)
}

func TestGetStatisticBrotliResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		br := brotli.NewWriter(&buf)
		br.Write([]byte(`{"msgCode":"10000","msg":"ok","data":{"feishuTotal":3}}`))
		br.Close()

		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))

	statistic, err := client.GetStatistic(context.Background())
	require.NoError(t, err)
	require.NotNil(t, statistic)
	assert.Equal(t, int64Ptr(3), statistic.FeishuTotal)
}

func TestLoginBeanSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/access/v1/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "myknowledge", req.Name)
		assert.Equal(t, "secret", req.Password)

		w.Write([]byte(`{"msgCode":"10000","msg":"ok","data":{"featureStoreId":"abc123","exist":true}}`))
	}))

	result, err := client.LoginBean(context.Background(), "myknowledge", "secret")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "abc123", result.FeatureStoreID)
}

func TestLoginBeanFailureCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msgCode":"A1001","msg":"密码错误","data":null}`))
	}))

	result, err := client.LoginBean(context.Background(), "myknowledge", "wrong")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "密码错误", result.Msg)
	assert.Empty(t, result.FeatureStoreID)
}

func TestLoginBeanSuccessWithoutFeatureStoreID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msgCode":"10000","msg":"ok","data":{}}`))
	}))

	result, err := client.LoginBean(context.Background(), "myknowledge", "secret")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.FeatureStoreID)
}

func TestDoRequestHTTPError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	}))

	_, err := client.LoginBean(context.Background(), "myknowledge", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// HTTPFeedAdapter 基于 HTTP/JSON 的参考拉取适配器
// 针对返回 JSON 数组的商品目录端点，带请求限速与凭证注入。
// 各供应商的具体协议适配器（SOAP/XML、FTP 文件投递等）按同样的
// 两方法契约另行实现。
type HTTPFeedAdapter struct {
	baseURL    string
	credential string
	client     *http.Client
	limiter    *rate.Limiter
}

// HTTPFeedConfig HTTP 适配器配置
type HTTPFeedConfig struct {
	BaseURL           string        // 目录端点，如 https://api.vendor.com/catalog
	Credential        string        // Bearer 凭证，由凭证提供者解密后传入
	Timeout           time.Duration // 单次请求超时，默认 60s
	RequestsPerMinute int           // 限速，默认 60
}

// NewHTTPFeedAdapter 创建 HTTP 适配器
func NewHTTPFeedAdapter(cfg HTTPFeedConfig) *HTTPFeedAdapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &HTTPFeedAdapter{
		baseURL:    cfg.BaseURL,
		credential: cfg.Credential,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}
}

// FetchFull 拉取完整目录
func (a *HTTPFeedAdapter) FetchFull(ctx context.Context) ([]RawRecord, error) {
	return a.fetch(ctx, nil)
}

// FetchSince 拉取指定时间之后变更的记录
func (a *HTTPFeedAdapter) FetchSince(ctx context.Context, since time.Time) ([]RawRecord, error) {
	query := url.Values{}
	query.Set("updated_since", since.UTC().Format(time.RFC3339))
	return a.fetch(ctx, query)
}

// fetch 执行一次限速的目录请求
func (a *HTTPFeedAdapter) fetch(ctx context.Context, query url.Values) ([]RawRecord, error) {
	// 限速等待，超时由 ctx 控制
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("等待限速令牌失败: %w", err)
	}

	endpoint := a.baseURL
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if a.credential != "" {
		req.Header.Set("Authorization", "Bearer "+a.credential)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("拉取目录失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("拉取目录失败: HTTP %d", resp.StatusCode)
	}

	var records []RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("解析目录响应失败: %w", err)
	}

	return records, nil
}

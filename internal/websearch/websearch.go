package websearch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider 搜索服务商
type Provider interface {
	// Search 执行一次搜索
	Search(ctx context.Context, req *Request) (*Response, error)

	// Name 返回服务商名称
	Name() string
}

// Request 搜索请求
type Request struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// Result 单条搜索结果
type Result struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Content     string  `json:"content"`
	Score       float32 `json:"score,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
}

// Response 搜索结果集
type Response struct {
	Query   string    `json:"query"`
	Results []*Result `json:"results"`
	Took    int64     `json:"took"` // 毫秒
}

// 支持的服务商
const (
	ProviderTavily  = "tavily"
	ProviderSearXNG = "searxng"
)

// Config 搜索服务商配置
type Config struct {
	Provider   string
	APIHost    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	MaxResults int
}

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultMaxResults = 10
)

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	return cfg
}

// New 按配置创建搜索服务商
func New(cfg Config) (Provider, error) {
	if cfg.APIHost == "" {
		return nil, fmt.Errorf("websearch: api_host is required")
	}
	resolved := cfg.withDefaults()

	switch cfg.Provider {
	case ProviderTavily:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("websearch: tavily requires an api key")
		}
		return newTavily(resolved), nil
	case ProviderSearXNG:
		return newSearXNG(resolved), nil
	default:
		return nil, fmt.Errorf("websearch: unknown provider %q", cfg.Provider)
	}
}

// base 各服务商共用的 HTTP 执行逻辑
type base struct {
	config     Config
	httpClient *http.Client
}

func newBase(cfg Config) base {
	return base{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// doRequest 带指数退避的请求重试
func (b *base) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for i := 0; i < b.config.MaxRetries; i++ {
		resp, err := b.httpClient.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if i < b.config.MaxRetries-1 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", b.config.MaxRetries, lastErr)
}

func (b *base) maxResults(req *Request) int {
	if req.MaxResults > 0 {
		return req.MaxResults
	}
	return b.config.MaxResults
}

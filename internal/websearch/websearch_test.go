package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProviderSelection(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    string
		wantErr bool
	}{
		{
			name:   "tavily",
			config: Config{Provider: ProviderTavily, APIHost: "https://api.tavily.com", APIKey: "key"},
			want:   ProviderTavily,
		},
		{
			name:   "searxng without api key",
			config: Config{Provider: ProviderSearXNG, APIHost: "https://search.example.com"},
			want:   ProviderSearXNG,
		},
		{
			name:    "tavily requires api key",
			config:  Config{Provider: ProviderTavily, APIHost: "https://api.tavily.com"},
			wantErr: true,
		},
		{
			name:    "missing api host",
			config:  Config{Provider: ProviderTavily, APIKey: "key"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: "bing", APIHost: "https://example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestTavily_Search(t *testing.T) {
	var gotAuth string
	var gotBody tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"query": "go 语言",
			"results": []map[string]interface{}{
				{"title": "The Go Programming Language", "url": "https://go.dev", "content": "Go 官网", "score": 0.97},
				{"title": "Go Blog", "url": "https://go.dev/blog", "content": "官方博客", "score": 0.85},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{Provider: ProviderTavily, APIHost: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	resp, err := p.Search(context.Background(), &Request{Query: "go 语言"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "go 语言", gotBody.Query)
	assert.Equal(t, defaultMaxResults, gotBody.MaxResults)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "https://go.dev", resp.Results[0].URL)
	assert.Equal(t, float32(0.97), resp.Results[0].Score)
}

func TestTavily_SearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := New(Config{Provider: ProviderTavily, APIHost: srv.URL, APIKey: "bad-key"})
	require.NoError(t, err)

	_, err = p.Search(context.Background(), &Request{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestSearXNG_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "最新动态", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("number_of_results"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"query": "最新动态",
			"results": []map[string]interface{}{
				{"title": "新闻一", "url": "https://news.example.com/1", "content": "摘要"},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{Provider: ProviderSearXNG, APIHost: srv.URL})
	require.NoError(t, err)

	resp, err := p.Search(context.Background(), &Request{Query: "最新动态", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "新闻一", resp.Results[0].Title)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := (&Config{Provider: ProviderSearXNG, APIHost: "https://search.example.com"}).withDefaults()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 10, cfg.MaxResults)
}

package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, maxTokens int) *Client {
	t.Helper()
	c, err := New(http.DefaultClient, Config{MaxTokens: maxTokens})
	require.NoError(t, err)
	return c
}

func TestFetch_ExtractsHTMLText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 应携带浏览器 UA
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>T</title><style>body{}</style></head>
<body><script>var x=1;</script><h1>标题</h1><p>第一段</p><p>第二段</p></body></html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, 2000)
	content, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, content, "标题")
	assert.Contains(t, content, "第一段")
	assert.NotContains(t, content, "var x=1")
	assert.NotContains(t, content, "body{}")
}

func TestFetch_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("plain content"))
	}))
	defer srv.Close()

	c := newTestClient(t, 2000)
	content, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "plain content", content)
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, 2000)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetch_TruncatesByTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("word ", 500)))
	}))
	defer srv.Close()

	c := newTestClient(t, 50)
	content, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, content, "[content truncated]")
	assert.Less(t, len(content), 500*5)
}

func TestFetch_InvalidURL(t *testing.T) {
	c := newTestClient(t, 2000)
	_, err := c.Fetch(context.Background(), "://bad")
	require.Error(t, err)
}

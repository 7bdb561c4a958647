package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/net/html"
)

// 部分站点对非浏览器 UA 返回 403，带浏览器 UA 抓取
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const truncationNotice = "\n\n[content truncated]"

// Config 网页抓取配置
type Config struct {
	MaxTokens int // 正文截断上限（token 数）
	MaxBody   int // 响应体读取上限（字节）
}

// Client 抓取网页并提取纯文本正文，按 token 数截断后交给模型
type Client struct {
	http     *http.Client
	encoding *tiktoken.Tiktoken
	cfg      Config
}

// New 创建抓取客户端
func New(httpClient *http.Client, cfg Config) (*Client, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 4 << 20
	}
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &Client{http: httpClient, encoding: encoding, cfg: cfg}, nil
}

// Fetch 抓取 URL 并返回清洗、截断后的正文
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.cfg.MaxBody)))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text, err = extractText(text)
		if err != nil {
			return "", err
		}
	}
	return c.truncate(text), nil
}

// truncate 按 token 数截断，超限时附加截断提示
func (c *Client) truncate(text string) string {
	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) <= c.cfg.MaxTokens {
		return text
	}
	return c.encoding.Decode(tokens[:c.cfg.MaxTokens]) + truncationNotice
}

// extractText 从 HTML 提取纯文本，跳过脚本与样式
func extractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "br", "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// 压缩空白行
	lines := strings.Split(text.String(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n"), nil
}

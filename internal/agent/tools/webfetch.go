package tools

import (
	"context"
	"encoding/json"
	"errors"

	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"

	"github.com/tidwall/gjson"
)

// PageFetcher 抓取网页并返回清洗后的正文
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// WebFetchTool 供模型抓取网页内容的工具
type WebFetchTool struct {
	fetcher PageFetcher
}

// NewWebFetchTool 创建网页抓取工具
func NewWebFetchTool(fetcher PageFetcher) *WebFetchTool {
	return &WebFetchTool{fetcher: fetcher}
}

func (t *WebFetchTool) Name() string {
	return "fetch_web_content"
}

func (t *WebFetchTool) Declaration() ptypes.Tool {
	return ptypes.Tool{
		Type: "function",
		Function: ptypes.ToolFunction{
			Name:        t.Name(),
			Description: "Fetches the text content of a web page. Use this when the user asks about a specific URL or you need up-to-date information from a known page.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "The full URL of the page to fetch, including the scheme.",
					},
				},
				"required": []string{"url"},
			},
		},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args string) (json.RawMessage, error) {
	url := gjson.Get(args, "url").String()
	if url == "" {
		return nil, errors.New("missing required argument: url")
	}

	content, err := t.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{
		"url":     url,
		"content": content,
	})
}

package tools

import (
	"context"
	"encoding/json"
	"errors"

	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/websearch"

	"github.com/tidwall/gjson"
)

// WebSearchTool 供模型检索网络信息的工具
type WebSearchTool struct {
	provider websearch.Provider
}

// NewWebSearchTool 创建网络搜索工具
func NewWebSearchTool(provider websearch.Provider) *WebSearchTool {
	return &WebSearchTool{provider: provider}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Declaration() ptypes.Tool {
	return ptypes.Tool{
		Type: "function",
		Function: ptypes.ToolFunction{
			Name:        t.Name(),
			Description: "Searches the web. Use this for current events, discovering information, or finding URLs to fetch with fetch_web_content.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

type webSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

func (t *WebSearchTool) Execute(ctx context.Context, args string) (json.RawMessage, error) {
	query := gjson.Get(args, "query").String()
	if query == "" {
		return nil, errors.New("missing required argument: query")
	}

	resp, err := t.provider.Search(ctx, &websearch.Request{Query: query})
	if err != nil {
		return nil, err
	}

	results := make([]webSearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = webSearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		}
	}
	return json.Marshal(map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Tavily Tavily 搜索 API
type Tavily struct {
	base
}

func newTavily(cfg Config) *Tavily {
	return &Tavily{base: newBase(cfg)}
}

func (p *Tavily) Name() string { return ProviderTavily }

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float32 `json:"score"`
		PublishedDate string  `json:"published_date,omitempty"`
	} `json:"results"`
	Query string `json:"query"`
}

// Search 调用 Tavily /search 接口
func (p *Tavily) Search(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	body, err := json.Marshal(tavilyRequest{
		Query:       req.Query,
		SearchDepth: "basic",
		MaxResults:  p.maxResults(req),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/search", p.config.APIHost)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.doRequest(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tavily returned HTTP %d: %s", resp.StatusCode, string(errBody))
	}

	var tavilyResp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tavilyResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]*Result, len(tavilyResp.Results))
	for i, r := range tavilyResp.Results {
		results[i] = &Result{
			Title:       r.Title,
			URL:         r.URL,
			Content:     r.Content,
			Score:       r.Score,
			PublishedAt: r.PublishedDate,
		}
	}

	return &Response{
		Query:   req.Query,
		Results: results,
		Took:    time.Since(start).Milliseconds(),
	}, nil
}

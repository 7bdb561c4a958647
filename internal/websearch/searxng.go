package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SearXNG 自托管 SearXNG 实例的 JSON 搜索接口
type SearXNG struct {
	base
}

func newSearXNG(cfg Config) *SearXNG {
	return &SearXNG{base: newBase(cfg)}
}

func (p *SearXNG) Name() string { return ProviderSearXNG }

type searxngResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"publishedDate,omitempty"`
	} `json:"results"`
	Query string `json:"query"`
}

// Search 调用 SearXNG /search 接口
func (p *SearXNG) Search(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("format", "json")
	params.Set("pageno", "1")
	params.Set("number_of_results", strconv.Itoa(p.maxResults(req)))

	apiURL := fmt.Sprintf("%s/search?%s", p.config.APIHost, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.doRequest(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("searxng returned HTTP %d: %s", resp.StatusCode, string(errBody))
	}

	var searxngResp searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&searxngResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]*Result, len(searxngResp.Results))
	for i, r := range searxngResp.Results {
		results[i] = &Result{
			Title:       r.Title,
			URL:         r.URL,
			Content:     r.Content,
			PublishedAt: r.PublishedDate,
		}
	}

	return &Response{
		Query:   req.Query,
		Results: results,
		Took:    time.Since(start).Milliseconds(),
	}, nil
}

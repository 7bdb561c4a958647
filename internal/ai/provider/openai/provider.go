package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
)

// Provider OpenAI 协议 Provider 实现
type Provider struct {
	config *types.Config
	client *http.Client
}

// New 创建 OpenAI Provider
func New(config *types.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name 返回 Provider 名称
func (p *Provider) Name() string {
	return "openai"
}

// setHeaders 设置请求 headers（包括默认 headers 和自定义 headers）
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	for key, value := range p.config.Headers {
		req.Header.Set(key, value)
	}
}

// CreateChatCompletion 创建聊天补全（同步）
func (p *Provider) CreateChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	req.Stream = false
	if req.Model == "" {
		req.Model = p.config.Model
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "marshal request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.BaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "create request failed", err)
	}

	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "read response failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.ProviderError{
			Type:       types.ErrorTypeAPI,
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API error: %s", string(body)),
		}
	}

	var chatResp types.ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, types.NewDecodeError(p.Name(), "unmarshal response failed", err)
	}

	return &chatResp, nil
}

// CreateChatCompletionStream 创建聊天补全（流式）
func (p *Provider) CreateChatCompletionStream(ctx context.Context, req types.ChatCompletionRequest) (<-chan types.StreamChunk, error) {
	req.Stream = true
	if req.Model == "" {
		req.Model = p.config.Model
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "marshal request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.BaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "create request failed", err)
	}

	p.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "request failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &types.ProviderError{
			Type:       types.ErrorTypeAPI,
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API error: %s", string(body)),
		}
	}

	chunks := make(chan types.StreamChunk, 10)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		// 消费方可能提前退出，发送必须同时监听取消，否则协程悬挂
		send := func(chunk types.StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "data: ") {
				data := strings.TrimPrefix(line, "data: ")
				if data == "[DONE]" {
					send(types.StreamChunk{Done: true})
					return
				}

				var chunk types.StreamChunk
				if err := json.Unmarshal([]byte(data), &chunk); err != nil {
					send(types.StreamChunk{
						Done:  true,
						Error: types.NewDecodeError(p.Name(), "unmarshal chunk failed", err),
					})
					return
				}

				if !send(chunk) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			send(types.StreamChunk{
				Done:  true,
				Error: types.NewProviderError(p.Name(), "read stream failed", err),
			})
		}
	}()

	return chunks, nil
}

// Close 关闭 Provider
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

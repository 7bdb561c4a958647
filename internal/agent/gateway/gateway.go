package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
)

// Request 一次模型调用的完整输入
type Request struct {
	SystemInstruction string
	Messages          []ptypes.Message
	Tools             []ptypes.Tool
	Temperature       float64
}

// Gateway 模型网关，屏蔽底层 Provider 的流式协议细节。
// 一次调用消费完整的流式回复，聚合为单轮结果返回；
// 传输或解析失败返回错误，调用方视为致命。
type Gateway interface {
	Generate(ctx context.Context, req Request) (*types.Turn, error)
}

type gateway struct {
	provider ptypes.Provider
	model    string
}

// New 创建基于 Provider 的模型网关
func New(provider ptypes.Provider, model string) Gateway {
	return &gateway{provider: provider, model: model}
}

func (g *gateway) Generate(ctx context.Context, req Request) (*types.Turn, error) {
	messages := req.Messages
	if req.SystemInstruction != "" {
		messages = append([]ptypes.Message{{
			Role:    "system",
			Content: req.SystemInstruction,
		}}, messages...)
	}

	chunks, err := g.provider.CreateChatCompletionStream(ctx, ptypes.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Tools:       req.Tools,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	agg := newTurnAggregator()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return agg.finish()
			}
			if chunk.Error != nil {
				return nil, chunk.Error
			}
			agg.addCitations(chunk.Citations)
			for _, choice := range chunk.Choices {
				agg.text.WriteString(choice.Delta.Content)
				if err := agg.addDeltas(choice.Delta.ToolCalls); err != nil {
					return nil, err
				}
			}
			if chunk.Done {
				return agg.finish()
			}
		}
	}
}

// turnAggregator 聚合一轮流式回复：文本增量、工具调用分片与引用来源
type turnAggregator struct {
	text      strings.Builder
	fragments map[int]*toolCallFragment
	citations []string
	seen      map[string]struct{}
}

type toolCallFragment struct {
	id   string
	name string
	args strings.Builder
}

func newTurnAggregator() *turnAggregator {
	return &turnAggregator{
		fragments: make(map[int]*toolCallFragment),
		seen:      make(map[string]struct{}),
	}
}

// addDeltas 按 Index 归并工具调用分片；同一 Index 的 Arguments 按到达顺序拼接
func (a *turnAggregator) addDeltas(deltas []ptypes.ToolCallDelta) error {
	for _, d := range deltas {
		if d.Index < 0 {
			return fmt.Errorf("aggregate tool call: negative index %d", d.Index)
		}
		frag, ok := a.fragments[d.Index]
		if !ok {
			frag = &toolCallFragment{}
			a.fragments[d.Index] = frag
		}
		if d.ID != "" {
			frag.id = d.ID
		}
		if d.Function.Name != "" {
			frag.name = d.Function.Name
		}
		frag.args.WriteString(d.Function.Arguments)
	}
	return nil
}

// addCitations 去重累积引用来源，保持首次出现顺序
func (a *turnAggregator) addCitations(citations []string) {
	for _, c := range citations {
		if c == "" {
			continue
		}
		if _, ok := a.seen[c]; ok {
			continue
		}
		a.seen[c] = struct{}{}
		a.citations = append(a.citations, c)
	}
}

func (a *turnAggregator) finish() (*types.Turn, error) {
	turn := &types.Turn{Text: a.text.String()}

	indexes := make([]int, 0, len(a.fragments))
	for i := range a.fragments {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for pos, i := range indexes {
		if i != pos {
			return nil, fmt.Errorf("aggregate tool call: missing fragment at index %d", pos)
		}
		frag := a.fragments[i]
		if frag.name == "" {
			return nil, fmt.Errorf("aggregate tool call %d: empty function name", i)
		}
		args := frag.args.String()
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return nil, fmt.Errorf("aggregate tool call %d (%s): invalid arguments json", i, frag.name)
		}
		turn.ToolCalls = append(turn.ToolCalls, types.ToolCallRequest{
			CallID:    frag.id,
			Name:      frag.name,
			Arguments: args,
		})
	}

	for _, uri := range a.citations {
		turn.Sources = append(turn.Sources, types.Source{URI: uri, Title: uri})
	}
	return turn, nil
}

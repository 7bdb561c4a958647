package gateway

import (
	"context"
	"errors"
	"testing"

	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider 按预置序列回放流式块
type fakeProvider struct {
	chunks  []ptypes.StreamChunk
	openErr error
	lastReq ptypes.ChatCompletionRequest
}

func (f *fakeProvider) CreateChatCompletion(ctx context.Context, req ptypes.ChatCompletionRequest) (*ptypes.ChatCompletionResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) CreateChatCompletionStream(ctx context.Context, req ptypes.ChatCompletionRequest) (<-chan ptypes.StreamChunk, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.lastReq = req
	ch := make(chan ptypes.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func textChunk(text string) ptypes.StreamChunk {
	return ptypes.StreamChunk{
		Choices: []ptypes.StreamChoice{{Delta: ptypes.MessageDelta{Content: text}}},
	}
}

func toolChunk(index int, id, name, args string) ptypes.StreamChunk {
	d := ptypes.ToolCallDelta{Index: index, ID: id}
	d.Function.Name = name
	d.Function.Arguments = args
	return ptypes.StreamChunk{
		Choices: []ptypes.StreamChoice{{Delta: ptypes.MessageDelta{ToolCalls: []ptypes.ToolCallDelta{d}}}},
	}
}

func TestGenerate_TextOnly(t *testing.T) {
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		textChunk("你好，"),
		textChunk("世界"),
		{Done: true},
	}}
	g := New(p, "test-model")

	turn, err := g.Generate(context.Background(), Request{
		SystemInstruction: "你是写作助手",
		Messages:          []ptypes.Message{{Role: "user", Content: "打个招呼"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "你好，世界", turn.Text)
	assert.Empty(t, turn.ToolCalls)

	// 系统指令应作为首条消息注入
	require.Len(t, p.lastReq.Messages, 2)
	assert.Equal(t, "system", p.lastReq.Messages[0].Role)
	assert.Equal(t, "test-model", p.lastReq.Model)
	assert.True(t, p.lastReq.Stream)
}

func TestGenerate_ToolCallFragments(t *testing.T) {
	// 参数跨多个块分片到达，按顺序拼接
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		toolChunk(0, "call_1", "fetch_web_content", `{"ur`),
		toolChunk(0, "", "", `l":"https://example.com"}`),
		{Done: true},
	}}
	g := New(p, "test-model")

	turn, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "call_1", turn.ToolCalls[0].CallID)
	assert.Equal(t, "fetch_web_content", turn.ToolCalls[0].Name)
	assert.JSONEq(t, `{"url":"https://example.com"}`, turn.ToolCalls[0].Arguments)
}

func TestGenerate_MultipleToolCalls(t *testing.T) {
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		textChunk("先查两个页面"),
		toolChunk(0, "call_a", "fetch_web_content", `{"url":"https://a.com"}`),
		toolChunk(1, "call_b", "fetch_web_content", `{"url":"https://b.com"}`),
		{Done: true},
	}}
	g := New(p, "test-model")

	turn, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "先查两个页面", turn.Text)
	require.Len(t, turn.ToolCalls, 2)
	assert.Equal(t, "call_a", turn.ToolCalls[0].CallID)
	assert.Equal(t, "call_b", turn.ToolCalls[1].CallID)
}

func TestGenerate_EmptyArgumentsDefaultsToObject(t *testing.T) {
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		toolChunk(0, "call_1", "create_canvas", ""),
		{Done: true},
	}}
	g := New(p, "test-model")

	turn, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "{}", turn.ToolCalls[0].Arguments)
}

func TestGenerate_InvalidArgumentsJSON(t *testing.T) {
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		toolChunk(0, "call_1", "fetch_web_content", `{"url":`),
		{Done: true},
	}}
	g := New(p, "test-model")

	_, err := g.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments json")
}

func TestGenerate_MissingFragmentIndex(t *testing.T) {
	// 索引 0 缺失时视为协议错误
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		toolChunk(1, "call_b", "fetch_web_content", `{}`),
		{Done: true},
	}}
	g := New(p, "test-model")

	_, err := g.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing fragment")
}

func TestGenerate_CitationsDeduplicated(t *testing.T) {
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		{Citations: []string{"https://a.com", "https://b.com"}},
		textChunk("根据来源"),
		{Citations: []string{"https://a.com"}},
		{Done: true},
	}}
	g := New(p, "test-model")

	turn, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, turn.Sources, 2)
	assert.Equal(t, "https://a.com", turn.Sources[0].URI)
	assert.Equal(t, "https://b.com", turn.Sources[1].URI)
}

func TestGenerate_StreamError(t *testing.T) {
	streamErr := ptypes.NewDecodeError("fake", "bad chunk", errors.New("unexpected EOF"))
	p := &fakeProvider{chunks: []ptypes.StreamChunk{
		textChunk("部分"),
		{Done: true, Error: streamErr},
	}}
	g := New(p, "test-model")

	_, err := g.Generate(context.Background(), Request{})
	require.Error(t, err)

	var pe *ptypes.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ptypes.ErrorTypeDecode, pe.Type)
}

func TestGenerate_OpenError(t *testing.T) {
	p := &fakeProvider{openErr: errors.New("connection refused")}
	g := New(p, "test-model")

	_, err := g.Generate(context.Background(), Request{})
	require.Error(t, err)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 无 Done 块，依赖 ctx 退出
	ch := make(chan ptypes.StreamChunk)
	p := &blockedProvider{ch: ch}
	g := New(p, "test-model")

	_, err := g.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

type blockedProvider struct {
	ch chan ptypes.StreamChunk
}

func (b *blockedProvider) CreateChatCompletion(ctx context.Context, req ptypes.ChatCompletionRequest) (*ptypes.ChatCompletionResponse, error) {
	return nil, errors.New("not implemented")
}

func (b *blockedProvider) CreateChatCompletionStream(ctx context.Context, req ptypes.ChatCompletionRequest) (<-chan ptypes.StreamChunk, error) {
	return b.ch, nil
}

func (b *blockedProvider) Name() string { return "blocked" }
func (b *blockedProvider) Close() error { return nil }

package loop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/gateway"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/tools"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway 按脚本依次回放模型回合
type scriptedGateway struct {
	turns    []*types.Turn
	errs     []error
	calls    int
	requests []gateway.Request
}

func (s *scriptedGateway) Generate(ctx context.Context, req gateway.Request) (*types.Turn, error) {
	i := s.calls
	s.calls++
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.turns) {
		return s.turns[i], nil
	}
	return &types.Turn{Text: "done"}, nil
}

type echoHandler struct{}

func (echoHandler) Name() string { return "fetch_web_content" }

func (echoHandler) Declaration() ptypes.Tool {
	return ptypes.Tool{Type: "function", Function: ptypes.ToolFunction{Name: "fetch_web_content"}}
}

func (echoHandler) Execute(ctx context.Context, args string) (json.RawMessage, error) {
	return json.RawMessage(`{"content":"Example Domain..."}`), nil
}

type failingHandler struct{}

func (failingHandler) Name() string { return "broken_tool" }

func (failingHandler) Declaration() ptypes.Tool {
	return ptypes.Tool{Type: "function", Function: ptypes.ToolFunction{Name: "broken_tool"}}
}

func (failingHandler) Execute(ctx context.Context, args string) (json.RawMessage, error) {
	return nil, errors.New("upstream unavailable")
}

func collect(ch <-chan types.Event) []types.Event {
	var events []types.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []types.Event) []types.EventType {
	out := make([]types.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func findDone(t *testing.T, events []types.Event) *types.RunResult {
	t.Helper()
	for _, ev := range events {
		if ev.Type == types.EventDone {
			return ev.Result
		}
	}
	t.Fatal("no done event")
	return nil
}

func TestRun_NoToolCalls(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{{Text: "直接回答"}}}
	r := NewRunner(gw, tools.NewRegistry(echoHandler{}), Config{})

	events := collect(r.Run(context.Background(), Input{
		Messages: []ptypes.Message{{Role: "user", Content: "你好"}},
	}))

	// 零工具调用：恰好一个 done，无 executing_tool 状态
	assert.Equal(t, []types.EventType{
		types.EventStatus,    // planning
		types.EventStatus,    // responding
		types.EventTextDelta, // 最终文本
		types.EventStatus,    // idle
		types.EventDone,
	}, eventTypes(events))
	for _, ev := range events {
		if ev.Type == types.EventStatus {
			assert.NotEqual(t, types.StatusExecutingTool, ev.Status)
		}
	}
	result := findDone(t, events)
	assert.Equal(t, "直接回答", result.Text)
	assert.Empty(t, result.TaskLog)
	assert.Equal(t, 1, gw.calls)
}

func TestRun_SingleToolCall(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{
		{
			Text: "先抓取页面",
			ToolCalls: []types.ToolCallRequest{
				{CallID: "call_1", Name: "fetch_web_content", Arguments: `{"url":"https://example.com"}`},
			},
		},
		{Text: "This page is a placeholder."},
	}}
	r := NewRunner(gw, tools.NewRegistry(echoHandler{}), Config{})

	events := collect(r.Run(context.Background(), Input{
		Messages: []ptypes.Message{{Role: "user", Content: "Summarize https://example.com"}},
	}))
	result := findDone(t, events)
	assert.Equal(t, "This page is a placeholder.", result.Text)
	assert.Equal(t, 2, gw.calls)

	// 任务日志顺序：thought, tool_call, tool_result
	require.Len(t, result.TaskLog, 3)
	assert.Equal(t, types.TaskLogThought, result.TaskLog[0].Kind)
	assert.Equal(t, types.TaskLogToolCall, result.TaskLog[1].Kind)
	assert.Equal(t, types.TaskLogToolResult, result.TaskLog[2].Kind)
	assert.Equal(t, "fetch_web_content", result.TaskLog[1].ToolName)

	// 第二次调用应携带 assistant 工具调用与 tool 结果消息
	second := gw.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "assistant", second.Messages[1].Role)
	assert.Equal(t, "tool", second.Messages[2].Role)
	assert.Equal(t, "call_1", second.Messages[2].ToolCallID)
}

func TestRun_ToolFailureIsData(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{
		{ToolCalls: []types.ToolCallRequest{
			{CallID: "call_1", Name: "broken_tool", Arguments: `{}`},
		}},
		{Text: "工具失败了，换个方式回答"},
	}}
	r := NewRunner(gw, tools.NewRegistry(failingHandler{}), Config{})

	events := collect(r.Run(context.Background(), Input{}))

	// 工具失败不终止运行
	result := findDone(t, events)
	assert.Equal(t, "工具失败了，换个方式回答", result.Text)

	// 失败以 error 负载折叠回模型
	second := gw.requests[1]
	toolMsg := second.Messages[len(second.Messages)-1]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "upstream unavailable")
}

func TestRun_ResultCountMatchesRequests(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{
		{ToolCalls: []types.ToolCallRequest{
			{CallID: "c1", Name: "fetch_web_content", Arguments: `{"url":"https://a.com"}`},
			{CallID: "c2", Name: "no_such_tool", Arguments: `{}`},
			{CallID: "c3", Name: "fetch_web_content", Arguments: `{"url":"https://b.com"}`},
		}},
		{Text: "完成"},
	}}
	r := NewRunner(gw, tools.NewRegistry(echoHandler{}), Config{})

	collect(r.Run(context.Background(), Input{}))

	// 每个请求恰好对应一条结果，顺序一致，未注册工具亦然
	second := gw.requests[1]
	var toolIDs []string
	for _, msg := range second.Messages {
		if msg.Role == "tool" {
			toolIDs = append(toolIDs, msg.ToolCallID)
		}
	}
	assert.Equal(t, []string{"c1", "c2", "c3"}, toolIDs)
}

func TestRun_ModelFailureIsFatal(t *testing.T) {
	gw := &scriptedGateway{errs: []error{errors.New("connection reset")}}
	r := NewRunner(gw, tools.NewRegistry(), Config{})

	events := collect(r.Run(context.Background(), Input{}))

	// 恰好一个致命错误事件，无 done，任务日志为空
	var errCount, doneCount int
	for _, ev := range events {
		switch ev.Type {
		case types.EventError:
			errCount++
			assert.Equal(t, types.ErrKindModelCommunication, ev.Err.Kind)
			assert.Contains(t, ev.Err.Message, "connection reset")
		case types.EventDone:
			doneCount++
		case types.EventTaskLog:
			t.Fatal("unexpected task log entry")
		}
	}
	assert.Equal(t, 1, errCount)
	assert.Equal(t, 0, doneCount)
}

func TestRun_LoopLimitExceeded(t *testing.T) {
	// 模型每轮都要求工具调用，上限 25，第 26 次尝试前终止
	turns := make([]*types.Turn, 30)
	for i := range turns {
		turns[i] = &types.Turn{ToolCalls: []types.ToolCallRequest{
			{CallID: "c", Name: "fetch_web_content", Arguments: `{"url":"https://a.com"}`},
		}}
	}
	gw := &scriptedGateway{turns: turns}
	r := NewRunner(gw, tools.NewRegistry(echoHandler{}), Config{MaxIterations: 25})

	events := collect(r.Run(context.Background(), Input{}))

	var last types.Event
	for _, ev := range events {
		last = ev
		assert.NotEqual(t, types.EventDone, ev.Type)
	}
	require.Equal(t, types.EventError, last.Type)
	assert.Equal(t, types.ErrKindLoopLimitExceeded, last.Err.Kind)
	// 不发起第 26 次模型调用
	assert.Equal(t, 25, gw.calls)
}

func TestRun_MemoryContextSpliced(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{{Text: "好的"}}}
	r := NewRunner(gw, tools.NewRegistry(), Config{})

	collect(r.Run(context.Background(), Input{
		Messages:      []ptypes.Message{{Role: "user", Content: "继续上次的提纲"}},
		MemoryContext: "用户在写一本关于分布式系统的书",
	}))

	require.Len(t, gw.requests, 1)
	instruction := gw.requests[0].SystemInstruction
	assert.Contains(t, instruction, memoryBlockOpen)
	assert.Contains(t, instruction, "分布式系统")
	assert.Contains(t, instruction, memoryBlockClose)
}

func TestRun_StatusSequenceWithTool(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{
		{ToolCalls: []types.ToolCallRequest{
			{CallID: "c1", Name: "fetch_web_content", Arguments: `{}`},
		}},
		{Text: "最终答案"},
	}}
	r := NewRunner(gw, tools.NewRegistry(echoHandler{}), Config{})

	events := collect(r.Run(context.Background(), Input{}))

	var statuses []types.RunStatus
	for _, ev := range events {
		if ev.Type == types.EventStatus {
			statuses = append(statuses, ev.Status)
		}
	}
	assert.Equal(t, []types.RunStatus{
		types.StatusPlanning,
		types.StatusExecutingTool,
		types.StatusThinking,
		types.StatusResponding,
		types.StatusIdle,
	}, statuses)
}

func TestNormalizeAction(t *testing.T) {
	tests := []struct {
		in      string
		want    InlineAction
		wantErr bool
	}{
		{"rewrite", ActionRewrite, false},
		{"refactor", ActionRewrite, false}, // 历史别名
		{"explain", ActionExplain, false},
		{"continue", ActionContinue, false},
		{"delete", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeAction(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestInlineAction_AppliesToDocument(t *testing.T) {
	assert.True(t, ActionRewrite.AppliesToDocument())
	assert.True(t, ActionContinue.AppliesToDocument())
	assert.False(t, ActionExplain.AppliesToDocument())
}

func TestRunInline(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{{Text: "改写后的段落"}}}
	r := NewRunner(gw, tools.NewRegistry(), Config{})

	out, err := r.RunInline(context.Background(), InlineInput{
		Action:    ActionRewrite,
		Document:  "全文内容",
		Selection: "原始段落",
	})
	require.NoError(t, err)
	assert.Equal(t, "改写后的段落", out)

	// 行内操作不带工具声明
	require.Len(t, gw.requests, 1)
	assert.Empty(t, gw.requests[0].Tools)
	assert.Contains(t, gw.requests[0].Messages[0].Content, "原始段落")
}

func TestRunChat(t *testing.T) {
	gw := &scriptedGateway{turns: []*types.Turn{{Text: "这段讲的是并发模型"}}}
	r := NewRunner(gw, tools.NewRegistry(), Config{})

	turn, err := r.RunChat(context.Background(), ChatInput{
		CanvasText: "Go 的并发基于 CSP",
		History: []types.ChatTurn{
			{Sender: types.SenderUser, Text: "这是什么"},
			{Sender: types.SenderBot, Text: "一篇技术文章"},
		},
		UserMessage: "详细说说",
	})
	require.NoError(t, err)
	assert.Equal(t, "这段讲的是并发模型", turn.Text)

	req := gw.requests[0]
	assert.Empty(t, req.Tools)
	// 画布内容 + 两条历史 + 当前提问
	assert.Len(t, req.Messages, 4)
}

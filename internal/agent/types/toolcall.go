package types

import "encoding/json"

// ToolCallRequest 模型在一轮回复中请求的单次工具调用。
// Arguments 是模型产出的原始 JSON 字符串。
type ToolCallRequest struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult 单次工具调用的执行结果。
// 执行失败时 Payload 为 {"error": "..."}，错误作为数据回传给模型。
type ToolResult struct {
	CallID  string          `json:"call_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload 构造工具失败时回传模型的负载
func ErrorPayload(msg string) json.RawMessage {
	b, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return json.RawMessage(`{"error":"tool execution failed"}`)
	}
	return b
}

// Turn 模型一轮完整回复的聚合结果
type Turn struct {
	Text      string
	ToolCalls []ToolCallRequest
	Sources   []Source
}

// HasToolCalls 本轮是否包含工具调用
func (t *Turn) HasToolCalls() bool {
	return len(t.ToolCalls) > 0
}
